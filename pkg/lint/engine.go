package lint

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/directive"
	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/headingindex"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// CustomRuleErrorID is the synthetic rule identifier attached to diagnostics
// produced when a rule itself fails (panics or returns an internal error).
const CustomRuleErrorID = "CustomRuleError"

// FileResult contains the results of linting a single file.
type FileResult struct {
	// Snapshot is the parsed file.
	Snapshot *mdtoken.Snapshot

	// Diagnostics contains all issues found, sorted by line. Includes
	// fix-only helper diagnostics; use UserDiagnostics for display.
	Diagnostics []Diagnostic

	// FixViolations contains the violations whose fixes should be applied
	// when auto-fix is requested, already filtered to auto-fix-enabled rules.
	FixViolations []fix.Violation

	// RuleErrors contains any errors from rule execution, keyed by rule ID.
	RuleErrors map[string]error
}

// UserDiagnostics returns the diagnostics intended for user-facing output,
// excluding fix-only helpers.
func (fr *FileResult) UserDiagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(fr.Diagnostics))
	for _, d := range fr.Diagnostics {
		if !d.FixOnly {
			out = append(out, d)
		}
	}
	return out
}

// HasIssues returns true if any user-facing diagnostics were found.
func (fr *FileResult) HasIssues() bool {
	for _, d := range fr.Diagnostics {
		if !d.FixOnly {
			return true
		}
	}
	return false
}

// HasFixes returns true if any fixes are available.
func (fr *FileResult) HasFixes() bool {
	return len(fr.FixViolations) > 0
}

// IssueCount returns the number of user-facing diagnostics.
func (fr *FileResult) IssueCount() int {
	count := 0
	for _, d := range fr.Diagnostics {
		if !d.FixOnly {
			count++
		}
	}
	return count
}

// FixableCount returns the number of user-facing diagnostics with fixes.
func (fr *FileResult) FixableCount() int {
	count := 0
	for _, d := range fr.Diagnostics {
		if !d.FixOnly && d.HasFix() {
			count++
		}
	}
	return count
}

// ErrorCount returns the number of user-facing error-severity diagnostics.
func (fr *FileResult) ErrorCount() int {
	count := 0
	for _, d := range fr.Diagnostics {
		if !d.FixOnly && d.Severity == config.SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of user-facing warning-severity diagnostics.
func (fr *FileResult) WarningCount() int {
	count := 0
	for _, d := range fr.Diagnostics {
		if !d.FixOnly && d.Severity == config.SeverityWarning {
			count++
		}
	}
	return count
}

// Engine coordinates parsing and rule execution for linting.
type Engine struct {
	// Parser parses Markdown files into token snapshots.
	Parser Parser

	// Registry holds all available rules.
	Registry *Registry

	// Workspace is the optional cross-document heading index, built once by
	// the caller when linting a document set and shared read-only across
	// concurrent lint invocations.
	Workspace *headingindex.Index
}

// NewEngine creates a new Engine with the given parser and registry.
func NewEngine(parser Parser, registry *Registry) *Engine {
	return &Engine{
		Parser:   parser,
		Registry: registry,
	}
}

// LintFile parses and lints a single file.
func (e *Engine) LintFile(
	ctx context.Context,
	path string,
	content []byte,
	cfg *config.Config,
) (*FileResult, error) {
	// Parse the file.
	snapshot, err := e.Parser.Parse(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Build the inline-directive mask, unless disabled.
	mask := directive.AllEnabled()
	if cfg == nil || !cfg.NoInlineConfig {
		mask = directive.Scan(content)
	}

	// Resolve which rules to run.
	resolved := ResolveRules(e.Registry, cfg)

	result := &FileResult{
		Snapshot:   snapshot,
		RuleErrors: make(map[string]error),
	}

	// Per-file caches shared across rule invocations.
	var shared *RuleContext

	// Run each rule.
	for _, rr := range resolved {
		// Check for cancellation.
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("linting cancelled: %w", ctx.Err())
		default:
		}

		// Create rule context.
		ruleCtx := NewRuleContext(ctx, snapshot, cfg, rr.Config)
		ruleCtx.Registry = e.Registry
		ruleCtx.Mask = mask
		ruleCtx.Workspace = e.Workspace
		if shared == nil {
			shared = ruleCtx
		} else {
			ruleCtx.shareFileState(shared)
		}

		// Execute rule, recovering from rule-internal panics so one
		// misbehaving rule never prevents others from running.
		diags, ruleErr := applyRule(rr.Rule, ruleCtx)
		if ruleErr != nil {
			if cfg != nil && !cfg.HandleRuleFailures() {
				return result, fmt.Errorf("rule %s failed: %w", rr.Rule.ID(), ruleErr)
			}
			result.RuleErrors[rr.Rule.ID()] = ruleErr
			result.Diagnostics = append(result.Diagnostics, ruleFailureDiagnostic(rr.Rule, path, ruleErr))
			continue
		}

		// Process diagnostics.
		for _, d := range diags {
			// Apply resolved severity.
			d.Severity = rr.Severity

			// Ensure file path and rule name are set.
			if d.FilePath == "" {
				d.FilePath = path
			}
			if d.RuleName == "" {
				d.RuleName = rr.Rule.Name()
			}

			// Drop diagnostics disabled by an inline directive, matching
			// either the canonical ID or the alias.
			if !mask.Enabled(d.StartLine, d.RuleID) || !mask.Enabled(d.StartLine, d.RuleName) {
				continue
			}

			// Collect fix hints if auto-fix is enabled for this rule.
			if rr.AutoFix && d.HasFix() {
				result.FixViolations = append(result.FixViolations, d.FixViolation())
			}

			result.Diagnostics = append(result.Diagnostics, d)
		}
	}

	// Sort by line ascending; the stable sort preserves rule registration
	// order for same-line diagnostics.
	sort.SliceStable(result.Diagnostics, func(i, j int) bool {
		return result.Diagnostics[i].StartLine < result.Diagnostics[j].StartLine
	})

	return result, nil
}

// applyRule invokes the rule, converting panics into errors.
func applyRule(rule Rule, ruleCtx *RuleContext) (diags []Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			diags = nil
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Apply(ruleCtx)
}

// ruleFailureDiagnostic builds the synthetic violation surfaced when a rule
// fails internally: attached to line 1 at error severity.
func ruleFailureDiagnostic(rule Rule, path string, err error) Diagnostic {
	return Diagnostic{
		RuleID:      CustomRuleErrorID,
		RuleName:    rule.ID(),
		Message:     fmt.Sprintf("Rule %s execution failed", rule.ID()),
		Detail:      err.Error(),
		Severity:    config.SeverityError,
		FilePath:    path,
		StartLine:   1,
		StartColumn: 1,
		EndLine:     1,
		EndColumn:   1,
	}
}
