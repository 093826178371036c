// Package lint provides the rule engine, diagnostics, and registry for mkdlint.
package lint

import (
	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/fix"
)

// Span is a line/column range in a document. Lines and columns are 1-based;
// columns count characters. EndColumn is exclusive of the last character, so
// the highlighted length is EndColumn - StartColumn.
type Span struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// IsValid returns true if both ends of the span are positive.
func (s Span) IsValid() bool {
	return s.StartLine > 0 && s.StartColumn > 0 && s.EndLine > 0 && s.EndColumn > 0
}

// IsSingleLine returns true if the span starts and ends on the same line.
func (s Span) IsSingleLine() bool {
	return s.StartLine == s.EndLine
}

// Length returns the highlighted character count for a single-line span.
func (s Span) Length() int {
	if !s.IsSingleLine() || s.EndColumn < s.StartColumn {
		return 0
	}
	return s.EndColumn - s.StartColumn
}

// Diagnostic represents a single lint issue found in a file.
type Diagnostic struct {
	// RuleID is the canonical identifier of the rule (e.g., "MD009").
	RuleID string

	// RuleName is the human-readable alias of the rule (e.g., "no-trailing-spaces").
	RuleName string

	// Message is the one-line description of the issue.
	Message string

	// Detail carries issue specifics (e.g., "Expected: h2; Actual: h3").
	Detail string

	// Context is a quoted excerpt from the offending line, when useful.
	Context string

	// InfoURL points at the rule's documentation, when available.
	InfoURL string

	// Severity indicates the importance of the diagnostic.
	Severity config.Severity

	// FilePath is the path to the file containing the issue.
	FilePath string

	// StartLine is the 1-based line number where the issue starts.
	StartLine int

	// StartColumn is the 1-based column number where the issue starts.
	StartColumn int

	// EndLine is the 1-based line number where the issue ends.
	EndLine int

	// EndColumn is the 1-based column just past the issue.
	EndColumn int

	// Suggestion is an optional human-readable fix suggestion.
	Suggestion string

	// FixOnly marks internal helper diagnostics (e.g. a "delete this
	// continuation line" companion to a primary fix). They participate in
	// fix application but never appear in user-facing output.
	FixOnly bool

	// Fixes contains the edit hints that remove this issue (may be empty).
	Fixes []fix.FixInfo
}

// HasFix returns true if this diagnostic carries fix hints.
func (d *Diagnostic) HasFix() bool {
	return len(d.Fixes) > 0
}

// Span returns the diagnostic's position as a Span.
func (d *Diagnostic) Span() Span {
	return Span{
		StartLine:   d.StartLine,
		StartColumn: d.StartColumn,
		EndLine:     d.EndLine,
		EndColumn:   d.EndColumn,
	}
}

// FixViolation converts the diagnostic to the fix engine's input shape.
func (d *Diagnostic) FixViolation() fix.Violation {
	return fix.Violation{Line: d.StartLine, Fix: d.Fixes}
}

// Rule defines the interface that all lint rules must implement.
type Rule interface {
	// ID returns the canonical identifier for this rule (e.g., "MD001").
	ID() string

	// Name returns the human-readable alias of the rule.
	Name() string

	// Description returns a detailed description of what the rule checks.
	Description() string

	// DefaultEnabled returns whether the rule is enabled by default.
	DefaultEnabled() bool

	// DefaultSeverity returns the default severity for this rule.
	DefaultSeverity() config.Severity

	// Tags returns categorization tags for this rule (e.g., ["style", "heading"]).
	Tags() []string

	// CanFix returns whether this rule can auto-fix issues.
	CanFix() bool

	// NeedsTokens reports whether the rule requires the parsed token vector.
	// Rules that work purely on lines return false and may be run against a
	// snapshot with an empty token vector.
	NeedsTokens() bool

	// Apply executes the rule against the given context and returns diagnostics.
	//
	// Rules must:
	//   - Return diagnostics for each violation found.
	//   - Attach fix.FixInfo hints when CanFix() is true and the issue is fixable.
	//   - Respect context cancellation.
	//   - Return error only for internal failures, not violations.
	//   - Be pure over their inputs; no global mutable state.
	Apply(ctx *RuleContext) ([]Diagnostic, error)
}
