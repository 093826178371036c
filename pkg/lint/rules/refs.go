package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/lint/refs"
)

// refSpan converts a refs package span to a diagnostic span.
func refSpan(s refs.Span) lint.Span {
	out := lint.Span{
		StartLine:   s.StartLine,
		StartColumn: s.StartColumn,
		EndLine:     s.EndLine,
		EndColumn:   s.EndColumn,
	}
	if out.StartColumn < 1 {
		out.StartColumn = 1
	}
	if out.EndColumn < 1 {
		out.EndColumn = out.StartColumn
	}
	return out
}

// LinkFragmentsRule validates that link fragments reference valid anchors (MD051).
type LinkFragmentsRule struct {
	lint.BaseRule
}

// NewLinkFragmentsRule creates a new link fragments rule.
func NewLinkFragmentsRule() *LinkFragmentsRule {
	return &LinkFragmentsRule{
		BaseRule: lint.NewBaseRule(
			"MD051",
			"link-fragments",
			"Link fragments should be valid",
			[]string{"links"},
			false, // Not auto-fixable
		),
	}
}

// Apply checks that link fragments reference valid anchors, both within the
// document and, when a workspace heading index is present, across documents.
func (r *LinkFragmentsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	refCtx := ctx.RefContext()
	ignoreCase := ctx.OptionBool("ignore_case", false)
	ignoredPatternStr := ctx.OptionString("ignored_pattern", "")

	var ignoredPattern *regexp.Regexp
	if ignoredPatternStr != "" {
		var err error
		ignoredPattern, err = regexp.Compile(ignoredPatternStr)
		if err != nil {
			// Invalid pattern - ignore it
			ignoredPattern = nil
		}
	}

	var diags []lint.Diagnostic

	for _, usage := range refCtx.Usages {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		// Skip if no fragment
		if usage.Fragment == "" {
			continue
		}

		fragment := strings.TrimPrefix(usage.Fragment, "#")

		// Skip if matches ignored pattern
		if ignoredPattern != nil && ignoredPattern.MatchString(fragment) {
			continue
		}

		valid := r.validateUsage(ctx, refCtx, usage, fragment, ignoreCase)
		if valid {
			continue
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, refSpan(usage.Position),
			"Link fragments should be valid").
			WithDetail(fmt.Sprintf("Fragment: #%s", fragment)).
			WithSuggestion("Use a valid heading anchor").
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// validateUsage resolves a fragment either against this document's anchors
// or, for a destination naming another document, against the workspace
// heading index. Cross-document fragments without an index are skipped
// rather than guessed at.
func (r *LinkFragmentsRule) validateUsage(
	ctx *lint.RuleContext,
	refCtx *refs.Context,
	usage *refs.ReferenceUsage,
	fragment string,
	ignoreCase bool,
) bool {
	target := strings.TrimSuffix(usage.Destination, usage.Fragment)

	if target != "" {
		// Cross-document fragment.
		if ctx.Workspace == nil {
			return true
		}
		slugs, ok := ctx.Workspace.Resolve(ctx.File.Path, target)
		if !ok {
			// Unknown document; the broken-path case is not this rule's.
			return true
		}
		for _, slug := range slugs {
			if slug == fragment || (ignoreCase && strings.EqualFold(slug, fragment)) {
				return true
			}
		}
		return false
	}

	valid := refCtx.ValidateFragment(usage.Fragment)
	if !valid && ignoreCase {
		valid = refCtx.Anchors.HasIgnoreCase(fragment)
	}
	return valid
}

// ReferenceLinkImagesRule validates that reference labels are defined (MD052).
type ReferenceLinkImagesRule struct {
	lint.BaseRule
}

// NewReferenceLinkImagesRule creates a new reference links/images rule.
func NewReferenceLinkImagesRule() *ReferenceLinkImagesRule {
	return &ReferenceLinkImagesRule{
		BaseRule: lint.NewBaseRule(
			"MD052",
			"reference-links-images",
			"Reference links and images should use defined labels",
			[]string{"links", "images"},
			false, // Not auto-fixable
		),
	}
}

// Apply checks that reference-style links/images use defined labels.
func (r *ReferenceLinkImagesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	refCtx := ctx.RefContext()
	includeShortcut := ctx.OptionBool("shortcut_syntax", false)
	ignoredLabels := ctx.OptionStringSlice("ignored_labels", []string{"x"})

	// Build ignored set
	ignoredSet := make(map[string]bool)
	for _, label := range ignoredLabels {
		ignoredSet[strings.ToLower(label)] = true
	}

	var diags []lint.Diagnostic

	for _, usage := range refCtx.Usages {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		// Skip inline/autolink styles - they don't use references
		if usage.Style == refs.StyleInline || usage.Style == refs.StyleAutolink {
			continue
		}

		// Skip shortcut unless configured to check
		if usage.Style == refs.StyleShortcut && !includeShortcut {
			continue
		}

		// Skip if no label
		if usage.Label == "" {
			continue
		}

		// Skip ignored labels
		if ignoredSet[usage.NormalizedLabel] {
			continue
		}

		// Check if label is defined
		if usage.ResolvedDefinition == nil {
			kind := "link"
			if usage.IsImage {
				kind = "image"
			}

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, refSpan(usage.Position),
				"Reference links and images should use defined labels").
				WithDetail(fmt.Sprintf("Undefined %s label: [%s]", kind, usage.Label)).
				WithSuggestion("Define the reference or use inline syntax").
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// LinkImageRefDefsRule detects unused/duplicate reference definitions (MD053).
type LinkImageRefDefsRule struct {
	lint.BaseRule
}

// NewLinkImageRefDefsRule creates a new link/image reference definitions rule.
func NewLinkImageRefDefsRule() *LinkImageRefDefsRule {
	return &LinkImageRefDefsRule{
		BaseRule: lint.NewBaseRule(
			"MD053",
			"link-image-reference-definitions",
			"Link and image reference definitions should be needed",
			[]string{"links", "images", "fixable"},
			true, // Auto-fixable: definitions live on their own line.
		),
	}
}

// Apply checks for unused and duplicate reference definitions.
func (r *LinkImageRefDefsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	refCtx := ctx.RefContext()
	ignoredDefs := ctx.OptionStringSlice("ignored_definitions", []string{"//"})

	// Build ignored set
	ignoredSet := make(map[string]bool)
	for _, def := range ignoredDefs {
		ignoredSet[strings.ToLower(def)] = true
	}

	var diags []lint.Diagnostic

	for _, def := range refCtx.AllDefinitions {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		// Skip ignored definitions
		if ignoredSet[def.NormalizedLabel] {
			continue
		}

		// Check for duplicates
		if def.IsDuplicate {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, refSpan(def.Position),
				"Link and image reference definitions should be needed").
				WithDetail(fmt.Sprintf("Duplicate definition: [%s]", def.Label)).
				WithSuggestion("Remove duplicate definition").
				WithFix(fix.FixInfo{LineNumber: def.LineNumber, DeleteCount: fix.DeleteWholeLine}).
				Build()
			diags = append(diags, diag)
			continue
		}

		// Check for unused (only for non-duplicate first definitions)
		if def.UsageCount == 0 {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, refSpan(def.Position),
				"Link and image reference definitions should be needed").
				WithDetail(fmt.Sprintf("Unused definition: [%s]", def.Label)).
				WithSuggestion("Remove unused definition or add a reference").
				WithFix(fix.FixInfo{LineNumber: def.LineNumber, DeleteCount: fix.DeleteWholeLine}).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// LinkImageStyleRule enforces consistent link/image syntax styles (MD054).
type LinkImageStyleRule struct {
	lint.BaseRule
}

// NewLinkImageStyleRule creates a new link/image style rule.
func NewLinkImageStyleRule() *LinkImageStyleRule {
	return &LinkImageStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD054",
			"link-image-style",
			"Link and image style should be consistent",
			[]string{"links", "images"},
			false, // Not auto-fixable
		),
	}
}

// DefaultEnabled returns false for this optional rule.
func (r *LinkImageStyleRule) DefaultEnabled() bool {
	return false
}

// Apply checks link/image style consistency.
func (r *LinkImageStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	refCtx := ctx.RefContext()

	// Get allowed styles from config
	allowAutolink := ctx.OptionBool("autolink", true)
	allowInline := ctx.OptionBool("inline", true)
	allowFull := ctx.OptionBool("full", true)
	allowCollapsed := ctx.OptionBool("collapsed", true)
	allowShortcut := ctx.OptionBool("shortcut", true)
	allowURLInline := ctx.OptionBool("url_inline", true)

	var diags []lint.Diagnostic

	for _, usage := range refCtx.Usages {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		allowed := true
		var detail string

		switch usage.Style {
		case refs.StyleAutolink:
			if !allowAutolink {
				allowed = false
				detail = "Autolinks are not allowed"
			}
		case refs.StyleInline:
			if !allowInline {
				allowed = false
				detail = "Inline links/images are not allowed"
			} else if !allowURLInline && isURLAsText(usage) {
				allowed = false
				detail = "URL as inline link text is not allowed; use autolink syntax"
			}
		case refs.StyleFull:
			if !allowFull {
				allowed = false
				detail = "Full reference syntax is not allowed"
			}
		case refs.StyleCollapsed:
			if !allowCollapsed {
				allowed = false
				detail = "Collapsed reference syntax is not allowed"
			}
		case refs.StyleShortcut:
			if !allowShortcut {
				allowed = false
				detail = "Shortcut reference syntax is not allowed"
			}
		}

		if !allowed {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, refSpan(usage.Position),
				"Link and image style").
				WithDetail(detail).
				WithSuggestion("Use an allowed link/image style").
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// isURLAsText checks if inline link has URL as both text and destination.
func isURLAsText(usage *refs.ReferenceUsage) bool {
	if usage.Style != refs.StyleInline {
		return false
	}
	// Check if text equals destination (URL as link text)
	return usage.Text == usage.Destination && isAbsoluteURLForStyle(usage.Destination)
}

// isAbsoluteURLForStyle returns true if the string looks like an absolute URL.
func isAbsoluteURLForStyle(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "ftp://") ||
		strings.HasPrefix(url, "mailto:") ||
		strings.HasPrefix(url, "tel:")
}

// DescriptiveLinkTextRule checks for generic link text (MD059).
type DescriptiveLinkTextRule struct {
	lint.BaseRule
}

// NewDescriptiveLinkTextRule creates a new descriptive link text rule.
func NewDescriptiveLinkTextRule() *DescriptiveLinkTextRule {
	return &DescriptiveLinkTextRule{
		BaseRule: lint.NewBaseRule(
			"MD059",
			"descriptive-link-text",
			"Link text should be descriptive",
			[]string{"links", "accessibility"},
			false, // Not auto-fixable
		),
	}
}

// DefaultEnabled returns false for this optional rule.
func (r *DescriptiveLinkTextRule) DefaultEnabled() bool {
	return false
}

// getDefaultGenericPatterns returns the default list of generic link text patterns.
func getDefaultGenericPatterns() []string {
	return []string{
		"click here",
		"click",
		"here",
		"link",
		"more",
		"read more",
		"learn more",
		"this",
		"this link",
	}
}

// Apply checks for generic/non-descriptive link text.
func (r *DescriptiveLinkTextRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	refCtx := ctx.RefContext()

	// Get patterns from config, or use defaults
	patterns := ctx.OptionStringSlice("patterns", getDefaultGenericPatterns())

	// Build pattern set (lowercase for case-insensitive matching)
	patternSet := make(map[string]bool)
	for _, p := range patterns {
		patternSet[strings.ToLower(strings.TrimSpace(p))] = true
	}

	var diags []lint.Diagnostic

	for _, usage := range refCtx.Usages {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		// Skip images - they have alt text, not link text
		if usage.IsImage {
			continue
		}

		// Check if text is generic
		text := strings.ToLower(strings.TrimSpace(usage.Text))
		if text == "" {
			continue
		}

		if patternSet[text] {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, refSpan(usage.Position),
				"Link text should be descriptive").
				WithContext(usage.Text).
				WithSuggestion("Use descriptive text that explains the link destination").
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}
