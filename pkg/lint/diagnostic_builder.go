package lint

import (
	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/fix"
)

// DiagnosticBuilder helps construct Diagnostic values.
type DiagnosticBuilder struct {
	diag Diagnostic
}

// NewDiagnosticAt starts building a diagnostic at a specific position.
func NewDiagnosticAt(
	ruleID string,
	filePath string,
	span Span,
	message string,
) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		diag: Diagnostic{
			RuleID:      ruleID,
			Message:     message,
			FilePath:    filePath,
			StartLine:   span.StartLine,
			StartColumn: span.StartColumn,
			EndLine:     span.EndLine,
			EndColumn:   span.EndColumn,
		},
	}
}

// NewDiagnosticOnLine starts building a diagnostic anchored at column 1 of a
// 1-based line, the common case for line-based rules without a narrower range.
func NewDiagnosticOnLine(ruleID, filePath string, line int, message string) *DiagnosticBuilder {
	return NewDiagnosticAt(ruleID, filePath, Span{
		StartLine:   line,
		StartColumn: 1,
		EndLine:     line,
		EndColumn:   1,
	}, message)
}

// WithSeverity sets the severity.
func (b *DiagnosticBuilder) WithSeverity(s config.Severity) *DiagnosticBuilder {
	b.diag.Severity = s
	return b
}

// WithDetail attaches issue specifics (e.g. "Expected: 0; Actual: 3").
func (b *DiagnosticBuilder) WithDetail(detail string) *DiagnosticBuilder {
	b.diag.Detail = detail
	return b
}

// WithContext attaches a quoted excerpt from the offending line.
func (b *DiagnosticBuilder) WithContext(excerpt string) *DiagnosticBuilder {
	b.diag.Context = excerpt
	return b
}

// WithInfoURL attaches a documentation URL.
func (b *DiagnosticBuilder) WithInfoURL(url string) *DiagnosticBuilder {
	b.diag.InfoURL = url
	return b
}

// WithSuggestion sets a human-readable fix suggestion.
func (b *DiagnosticBuilder) WithSuggestion(s string) *DiagnosticBuilder {
	b.diag.Suggestion = s
	return b
}

// WithFix appends a single fix hint.
func (b *DiagnosticBuilder) WithFix(f fix.FixInfo) *DiagnosticBuilder {
	b.diag.Fixes = append(b.diag.Fixes, f)
	return b
}

// WithFixes appends fix hints accumulated in a fix.Builder.
func (b *DiagnosticBuilder) WithFixes(builder *fix.Builder) *DiagnosticBuilder {
	if builder != nil {
		b.diag.Fixes = append(b.diag.Fixes, builder.Build()...)
	}
	return b
}

// FixOnly marks the diagnostic as an internal fix helper hidden from
// user-facing output.
func (b *DiagnosticBuilder) FixOnly() *DiagnosticBuilder {
	b.diag.FixOnly = true
	return b
}

// Build returns the constructed Diagnostic.
func (b *DiagnosticBuilder) Build() Diagnostic {
	return b.diag
}
