package lsp

import (
	"fmt"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// toDiagnostic converts one lint.Diagnostic to its LSP wire form, using the
// diagnostic's own start/end position when the rule reported a precise
// range, and otherwise treating it as a single-character range at the
// start position - there is no line text available here to fall back to
// "rest of the line" the way the reporter's text renderer can.
func toDiagnostic(d lint.Diagnostic) Diagnostic {
	start := toPosition(d.StartLine, d.StartColumn)
	end := toPosition(d.EndLine, d.EndColumn)
	if end == start {
		end.Character++
	}

	message := d.Message
	if d.Suggestion != "" {
		message = fmt.Sprintf("%s (%s)", message, d.Suggestion)
	}

	return Diagnostic{
		Range:    Range{Start: start, End: end},
		Severity: severityToLSP(d.Severity),
		Code:     d.RuleID,
		Source:   "mkdlint",
		Message:  message,
	}
}

func severityToLSP(sev config.Severity) int {
	if sev == config.SeverityError {
		return SeverityError
	}
	return SeverityWarning
}

func toDiagnostics(diags []lint.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, toDiagnostic(d))
	}
	return out
}
