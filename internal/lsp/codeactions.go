package lsp

import (
	"fmt"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// codeActionsFor builds one quick-fix CodeAction per fixable diagnostic
// whose line overlaps the requested range, matching the editor's "show a
// lightbulb for diagnostics under the cursor/selection" convention.
//
// Each diagnostic's fix hints translate directly into LSP TextEdits: the
// hints are line/column addressed single-line edits, which is exactly the
// shape a WorkspaceEdit wants.
func codeActionsFor(uri string, diags []lint.Diagnostic, params CodeActionParams) []CodeAction {
	var actions []CodeAction

	for _, d := range diags {
		if d.FixOnly || !d.HasFix() {
			continue
		}
		if !lineOverlaps(d.StartLine-1, d.EndLine-1, params.Range) {
			continue
		}

		edits := make([]TextEdit, 0, len(d.Fixes))
		for _, f := range d.Fixes {
			edits = append(edits, fixToTextEdit(f, d.StartLine))
		}

		// Fix-only helpers (e.g. the delete-line companions of a code-block
		// conversion) belong to the same quick fix as their primary edit.
		for _, helper := range diags {
			if !helper.FixOnly || helper.RuleID != d.RuleID {
				continue
			}
			for _, f := range helper.Fixes {
				edits = append(edits, fixToTextEdit(f, helper.StartLine))
			}
		}

		actions = append(actions, CodeAction{
			Title: fmt.Sprintf("Fix: %s (%s)", d.RuleName, d.RuleID),
			Kind:  CodeActionKindQuickFix,
			Edit: &WorkspaceEdit{
				Changes: map[string][]TextEdit{uri: edits},
			},
		})
	}

	return actions
}

// fixToTextEdit converts a single fix hint into an LSP TextEdit. LSP ranges
// are zero-based and end-exclusive, so a whole-line delete spans to the
// start of the following line.
func fixToTextEdit(f fix.FixInfo, violationLine int) TextEdit {
	line := f.Line(violationLine) - 1
	col := f.Column() - 1

	switch f.DeleteCount {
	case fix.DeleteWholeLine:
		return TextEdit{
			Range: Range{
				Start: Position{Line: line, Character: 0},
				End:   Position{Line: line + 1, Character: 0},
			},
		}
	case fix.DeleteToEndOfLine:
		return TextEdit{
			Range: Range{
				Start: Position{Line: line, Character: col},
				End:   Position{Line: line, Character: maxLineChars},
			},
			NewText: f.InsertText,
		}
	default:
		return TextEdit{
			Range: Range{
				Start: Position{Line: line, Character: col},
				End:   Position{Line: line, Character: col + f.DeleteCount},
			},
			NewText: f.InsertText,
		}
	}
}

// maxLineChars is the LSP convention for "to end of line": a character
// offset past any realistic line length, which servers may clamp.
const maxLineChars = 1 << 20

// lineOverlaps reports whether the zero-based [startLine, endLine] span
// intersects the requested LSP range.
func lineOverlaps(startLine, endLine int, r Range) bool {
	return endLine >= r.Start.Line && startLine <= r.End.Line
}
