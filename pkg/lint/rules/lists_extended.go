package rules

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// ListIndentRule checks for inconsistent indentation of list items at the same level.
type ListIndentRule struct {
	lint.BaseRule
}

// NewListIndentRule creates a new list-indent rule.
func NewListIndentRule() *ListIndentRule {
	return &ListIndentRule{
		BaseRule: lint.NewBaseRule(
			"MD005",
			"list-indent",
			"Inconsistent indentation for list items at the same level",
			[]string{"bullet", "indentation", "ul", "fixable"},
			true,
		),
	}
}

// Apply checks for inconsistent list item indentation.
func (r *ListIndentRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic

	for _, listIdx := range ctx.Lists() {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		diags = append(diags, r.checkList(ctx, listIdx)...)
	}

	return diags, nil
}

func (r *ListIndentRule) checkList(ctx *lint.RuleContext, listIdx int) []lint.Diagnostic {
	var diags []lint.Diagnostic
	items := lint.ListItemsOf(ctx.File, listIdx)
	if len(items) < 2 {
		return diags
	}

	// Get the indentation of the first item to use as reference.
	first := ctx.Token(items[0])
	if first.StartLine < 1 {
		return diags
	}

	referenceIndent := lint.LineIndent(ctx.File, first.StartLine, 4)

	// Check remaining items.
	for _, itemIdx := range items[1:] {
		item := ctx.Token(itemIdx)
		if item.StartLine < 1 {
			continue
		}

		indent := lint.LineIndent(ctx.File, item.StartLine, 4)
		if indent == referenceIndent {
			continue
		}

		lineContent := lint.LineContent(ctx.File, item.StartLine)
		trimmed := bytes.TrimLeft(lineContent, " \t")
		leading := len(lineContent) - len(trimmed)

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(item),
			"Inconsistent indentation for list items at the same level").
			WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", referenceIndent, indent)).
			WithSuggestion(fmt.Sprintf("Indent list item by %d spaces", referenceIndent)).
			WithFix(fix.FixInfo{
				LineNumber:  item.StartLine,
				EditColumn:  1,
				DeleteCount: leading,
				InsertText:  strings.Repeat(" ", referenceIndent),
			}).
			Build()
		diags = append(diags, diag)
	}

	return diags
}

// ULIndentRule checks unordered list indentation.
type ULIndentRule struct {
	lint.BaseRule
}

// NewULIndentRule creates a new ul-indent rule.
func NewULIndentRule() *ULIndentRule {
	return &ULIndentRule{
		BaseRule: lint.NewBaseRule(
			"MD007",
			"ul-indent",
			"Unordered list indentation",
			[]string{"bullet", "indentation", "ul", "fixable"},
			true,
		),
	}
}

// Apply checks unordered list indentation.
func (r *ULIndentRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == mdtoken.None {
		return nil, nil
	}

	indent := ctx.OptionInt("indent", 2)
	startIndented := ctx.OptionBool("start_indented", false)
	startIndent := ctx.OptionInt("start_indent", indent)

	var diags []lint.Diagnostic

	// Only process top-level lists (direct children of document); nested
	// lists are visited recursively so the depth is known.
	for _, childIdx := range ctx.File.Children(ctx.Root) {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		child := ctx.Token(childIdx)
		if child.Kind != mdtoken.KindList || child.ListOrdered() {
			continue
		}

		diags = append(diags, r.checkULIndent(ctx, childIdx, 0, indent, startIndented, startIndent)...)
	}

	return diags, nil
}

func (r *ULIndentRule) checkULIndent(
	ctx *lint.RuleContext,
	listIdx int,
	depth int,
	indent int,
	startIndented bool,
	startIndent int,
) []lint.Diagnostic {
	var diags []lint.Diagnostic

	// Calculate expected indentation.
	expectedIndent := depth * indent
	if startIndented {
		expectedIndent = startIndent + depth*indent
		if depth == 0 {
			expectedIndent = startIndent
		}
	}

	for _, itemIdx := range lint.ListItemsOf(ctx.File, listIdx) {
		item := ctx.Token(itemIdx)
		if item.StartLine < 1 {
			continue
		}

		actualIndent := lint.LineIndent(ctx.File, item.StartLine, 4)
		if actualIndent != expectedIndent {
			lineContent := lint.LineContent(ctx.File, item.StartLine)
			trimmed := bytes.TrimLeft(lineContent, " \t")
			leading := len(lineContent) - len(trimmed)

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(item),
				"Unordered list indentation").
				WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", expectedIndent, actualIndent)).
				WithSuggestion(fmt.Sprintf("Indent list item by %d spaces", expectedIndent)).
				WithFix(fix.FixInfo{
					LineNumber:  item.StartLine,
					EditColumn:  1,
					DeleteCount: leading,
					InsertText:  strings.Repeat(" ", expectedIndent),
				}).
				Build()
			diags = append(diags, diag)
		}

		// Check nested lists.
		for _, childIdx := range ctx.File.Children(itemIdx) {
			child := ctx.Token(childIdx)
			if child.Kind == mdtoken.KindList && !child.ListOrdered() {
				diags = append(diags, r.checkULIndent(ctx, childIdx, depth+1, indent, startIndented, startIndent)...)
			}
		}
	}

	return diags
}

// ListMarkerSpaceRule checks for correct spaces after list markers.
type ListMarkerSpaceRule struct {
	lint.BaseRule
}

// NewListMarkerSpaceRule creates a new list-marker-space rule.
func NewListMarkerSpaceRule() *ListMarkerSpaceRule {
	return &ListMarkerSpaceRule{
		BaseRule: lint.NewBaseRule(
			"MD030",
			"list-marker-space",
			"Spaces after list markers",
			[]string{"ol", "ul", "whitespace", "fixable"},
			true,
		),
	}
}

// listMarkerPattern matches list markers and captures the spaces after.
var listMarkerPattern = regexp.MustCompile(`^(\s*)([-*+]|\d+[.)])(\s+)`)

// Apply checks for correct spaces after list markers.
func (r *ListMarkerSpaceRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	ulSingle := ctx.OptionInt("ul_single", 1)
	ulMulti := ctx.OptionInt("ul_multi", 1)
	olSingle := ctx.OptionInt("ol_single", 1)
	olMulti := ctx.OptionInt("ol_multi", 1)

	var diags []lint.Diagnostic

	for _, listIdx := range ctx.Lists() {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		listTok := ctx.Token(listIdx)
		isOrdered := listTok.ListOrdered()
		isTight := listTok.ListTight()

		var expectedSpaces int
		if isOrdered {
			if isTight {
				expectedSpaces = olSingle
			} else {
				expectedSpaces = olMulti
			}
		} else {
			if isTight {
				expectedSpaces = ulSingle
			} else {
				expectedSpaces = ulMulti
			}
		}

		for _, itemIdx := range lint.ListItemsOf(ctx.File, listIdx) {
			item := ctx.Token(itemIdx)
			if item.StartLine < 1 {
				continue
			}

			lineContent := lint.LineContent(ctx.File, item.StartLine)
			match := listMarkerPattern.FindSubmatch(lineContent)
			if match == nil {
				continue
			}

			actualSpaces := len(match[3])
			if actualSpaces == expectedSpaces {
				continue
			}

			markerEndCol := lint.ColumnOf(lineContent, len(match[1])+len(match[2]))

			span := lint.Span{
				StartLine:   item.StartLine,
				StartColumn: markerEndCol,
				EndLine:     item.StartLine,
				EndColumn:   markerEndCol + actualSpaces,
			}

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
				"Spaces after list markers").
				WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", expectedSpaces, actualSpaces)).
				WithSuggestion(fmt.Sprintf("Use %d space(s) after the list marker", expectedSpaces)).
				WithFix(fix.FixInfo{
					LineNumber:  item.StartLine,
					EditColumn:  markerEndCol,
					DeleteCount: actualSpaces,
					InsertText:  strings.Repeat(" ", expectedSpaces),
				}).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// BlanksAroundListsRule checks that lists are surrounded by blank lines.
type BlanksAroundListsRule struct {
	lint.BaseRule
}

// NewBlanksAroundListsRule creates a new blanks-around-lists rule.
func NewBlanksAroundListsRule() *BlanksAroundListsRule {
	return &BlanksAroundListsRule{
		BaseRule: lint.NewBaseRule(
			"MD032",
			"blanks-around-lists",
			"Lists should be surrounded by blank lines",
			[]string{"blank_lines", "bullet", "ol", "ul", "fixable"},
			true,
		),
	}
}

// Apply checks that lists are surrounded by blank lines.
func (r *BlanksAroundListsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == mdtoken.None {
		return nil, nil
	}

	var diags []lint.Diagnostic

	// Find top-level lists only (not nested).
	for _, childIdx := range ctx.File.Children(ctx.Root) {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		child := ctx.Token(childIdx)
		if child.Kind != mdtoken.KindList || child.StartLine < 1 {
			continue
		}

		// Check for blank line before.
		if diag := r.checkBlankBefore(ctx, childIdx, child); diag != nil {
			diags = append(diags, *diag)
		}

		// Check for blank line after.
		if diag := r.checkBlankAfter(ctx, childIdx, child); diag != nil {
			diags = append(diags, *diag)
		}
	}

	return diags, nil
}

// checkBlankBefore checks if there's a missing blank line before the list.
func (r *BlanksAroundListsRule) checkBlankBefore(
	ctx *lint.RuleContext,
	listIdx int,
	list mdtoken.Token,
) *lint.Diagnostic {
	if list.StartLine <= 1 || lint.IsBlankLine(ctx.File, list.StartLine-1) {
		return nil
	}

	// Only flag when something actually precedes the list.
	if list.PrevSibling == mdtoken.None {
		return nil
	}

	diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, list.StartLine,
		"Lists should be surrounded by blank lines").
		WithContext(string(lint.LineContent(ctx.File, list.StartLine))).
		WithSuggestion("Add a blank line before the list").
		WithFix(fix.FixInfo{LineNumber: list.StartLine, EditColumn: 1, InsertText: "\n"}).
		Build()
	return &diag
}

// checkBlankAfter checks if there's a missing blank line after the list.
// This handles both normal cases and lazy continuation where text following
// a list item without a blank line gets absorbed into the list.
func (r *BlanksAroundListsRule) checkBlankAfter(
	ctx *lint.RuleContext,
	listIdx int,
	list mdtoken.Token,
) *lint.Diagnostic {
	// First, check for lazy continuation: if the list's EndLine extends beyond
	// the last list item's marker StartLine, content was absorbed.
	if diag := r.checkLazyContinuation(ctx, list); diag != nil {
		return diag
	}

	// If no lazy continuation, check normally based on next sibling.
	return r.checkBlankAfterNormal(ctx, list)
}

// checkLazyContinuation detects when text was absorbed into the list via lazy continuation.
func (r *BlanksAroundListsRule) checkLazyContinuation(
	ctx *lint.RuleContext,
	list mdtoken.Token,
) *lint.Diagnostic {
	if list.LastChild == mdtoken.None {
		return nil
	}

	lastItem := ctx.Token(list.LastChild)
	if lastItem.StartLine < 1 || lastItem.StartLine >= list.EndLine {
		return nil
	}

	// List absorbed content after the last marker - check if there's a blank line after the marker.
	checkLine := lastItem.StartLine + 1
	if checkLine > ctx.LineCount() || lint.IsBlankLine(ctx.File, checkLine) {
		return nil
	}

	return r.createAfterDiagnostic(ctx, lastItem.StartLine)
}

// checkBlankAfterNormal checks for missing blank line after list using next sibling position.
func (r *BlanksAroundListsRule) checkBlankAfterNormal(
	ctx *lint.RuleContext,
	list mdtoken.Token,
) *lint.Diagnostic {
	if list.NextSibling == mdtoken.None {
		return nil
	}

	// Find the line we need to check for blankness.
	checkLine := r.findCheckLineForAfter(ctx, list)
	if checkLine <= 0 || checkLine > ctx.LineCount() || lint.IsBlankLine(ctx.File, checkLine) {
		return nil
	}

	// Find the diagnostic line - use the last list item's start line (the actual marker).
	diagLine := list.EndLine
	if list.LastChild != mdtoken.None {
		if itemLine := ctx.Token(list.LastChild).StartLine; itemLine > 0 {
			diagLine = itemLine
		}
	}

	return r.createAfterDiagnostic(ctx, diagLine)
}

// findCheckLineForAfter determines which line to check for blankness after the list.
func (r *BlanksAroundListsRule) findCheckLineForAfter(ctx *lint.RuleContext, list mdtoken.Token) int {
	next := ctx.Token(list.NextSibling)
	if next.StartLine > 1 {
		// Next sibling has valid position - check line before it.
		return next.StartLine - 1
	}

	// Next sibling has an unusable position. Fall back to checking the line
	// after the last list item's marker.
	if list.LastChild != mdtoken.None {
		if itemLine := ctx.Token(list.LastChild).StartLine; itemLine > 0 && itemLine < ctx.LineCount() {
			return itemLine + 1
		}
	}

	return 0
}

// createAfterDiagnostic creates a diagnostic for missing blank line after list.
func (r *BlanksAroundListsRule) createAfterDiagnostic(ctx *lint.RuleContext, diagLine int) *lint.Diagnostic {
	endCol := lint.LineLength(ctx.File, diagLine) + 1

	diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, diagLine,
		"Lists should be surrounded by blank lines").
		WithContext(string(lint.LineContent(ctx.File, diagLine))).
		WithSuggestion("Add a blank line after the list").
		WithFix(fix.FixInfo{LineNumber: diagLine, EditColumn: endCol, InsertText: "\n"}).
		Build()
	return &diag
}
