package rules

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// NoMultipleSpaceBlockquoteRule checks for multiple spaces after blockquote symbol.
type NoMultipleSpaceBlockquoteRule struct {
	lint.BaseRule
}

// NewNoMultipleSpaceBlockquoteRule creates a new no-multiple-space-blockquote rule.
func NewNoMultipleSpaceBlockquoteRule() *NoMultipleSpaceBlockquoteRule {
	return &NoMultipleSpaceBlockquoteRule{
		BaseRule: lint.NewLineRule(
			"MD027",
			"no-multiple-space-blockquote",
			"Multiple spaces after blockquote symbol",
			[]string{"blockquote", "indentation", "whitespace", "fixable"},
			true,
		),
	}
}

// blockquoteMultiSpacePattern matches blockquote lines with multiple spaces after >.
var blockquoteMultiSpacePattern = regexp.MustCompile(`^(>+)([ ]{2,})(\S)`)

// blockquoteListPattern matches list items in blockquotes.
var blockquoteListPattern = regexp.MustCompile(`^(>+)\s*([-*+]|\d+[.)]) `)

// Apply checks for multiple spaces after blockquote symbol.
func (r *NoMultipleSpaceBlockquoteRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	includeListItems := ctx.OptionBool("list_items", true)
	codeBlockLines := ctx.CodeBlockLineSet()

	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		if codeBlockLines[lineNum] {
			continue
		}

		lineContent := lint.LineContent(ctx.File, lineNum)

		// Check for multiple spaces after >
		match := blockquoteMultiSpacePattern.FindSubmatch(lineContent)
		if match == nil {
			continue
		}

		// Skip list items if configured.
		if !includeListItems && blockquoteListPattern.Match(lineContent) {
			continue
		}

		prefix := match[1]
		spaces := match[2]

		spaceCol := len(prefix) + 1

		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: spaceCol,
			EndLine:     lineNum,
			EndColumn:   spaceCol + len(spaces),
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
			"Multiple spaces after blockquote symbol").
			WithDetail(fmt.Sprintf("Expected: 1; Actual: %d", len(spaces))).
			WithSuggestion("Use a single space after the blockquote symbol").
			WithFix(fix.FixInfo{
				LineNumber:  lineNum,
				EditColumn:  spaceCol,
				DeleteCount: len(spaces),
				InsertText:  " ",
			}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// NoBlanksBlockquoteRule checks for blank lines inside blockquotes.
type NoBlanksBlockquoteRule struct {
	lint.BaseRule
}

// NewNoBlanksBlockquoteRule creates a new no-blanks-blockquote rule.
func NewNoBlanksBlockquoteRule() *NoBlanksBlockquoteRule {
	return &NoBlanksBlockquoteRule{
		BaseRule: lint.NewLineRule(
			"MD028",
			"no-blanks-blockquote",
			"Blank line inside blockquote",
			[]string{"blockquote", "whitespace"},
			false, // Not auto-fixable - requires human decision.
		),
	}
}

// Apply checks for blank lines separating blockquotes.
func (r *NoBlanksBlockquoteRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.LineCount() < 3 {
		return nil, nil
	}

	codeBlockLines := ctx.CodeBlockLineSet()

	var diags []lint.Diagnostic
	var inBlockquote bool
	var lastBlockquoteLine int

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		if codeBlockLines[lineNum] {
			inBlockquote = false
			lastBlockquoteLine = 0
			continue
		}

		lineContent := lint.LineContent(ctx.File, lineNum)
		isBlockquoteLine := len(lineContent) > 0 && lineContent[0] == '>'
		isBlankLine := len(bytes.TrimSpace(lineContent)) == 0

		if isBlockquoteLine {
			// Check if we're returning to a blockquote after a gap.
			if inBlockquote && lastBlockquoteLine > 0 && lastBlockquoteLine < lineNum-1 {
				// There was a gap - check if it was just blank lines.
				allBlank := true
				for checkLine := lastBlockquoteLine + 1; checkLine < lineNum; checkLine++ {
					if !lint.IsBlankLine(ctx.File, checkLine) {
						allBlank = false
						break
					}
				}

				if allBlank {
					span := lint.Span{
						StartLine:   lastBlockquoteLine + 1,
						StartColumn: 1,
						EndLine:     lineNum - 1,
						EndColumn:   1,
					}

					diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
						"Blank line inside blockquote").
						WithSuggestion("Add text between blockquotes or use '>' on blank lines").
						Build()
					diags = append(diags, diag)
				}
			}

			inBlockquote = true
			lastBlockquoteLine = lineNum
		} else if !isBlankLine {
			// Non-blank, non-blockquote line resets the tracking.
			inBlockquote = false
			lastBlockquoteLine = 0
		}
		// Blank lines don't reset tracking - we want to find gaps.
	}

	return diags, nil
}
