package rules

import (
	"fmt"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// TrailingWhitespaceRule checks for trailing whitespace on lines.
type TrailingWhitespaceRule struct {
	lint.BaseRule
}

// NewTrailingWhitespaceRule creates a new trailing whitespace rule.
func NewTrailingWhitespaceRule() *TrailingWhitespaceRule {
	return &TrailingWhitespaceRule{
		BaseRule: lint.NewLineRule(
			"MD009",
			"no-trailing-spaces",
			"Lines should not have trailing spaces",
			[]string{"whitespace", "fixable"},
			true,
		),
	}
}

// Apply checks for trailing whitespace on each line.
func (r *TrailingWhitespaceRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// br_spaces permits exactly N trailing spaces as a hard line break.
	brSpaces := ctx.OptionInt("br_spaces", 0)
	codeBlockLines := ctx.CodeBlockLineSet()

	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		if codeBlockLines[lineNum] {
			continue
		}

		col, length := lint.TrailingWhitespaceSpan(ctx.File, lineNum)
		if length == 0 {
			continue
		}

		// A run of exactly br_spaces spaces is an intentional line break.
		if brSpaces >= 2 && length == brSpaces && col > 1 {
			continue
		}

		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: col,
			EndLine:     lineNum,
			EndColumn:   col + length,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span, "Trailing whitespace").
			WithDetail(fmt.Sprintf("Expected: 0; Actual: %d", length)).
			WithSuggestion("Remove trailing whitespace").
			WithFix(fix.FixInfo{LineNumber: lineNum, EditColumn: col, DeleteCount: length}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// FinalNewlineRule ensures files end with a single newline.
type FinalNewlineRule struct {
	lint.BaseRule
}

// NewFinalNewlineRule creates a new final newline rule.
func NewFinalNewlineRule() *FinalNewlineRule {
	return &FinalNewlineRule{
		BaseRule: lint.NewLineRule(
			"MD047",
			"single-trailing-newline",
			"Files should end with a single newline character",
			[]string{"blank_lines", "fixable"},
			true,
		),
	}
}

// Apply checks that the file ends with exactly one newline.
func (r *FinalNewlineRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || len(ctx.File.Content) == 0 {
		return nil, nil
	}

	content := ctx.File.Content

	// Check if file ends with a newline.
	if content[len(content)-1] != '\n' {
		lastLine := ctx.LineCount()
		endCol := lint.LineLength(ctx.File, lastLine) + 1

		span := lint.Span{
			StartLine:   lastLine,
			StartColumn: endCol,
			EndLine:     lastLine,
			EndColumn:   endCol,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span, "File should end with a newline").
			WithSuggestion("Add a newline at end of file").
			WithFix(fix.FixInfo{LineNumber: lastLine, EditColumn: endCol, InsertText: "\n"}).
			Build()
		return []lint.Diagnostic{diag}, nil
	}

	// Check for excessive trailing blank lines.
	maxTrailingBlankLines := ctx.OptionInt("max_trailing_blank_lines", 1)

	// Count trailing blank lines (excluding the final newline on the last non-blank line).
	trailingBlankCount := 0
	for lineNum := ctx.LineCount(); lineNum >= 1; lineNum-- {
		if !lint.IsBlankLine(ctx.File, lineNum) {
			break
		}
		trailingBlankCount++
	}

	if trailingBlankCount > maxTrailingBlankLines {
		// Delete each excess blank line outright.
		excessCount := trailingBlankCount - maxTrailingBlankLines
		firstExcessLine := ctx.LineCount() - trailingBlankCount + maxTrailingBlankLines + 1
		lastExcessLine := firstExcessLine + excessCount - 1

		builder := fix.NewBuilder()
		for line := firstExcessLine; line <= lastExcessLine; line++ {
			builder.DeleteLine(line)
		}

		span := lint.Span{
			StartLine:   firstExcessLine,
			StartColumn: 1,
			EndLine:     lastExcessLine,
			EndColumn:   1,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
			"Too many trailing blank lines").
			WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", maxTrailingBlankLines, trailingBlankCount)).
			WithSuggestion(fmt.Sprintf("Remove %d trailing blank line(s)", excessCount)).
			WithFixes(builder).
			Build()
		return []lint.Diagnostic{diag}, nil
	}

	return nil, nil
}

// MultipleBlankLinesRule checks for consecutive blank lines.
type MultipleBlankLinesRule struct {
	lint.BaseRule
}

// NewMultipleBlankLinesRule creates a new multiple blank lines rule.
func NewMultipleBlankLinesRule() *MultipleBlankLinesRule {
	return &MultipleBlankLinesRule{
		BaseRule: lint.NewLineRule(
			"MD012",
			"no-multiple-blanks",
			"Multiple consecutive blank lines should be collapsed",
			[]string{"whitespace", "blank_lines", "fixable"},
			true,
		),
	}
}

// Apply checks for sequences of blank lines exceeding the maximum.
func (r *MultipleBlankLinesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.LineCount() == 0 {
		return nil, nil
	}

	maxConsecutive := ctx.OptionInt("maximum", 1)
	if maxConsecutive < 0 {
		maxConsecutive = 1
	}

	codeBlockLines := ctx.CodeBlockLineSet()

	var diags []lint.Diagnostic
	streakStart := 0
	streakCount := 0

	flush := func() {
		if streakCount > maxConsecutive {
			diags = append(diags, r.createDiagnostic(ctx, streakStart, streakCount, maxConsecutive))
		}
		streakCount = 0
	}

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		if lint.IsBlankLine(ctx.File, lineNum) && !codeBlockLines[lineNum] {
			if streakCount == 0 {
				streakStart = lineNum
			}
			streakCount++
		} else {
			flush()
		}
	}
	flush()

	return diags, nil
}

func (r *MultipleBlankLinesRule) createDiagnostic(
	ctx *lint.RuleContext,
	streakStart, streakCount, maxConsecutive int,
) lint.Diagnostic {
	excessCount := streakCount - maxConsecutive
	firstExcessLine := streakStart + maxConsecutive
	lastExcessLine := streakStart + streakCount - 1

	builder := fix.NewBuilder()
	for line := firstExcessLine; line <= lastExcessLine; line++ {
		builder.DeleteLine(line)
	}

	span := lint.Span{
		StartLine:   firstExcessLine,
		StartColumn: 1,
		EndLine:     lastExcessLine,
		EndColumn:   1,
	}

	return lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
		"Multiple consecutive blank lines").
		WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", maxConsecutive, streakCount)).
		WithSuggestion(fmt.Sprintf("Remove %d blank line(s)", excessCount)).
		WithFixes(builder).
		Build()
}
