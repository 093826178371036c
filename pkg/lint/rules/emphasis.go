package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// NoEmphasisAsHeadingRule checks for emphasis used instead of headings.
type NoEmphasisAsHeadingRule struct {
	lint.BaseRule
}

// NewNoEmphasisAsHeadingRule creates a new no-emphasis-as-heading rule.
func NewNoEmphasisAsHeadingRule() *NoEmphasisAsHeadingRule {
	return &NoEmphasisAsHeadingRule{
		BaseRule: lint.NewBaseRule(
			"MD036",
			"no-emphasis-as-heading",
			"Emphasis used instead of a heading",
			[]string{"emphasis", "headings", "fixable"},
			true, // Auto-fixable - infers heading level from context.
		),
	}
}

// defaultEmphasisPunctuation is the default punctuation that indicates emphasis is not a heading.
const defaultEmphasisPunctuation = ".,;:!?"

// Apply checks for emphasis used instead of headings.
func (r *NoEmphasisAsHeadingRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	punctuation := ctx.OptionString("punctuation", defaultEmphasisPunctuation)

	var diags []lint.Diagnostic

	for _, paraIdx := range ctx.Paragraphs() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		para := ctx.Token(paraIdx)

		// Check if this paragraph is just a single emphasized element.
		childIdx, ok := emphasisOnlyChild(ctx.File, paraIdx)
		if !ok {
			continue
		}

		// Get the text content.
		text := para.Text
		if text == "" {
			continue
		}

		// Check if it ends with punctuation.
		runes := []rune(text)
		if strings.ContainsRune(punctuation, runes[len(runes)-1]) {
			continue
		}

		// Only autofix bold paragraphs, not italic ones.
		child := ctx.Token(childIdx)
		isBold := child.Kind == mdtoken.KindStrong

		diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(para),
			"Emphasis used instead of a heading").
			WithContext(text).
			WithSuggestion("Use a heading instead of emphasis for section titles")

		if isBold && para.StartLine >= 1 && para.StartLine == para.EndLine {
			level := r.inferHeadingLevel(ctx, para)
			diagBuilder = diagBuilder.WithFix(fix.FixInfo{
				LineNumber:  para.StartLine,
				EditColumn:  1,
				DeleteCount: fix.DeleteToEndOfLine,
				InsertText:  strings.Repeat("#", level) + " " + child.Text,
			})
		}

		diags = append(diags, diagBuilder.Build())
	}

	return diags, nil
}

// emphasisOnlyChild returns the single emphasis/strong child of a paragraph,
// or ok=false when the paragraph holds anything else.
func emphasisOnlyChild(file *mdtoken.Snapshot, paraIdx int) (int, bool) {
	children := file.Children(paraIdx)
	if len(children) != 1 {
		return mdtoken.None, false
	}
	kind := file.Token(children[0]).Kind
	if kind != mdtoken.KindEmphasis && kind != mdtoken.KindStrong {
		return mdtoken.None, false
	}
	return children[0], true
}

// inferHeadingLevel determines the appropriate heading level for an emphasis paragraph.
// It scans backwards from the paragraph to find the nearest preceding heading,
// returns that heading's level + 1, caps at H6, and defaults to H2 if no heading found.
func (r *NoEmphasisAsHeadingRule) inferHeadingLevel(ctx *lint.RuleContext, para mdtoken.Token) int {
	const (
		defaultLevel = 2
		maxLevel     = 6
	)

	if para.StartLine < 1 {
		return defaultLevel
	}

	// Find the nearest heading that appears before this paragraph.
	nearestLevel := 0
	nearestLine := 0

	for _, idx := range ctx.Headings() {
		heading := ctx.Token(idx)
		if heading.StartLine < para.StartLine && heading.StartLine > nearestLine {
			nearestLine = heading.StartLine
			nearestLevel = heading.HeadingLevel()
		}
	}

	if nearestLevel == 0 {
		return defaultLevel
	}

	level := nearestLevel + 1
	if level > maxLevel {
		level = maxLevel
	}

	return level
}

// NoSpaceInEmphasisRule checks for spaces inside emphasis markers.
type NoSpaceInEmphasisRule struct {
	lint.BaseRule
}

// NewNoSpaceInEmphasisRule creates a new no-space-in-emphasis rule.
func NewNoSpaceInEmphasisRule() *NoSpaceInEmphasisRule {
	return &NoSpaceInEmphasisRule{
		BaseRule: lint.NewLineRule(
			"MD037",
			"no-space-in-emphasis",
			"Spaces inside emphasis markers",
			[]string{"emphasis", "whitespace", "fixable"},
			true,
		),
	}
}

// emphasisSpacePattern matches emphasis with spaces inside.
var emphasisSpacePattern = regexp.MustCompile(`(\*{1,2}|_{1,2})\s+([^*_]+)\s+(\*{1,2}|_{1,2})`)

// emphasisSpaceMatchGroups is the minimum submatch indices for the emphasisSpacePattern.
const emphasisSpaceMatchGroups = 8

// Apply checks for spaces inside emphasis markers.
func (r *NoSpaceInEmphasisRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	codeBlockLines := ctx.CodeBlockLineSet()
	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		// Skip lines in code blocks.
		if codeBlockLines[lineNum] {
			continue
		}

		lineContent := lint.LineContent(ctx.File, lineNum)
		matches := emphasisSpacePattern.FindAllSubmatchIndex(lineContent, -1)

		for _, match := range matches {
			if len(match) < emphasisSpaceMatchGroups {
				continue
			}

			// Extract the matched groups.
			start, end := match[0], match[1]
			openMarker := string(lineContent[match[2]:match[3]])
			content := string(lineContent[match[4]:match[5]])
			closeMarker := string(lineContent[match[6]:match[7]])

			// Markers should match.
			if openMarker != closeMarker {
				continue
			}

			startCol := lint.ColumnOf(lineContent, start)
			endCol := lint.ColumnOf(lineContent, end)

			span := lint.Span{
				StartLine:   lineNum,
				StartColumn: startCol,
				EndLine:     lineNum,
				EndColumn:   endCol,
			}

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
				"Spaces inside emphasis markers").
				WithContext(string(lineContent[start:end])).
				WithSuggestion("Remove spaces from inside emphasis markers").
				WithFix(fix.FixInfo{
					LineNumber:  lineNum,
					EditColumn:  startCol,
					DeleteCount: endCol - startCol,
					InsertText:  openMarker + strings.TrimSpace(content) + closeMarker,
				}).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// EmphasisStyleRule checks for consistent emphasis style.
type EmphasisStyleRule struct {
	lint.BaseRule
}

// NewEmphasisStyleRule creates a new emphasis-style rule.
func NewEmphasisStyleRule() *EmphasisStyleRule {
	return &EmphasisStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD049",
			"emphasis-style",
			"Emphasis style should be consistent",
			[]string{"emphasis", "fixable"},
			true,
		),
	}
}

// Apply checks for consistent emphasis style.
func (r *EmphasisStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	return checkMarkerStyle(ctx, r.ID(), ctx.EmphasisTokens(), 1,
		"Emphasis style should be consistent")
}

// StrongStyleRule checks for consistent strong (bold) style.
type StrongStyleRule struct {
	lint.BaseRule
}

// NewStrongStyleRule creates a new strong-style rule.
func NewStrongStyleRule() *StrongStyleRule {
	return &StrongStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD050",
			"strong-style",
			"Strong style should be consistent",
			[]string{"emphasis", "fixable"},
			true,
		),
	}
}

// Apply checks for consistent strong style.
func (r *StrongStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	return checkMarkerStyle(ctx, r.ID(), ctx.StrongTokens(), 2,
		"Strong style should be consistent")
}

// checkMarkerStyle enforces a consistent marker character ('*' vs '_') for
// emphasis or strong tokens. markerLen is 1 for emphasis and 2 for strong.
func checkMarkerStyle(
	ctx *lint.RuleContext,
	ruleID string,
	tokens []int,
	markerLen int,
	message string,
) ([]lint.Diagnostic, error) {
	configStyle := ctx.OptionString("style", "consistent")

	var expectedStyle string
	if configStyle != "consistent" {
		expectedStyle = configStyle
	}

	var diags []lint.Diagnostic

	for _, idx := range tokens {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tok := ctx.Token(idx)
		style, markerCol := detectMarkerStyle(ctx.File, tok, markerLen)
		if style == "" {
			continue
		}

		// Set expected style from first occurrence.
		if expectedStyle == "" {
			expectedStyle = style
			continue
		}

		if style == expectedStyle {
			continue
		}

		marker := strings.Repeat(markerChar(expectedStyle), markerLen)

		builder := fix.NewBuilder()
		// Rewrite the opening marker and, when it sits on the same line
		// directly after the content, the closing marker too.
		builder.Replace(tok.StartLine, markerCol, markerLen, marker)
		if tok.EndLine == tok.StartLine {
			lineContent := lint.LineContent(ctx.File, tok.StartLine)
			closeByte := tok.EndColumn - 1
			if closeByte >= 0 && closeByte+markerLen <= len(lineContent) {
				builder.Replace(tok.StartLine, lint.ColumnOf(lineContent, closeByte), markerLen, marker)
			}
		}

		diag := lint.NewDiagnosticAt(ruleID, ctx.File.Path, lint.TokenSpan(tok), message).
			WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", expectedStyle, style)).
			WithSuggestion(fmt.Sprintf("Use %s for all %s", expectedStyle, styleNoun(markerLen))).
			WithFixes(builder).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// detectMarkerStyle inspects the characters immediately before the token's
// content to identify the marker, returning the style name and the marker's
// 1-based column.
func detectMarkerStyle(file *mdtoken.Snapshot, tok mdtoken.Token, markerLen int) (string, int) {
	if tok.StartLine < 1 || tok.StartLine > file.Lines.Count() {
		return "", 0
	}
	lineContent := lint.LineContent(file, tok.StartLine)

	// Token positions cover the content; the markers precede it.
	markerByte := tok.StartColumn - 1 - markerLen
	if markerByte < 0 || markerByte >= len(lineContent) {
		return "", 0
	}

	switch lineContent[markerByte] {
	case '*':
		return "asterisk", lint.ColumnOf(lineContent, markerByte)
	case '_':
		return "underscore", lint.ColumnOf(lineContent, markerByte)
	default:
		return "", 0
	}
}

func markerChar(style string) string {
	if style == "underscore" {
		return "_"
	}
	return "*"
}

func styleNoun(markerLen int) string {
	if markerLen == 2 {
		return "strong emphasis"
	}
	return "emphasis"
}
