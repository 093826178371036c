package rules

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// HeadingIncrementRule checks that heading levels increment by one.
type HeadingIncrementRule struct {
	lint.BaseRule
}

// NewHeadingIncrementRule creates a new heading increment rule.
func NewHeadingIncrementRule() *HeadingIncrementRule {
	return &HeadingIncrementRule{
		BaseRule: lint.NewBaseRule(
			"MD001",
			"heading-increment",
			"Heading levels should only increment by one level at a time",
			[]string{"headings"},
			false,
		),
	}
}

// Apply checks that heading levels increment by at most one.
func (r *HeadingIncrementRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	headings := ctx.Headings()
	if len(headings) == 0 {
		return nil, nil
	}

	var diags []lint.Diagnostic
	var prevLevel int

	// A front-matter title acts as an implicit h1 when configured.
	if ctx.OptionBool("front_matter_title", true) {
		if _, ok := lint.FrontMatterField(ctx.File.Content, "title"); ok {
			prevLevel = 1
		}
	}

	for _, idx := range headings {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		tok := ctx.Token(idx)
		level := tok.HeadingLevel()
		if level == 0 {
			continue
		}

		// First heading can be any level.
		if prevLevel > 0 && level > prevLevel+1 {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
				"Heading levels should only increment by one level at a time").
				WithDetail(fmt.Sprintf("Expected: h%d; Actual: h%d", prevLevel+1, level)).
				WithSuggestion(fmt.Sprintf("Use h%d instead", prevLevel+1)).
				Build()
			diags = append(diags, diag)
		}

		prevLevel = level
	}

	return diags, nil
}

// SingleH1Rule checks that there is at most one H1 heading.
type SingleH1Rule struct {
	lint.BaseRule
}

// NewSingleH1Rule creates a new single H1 rule.
func NewSingleH1Rule() *SingleH1Rule {
	return &SingleH1Rule{
		BaseRule: lint.NewBaseRule(
			"MD025",
			"single-h1",
			"Multiple top-level headings in the same document",
			[]string{"headings"},
			false,
		),
	}
}

// Apply checks that there is at most one H1 heading.
func (r *SingleH1Rule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	allowNoH1 := ctx.OptionBool("allow_no_h1", true)
	level := ctx.OptionInt("level", 1)

	// A front-matter title counts as the document's top-level heading.
	frontMatterTitle := false
	if ctx.OptionBool("front_matter_title", true) {
		_, frontMatterTitle = lint.FrontMatterField(ctx.File.Content, "title")
	}

	var topHeadings []int
	for _, idx := range ctx.Headings() {
		if ctx.Cancelled() {
			return nil, ctx.Ctx.Err()
		}

		if ctx.Token(idx).HeadingLevel() == level {
			topHeadings = append(topHeadings, idx)
		}
	}

	var diags []lint.Diagnostic

	// Check for missing H1.
	if !allowNoH1 && !frontMatterTitle && len(topHeadings) == 0 {
		diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, 1,
			"Document should have a top-level heading").
			WithSuggestion("Add an H1 heading at the beginning of the document").
			Build()
		diags = append(diags, diag)
	}

	// Flag all top-level headings after the first (or all of them when the
	// front matter already supplies the title).
	firstExtra := 1
	if frontMatterTitle {
		firstExtra = 0
	}
	for i := firstExtra; i < len(topHeadings); i++ {
		tok := ctx.Token(topHeadings[i])
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
			"Multiple top-level headings in the same document").
			WithContext(tok.Text).
			WithSuggestion("Use a lower heading level for subsequent headings").
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// HeadingStyleRule enforces consistent heading style.
type HeadingStyleRule struct {
	lint.BaseRule
}

// NewHeadingStyleRule creates a new heading style rule.
func NewHeadingStyleRule() *HeadingStyleRule {
	return &HeadingStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD003",
			"heading-style",
			"Heading style should be consistent",
			[]string{"headings", "style", "fixable"},
			true,
		),
	}
}

// HeadingStyle represents the style of a heading.
type HeadingStyle string

const (
	// StyleATX is the ATX style (# Heading).
	StyleATX HeadingStyle = "atx"
	// StyleATXClosed is the ATX style with closing hashes (# Heading #).
	StyleATXClosed HeadingStyle = "atx_closed"
	// StyleSetext is the setext style (underlined).
	StyleSetext HeadingStyle = "setext"
	// StyleConsistent means use whatever style is first encountered.
	StyleConsistent HeadingStyle = "consistent"
)

// Apply checks that all headings use a consistent style.
func (r *HeadingStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := HeadingStyle(ctx.OptionString("style", string(StyleConsistent)))

	// In consistent mode the first heading pins the style; an explicit
	// configured style overrides it.
	effectiveStyle := configStyle
	if configStyle == StyleConsistent {
		effectiveStyle = ""
	}

	var diags []lint.Diagnostic

	for _, idx := range ctx.Headings() {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		tok := ctx.Token(idx)
		detectedStyle := detectHeadingStyle(ctx.File, tok)
		if detectedStyle == "" {
			continue
		}

		// Set consistent style from first heading.
		if effectiveStyle == "" {
			effectiveStyle = detectedStyle
			continue
		}

		if detectedStyle != effectiveStyle {
			diags = append(diags, r.createStyleDiagnostic(ctx, tok, detectedStyle, effectiveStyle))
		}
	}

	return diags, nil
}

func (r *HeadingStyleRule) createStyleDiagnostic(
	ctx *lint.RuleContext,
	tok mdtoken.Token,
	detected, expected HeadingStyle,
) lint.Diagnostic {
	builder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
		"Heading style").
		WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", expected, detected)).
		WithSuggestion(fmt.Sprintf("Use %s style headings", expected))

	// Only auto-fix ATX style changes (not setext conversions).
	if canAutoFix(detected, expected) {
		if f, ok := buildHeadingStyleFix(ctx.File, tok, detected, expected); ok {
			builder = builder.WithFix(f)
		}
	}

	return builder.Build()
}

// detectHeadingStyle determines the style of a heading from its source.
func detectHeadingStyle(file *mdtoken.Snapshot, tok mdtoken.Token) HeadingStyle {
	if file == nil || tok.StartLine < 1 || tok.StartLine > file.Lines.Count() {
		return ""
	}

	if tok.IsSetext() {
		return StyleSetext
	}

	lineContent := lint.LineContent(file, tok.StartLine)
	if len(lineContent) == 0 {
		return ""
	}

	// Check if it starts with # (ATX style).
	trimmed := bytes.TrimLeft(lineContent, " \t")
	if len(trimmed) > 0 && trimmed[0] == '#' {
		// Check if it ends with # (closed ATX).
		trimmedLine := bytes.TrimSpace(lineContent)
		if len(trimmedLine) > 1 && trimmedLine[len(trimmedLine)-1] == '#' {
			// Find the content between opening and closing #s.
			afterOpen := bytes.TrimLeft(trimmedLine, "#")
			afterOpen = bytes.TrimLeft(afterOpen, " \t")
			beforeClose := bytes.TrimRight(afterOpen, "#")
			beforeClose = bytes.TrimRight(beforeClose, " \t")
			// If there's content between, it's closed style.
			if len(beforeClose) > 0 {
				return StyleATXClosed
			}
		}
		return StyleATX
	}

	// Check for setext style (heading followed by === or ---).
	if tok.EndLine > tok.StartLine && tok.EndLine <= file.Lines.Count() {
		underline := bytes.TrimSpace(lint.LineContent(file, tok.EndLine))
		if len(underline) > 0 && (allSameChar(underline, '=') || allSameChar(underline, '-')) {
			return StyleSetext
		}
	}

	// Default to ATX if we can't determine.
	return StyleATX
}

// allSameChar returns true if all bytes in b are the same as c.
func allSameChar(b []byte, c byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, ch := range b {
		if ch != c {
			return false
		}
	}
	return true
}

// canAutoFix returns true if we can auto-fix between these styles.
func canAutoFix(from, to HeadingStyle) bool {
	// Only fix ATX <-> ATX_closed, not setext conversions.
	if from == StyleSetext || to == StyleSetext {
		return false
	}
	return true
}

// buildHeadingStyleFix creates an edit replacing the heading line with the
// requested style.
func buildHeadingStyleFix(
	file *mdtoken.Snapshot,
	tok mdtoken.Token,
	from, to HeadingStyle,
) (fix.FixInfo, bool) {
	if file == nil || tok.StartLine < 1 || tok.StartLine > file.Lines.Count() {
		return fix.FixInfo{}, false
	}

	lineContent := lint.LineContent(file, tok.StartLine)
	level := tok.HeadingLevel()
	if level == 0 {
		return fix.FixInfo{}, false
	}

	// Extract heading text (content without markers).
	headingText := stripHeadingMarkers(lineContent, from)

	// Build new heading.
	var newHeading string
	if to == StyleATXClosed {
		newHeading = fmt.Sprintf("%s %s %s", strings.Repeat("#", level), headingText, strings.Repeat("#", level))
	} else {
		newHeading = fmt.Sprintf("%s %s", strings.Repeat("#", level), headingText)
	}

	return fix.FixInfo{
		LineNumber:  tok.StartLine,
		EditColumn:  1,
		DeleteCount: fix.DeleteToEndOfLine,
		InsertText:  newHeading,
	}, true
}

// stripHeadingMarkers extracts the text content from a heading line.
func stripHeadingMarkers(lineContent []byte, style HeadingStyle) string {
	content := string(bytes.TrimSpace(lineContent))

	// Remove leading #s.
	content = strings.TrimLeft(content, "#")
	content = strings.TrimLeft(content, " \t")

	// Remove trailing #s if present.
	if style == StyleATXClosed {
		content = strings.TrimRight(content, "#")
		content = strings.TrimRight(content, " \t")
	}

	return content
}
