package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// FirstLineHeadingRule checks that files begin with a top-level heading.
type FirstLineHeadingRule struct {
	lint.BaseRule
}

// NewFirstLineHeadingRule creates a new first line heading rule.
func NewFirstLineHeadingRule() *FirstLineHeadingRule {
	return &FirstLineHeadingRule{
		BaseRule: lint.NewBaseRule(
			"MD041",
			"first-line-heading",
			"First line in a file should be a top-level heading",
			[]string{"headings", "metadata"},
			false, // Not auto-fixable.
		),
	}
}

// Apply checks that the first content in the file is a top-level heading.
func (r *FirstLineHeadingRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || len(ctx.File.Content) == 0 {
		return nil, nil
	}

	requiredLevel := ctx.OptionInt("level", 1)
	frontMatterTitlePattern := ctx.OptionString("front_matter_title", `^\s*title\s*[:=]`)

	// Skip front matter to find first content.
	firstContentLine := r.findFirstContentLine(ctx)
	if firstContentLine < 1 {
		return nil, nil
	}

	// A front-matter title satisfies the rule.
	if frontMatterTitlePattern != "" && ctx.FrontMatterLines > 0 {
		hasTitle, err := r.checkFrontMatterTitle(ctx, frontMatterTitlePattern)
		// Invalid regex is ignored - continue with default heading check behavior.
		if err == nil && hasTitle {
			return nil, nil
		}
	}

	// Find the first block at or after the first content line.
	// This skips any front matter that goldmark may parse as blocks.
	firstBlock, ok := r.findFirstBlockAfterLine(ctx, firstContentLine)
	if !ok {
		return nil, nil
	}

	// If first block is not a heading.
	if firstBlock.Kind != mdtoken.KindHeading {
		diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, firstContentLine,
			"First line in a file should be a top-level heading").
			WithDetail(fmt.Sprintf("Expected: h%d", requiredLevel)).
			WithSuggestion(fmt.Sprintf("Add an h%d heading at the beginning", requiredLevel)).
			Build()
		return []lint.Diagnostic{diag}, nil
	}

	// Check heading level.
	level := firstBlock.HeadingLevel()
	if level != requiredLevel {
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(firstBlock),
			"First line in a file should be a top-level heading").
			WithDetail(fmt.Sprintf("Expected: h%d; Actual: h%d", requiredLevel, level)).
			WithSuggestion(fmt.Sprintf("Change to an h%d heading", requiredLevel)).
			Build()
		return []lint.Diagnostic{diag}, nil
	}

	return nil, nil
}

// findFirstBlockAfterLine finds the first block token that starts at or after the given line.
func (r *FirstLineHeadingRule) findFirstBlockAfterLine(ctx *lint.RuleContext, lineNum int) (mdtoken.Token, bool) {
	if ctx.Root == mdtoken.None {
		return mdtoken.Token{}, false
	}

	for _, childIdx := range ctx.File.Children(ctx.Root) {
		child := ctx.Token(childIdx)
		if child.StartLine >= lineNum {
			return child, true
		}
	}

	return mdtoken.Token{}, false
}

func (r *FirstLineHeadingRule) findFirstContentLine(ctx *lint.RuleContext) int {
	if ctx.LineCount() == 0 {
		return 0
	}

	start := ctx.FrontMatterLines + 1

	// Skip leading blank lines.
	for lineNum := start; lineNum <= ctx.LineCount(); lineNum++ {
		if !lint.IsBlankLine(ctx.File, lineNum) {
			return lineNum
		}
	}

	return 0
}

func (r *FirstLineHeadingRule) checkFrontMatterTitle(
	ctx *lint.RuleContext,
	pattern string,
) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid front matter title pattern: %w", err)
	}

	// Search within front matter (between the delimiter lines).
	for lineNum := 2; lineNum < ctx.FrontMatterLines; lineNum++ {
		if re.Match(lint.LineContent(ctx.File, lineNum)) {
			return true, nil
		}
	}

	return false, nil
}

// HeadingBlankLinesRule ensures headings are surrounded by blank lines.
type HeadingBlankLinesRule struct {
	lint.BaseRule
}

// NewHeadingBlankLinesRule creates a new heading blank lines rule.
func NewHeadingBlankLinesRule() *HeadingBlankLinesRule {
	return &HeadingBlankLinesRule{
		BaseRule: lint.NewBaseRule(
			"MD022",
			"blanks-around-headings",
			"Headings should be surrounded by blank lines",
			[]string{"headings", "blank_lines", "fixable"},
			true, // Auto-fixable.
		),
	}
}

// Apply checks that headings have blank lines around them.
func (r *HeadingBlankLinesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	linesAbove := ctx.OptionInt("lines_above", 1)
	linesBelow := ctx.OptionInt("lines_below", 1)

	var diags []lint.Diagnostic

	for _, idx := range ctx.Headings() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tok := ctx.Token(idx)
		if tok.StartLine < 1 {
			continue
		}

		// Check blank lines above (unless it's the first line or follows front matter).
		if tok.StartLine > 1 && tok.StartLine > ctx.FrontMatterLines+1 && linesAbove > 0 {
			blanksBefore := lint.CountBlankLinesBefore(ctx.File, tok.StartLine)
			if blanksBefore < linesAbove && !r.isPreviousLineHeading(ctx, tok.StartLine) {
				diags = append(diags, r.createBlankBeforeDiagnostic(ctx, tok, blanksBefore, linesAbove))
			}
		}

		// Check blank lines below (unless it's the last line).
		if tok.EndLine < ctx.LineCount() && linesBelow > 0 {
			blanksAfter := lint.CountBlankLinesAfter(ctx.File, tok.EndLine)
			if blanksAfter < linesBelow && !r.isNextLineHeading(ctx, tok.EndLine) {
				diags = append(diags, r.createBlankAfterDiagnostic(ctx, tok, blanksAfter, linesBelow))
			}
		}
	}

	return diags, nil
}

func (r *HeadingBlankLinesRule) isPreviousLineHeading(ctx *lint.RuleContext, lineNum int) bool {
	if lineNum <= 1 {
		return false
	}

	// Find the previous non-blank line.
	for ln := lineNum - 1; ln >= 1; ln-- {
		if lint.IsBlankLine(ctx.File, ln) {
			continue
		}

		// Check if any heading ends on this line.
		for _, idx := range ctx.Headings() {
			if ctx.Token(idx).EndLine == ln {
				return true
			}
		}
		return false
	}

	return false
}

func (r *HeadingBlankLinesRule) isNextLineHeading(ctx *lint.RuleContext, lineNum int) bool {
	if lineNum >= ctx.LineCount() {
		return false
	}

	// Find the next non-blank line.
	for ln := lineNum + 1; ln <= ctx.LineCount(); ln++ {
		if lint.IsBlankLine(ctx.File, ln) {
			continue
		}

		// Check if any heading starts on this line.
		for _, idx := range ctx.Headings() {
			if ctx.Token(idx).StartLine == ln {
				return true
			}
		}
		return false
	}

	return false
}

func (r *HeadingBlankLinesRule) createBlankBeforeDiagnostic(
	ctx *lint.RuleContext,
	tok mdtoken.Token,
	current, required int,
) lint.Diagnostic {
	blanksNeeded := required - current

	return lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
		"Headings should be surrounded by blank lines").
		WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", required, current)).
		WithContext(tok.Text).
		WithSuggestion(fmt.Sprintf("Add %d blank line(s) before the heading", blanksNeeded)).
		WithFix(fix.FixInfo{
			LineNumber: tok.StartLine,
			EditColumn: 1,
			InsertText: strings.Repeat("\n", blanksNeeded),
		}).
		Build()
}

func (r *HeadingBlankLinesRule) createBlankAfterDiagnostic(
	ctx *lint.RuleContext,
	tok mdtoken.Token,
	current, required int,
) lint.Diagnostic {
	blanksNeeded := required - current
	endCol := lint.LineLength(ctx.File, tok.EndLine) + 1

	return lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
		"Headings should be surrounded by blank lines").
		WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", required, current)).
		WithContext(tok.Text).
		WithSuggestion(fmt.Sprintf("Add %d blank line(s) after the heading", blanksNeeded)).
		WithFix(fix.FixInfo{
			LineNumber: tok.EndLine,
			EditColumn: endCol,
			InsertText: strings.Repeat("\n", blanksNeeded),
		}).
		Build()
}

// RequiredHeadingsRule checks that document follows required heading structure.
type RequiredHeadingsRule struct {
	lint.BaseRule
}

// NewRequiredHeadingsRule creates a new required headings rule.
func NewRequiredHeadingsRule() *RequiredHeadingsRule {
	return &RequiredHeadingsRule{
		BaseRule: lint.NewBaseRule(
			"MD043",
			"required-headings",
			"Required heading structure",
			[]string{"headings"},
			false, // Not auto-fixable.
		),
	}
}

// DefaultEnabled returns false - this rule requires configuration.
func (r *RequiredHeadingsRule) DefaultEnabled() bool {
	return false
}

// Apply checks document heading structure against required pattern.
func (r *RequiredHeadingsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	requiredHeadings := r.getRequiredHeadings(ctx)
	if len(requiredHeadings) == 0 {
		return nil, nil
	}

	matchCase := ctx.OptionBool("match_case", false)
	headings := ctx.Headings()
	actualHeadings := r.buildActualHeadings(ctx, headings)

	return r.matchHeadings(ctx, headings, actualHeadings, requiredHeadings, matchCase)
}

func (r *RequiredHeadingsRule) getRequiredHeadings(ctx *lint.RuleContext) []string {
	headingsOption := ctx.Option("headings", nil)
	if headingsOption == nil {
		return nil
	}

	switch h := headingsOption.(type) {
	case []string:
		return h
	case []interface{}:
		var result []string
		for _, item := range h {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

func (r *RequiredHeadingsRule) buildActualHeadings(ctx *lint.RuleContext, headings []int) []string {
	result := make([]string, 0, len(headings))
	for _, idx := range headings {
		tok := ctx.Token(idx)
		result = append(result, fmt.Sprintf("%s %s", strings.Repeat("#", tok.HeadingLevel()), tok.Text))
	}
	return result
}

func (r *RequiredHeadingsRule) matchHeadings(
	ctx *lint.RuleContext,
	headings []int,
	actualHeadings, requiredHeadings []string,
	matchCase bool,
) ([]lint.Diagnostic, error) {
	reqIdx, actIdx := 0, 0

	for reqIdx < len(requiredHeadings) && actIdx < len(actualHeadings) {
		required := requiredHeadings[reqIdx]

		switch required {
		case "*", "+":
			reqIdx, actIdx = r.handleWildcard(required, reqIdx, actIdx, actualHeadings, requiredHeadings, matchCase)
		case "?":
			actIdx++
			reqIdx++
		default:
			if r.headingMatches(actualHeadings[actIdx], required, matchCase) {
				actIdx++
				reqIdx++
				continue
			}
			return r.createMismatchDiagnostic(ctx, headings, actualHeadings, required, actIdx), nil
		}
	}

	return r.checkRemainingRequired(ctx, requiredHeadings, reqIdx)
}

func (r *RequiredHeadingsRule) handleWildcard(
	pattern string,
	reqIdx, actIdx int,
	actualHeadings, requiredHeadings []string,
	matchCase bool,
) (int, int) {
	if pattern == "+" {
		actIdx++ // Must match at least one
	}
	reqIdx++

	if reqIdx >= len(requiredHeadings) {
		return reqIdx, len(actualHeadings)
	}

	nextRequired := requiredHeadings[reqIdx]
	for actIdx < len(actualHeadings) {
		if r.headingMatches(actualHeadings[actIdx], nextRequired, matchCase) {
			break
		}
		actIdx++
	}
	return reqIdx, actIdx
}

func (r *RequiredHeadingsRule) createMismatchDiagnostic(
	ctx *lint.RuleContext,
	headings []int,
	actualHeadings []string,
	required string,
	actIdx int,
) []lint.Diagnostic {
	span := r.getSpanForIndex(ctx, headings, actIdx)

	diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
		"Required heading structure").
		WithDetail(r.getMismatchDetail(actualHeadings, required, actIdx)).
		WithSuggestion("Update heading to match required structure").
		Build()
	return []lint.Diagnostic{diag}
}

func (r *RequiredHeadingsRule) getSpanForIndex(
	ctx *lint.RuleContext,
	headings []int,
	actIdx int,
) lint.Span {
	if actIdx < len(headings) {
		return lint.TokenSpan(ctx.Token(headings[actIdx]))
	}
	last := ctx.LineCount()
	return lint.Span{StartLine: last, StartColumn: 1, EndLine: last, EndColumn: 1}
}

func (r *RequiredHeadingsRule) getMismatchDetail(actualHeadings []string, required string, actIdx int) string {
	if actIdx < len(actualHeadings) {
		return fmt.Sprintf("Expected: %s; Actual: %s", required, actualHeadings[actIdx])
	}
	return fmt.Sprintf("Missing heading: %s", required)
}

func (r *RequiredHeadingsRule) checkRemainingRequired(
	ctx *lint.RuleContext,
	requiredHeadings []string,
	reqIdx int,
) ([]lint.Diagnostic, error) {
	for reqIdx < len(requiredHeadings) {
		required := requiredHeadings[reqIdx]
		if required != "*" && required != "+" && required != "?" {
			last := ctx.LineCount()
			diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, last,
				"Required heading structure").
				WithDetail(fmt.Sprintf("Missing heading: %s", required)).
				WithSuggestion("Add required heading").
				Build()
			return []lint.Diagnostic{diag}, nil
		}
		reqIdx++
	}
	return nil, nil
}

func (r *RequiredHeadingsRule) headingMatches(actual, required string, matchCase bool) bool {
	if matchCase {
		return actual == required
	}
	return strings.EqualFold(actual, required)
}

// ProperNamesRule checks for correct capitalization of proper names.
type ProperNamesRule struct {
	lint.BaseRule
}

// NewProperNamesRule creates a new proper names rule.
func NewProperNamesRule() *ProperNamesRule {
	return &ProperNamesRule{
		BaseRule: lint.NewBaseRule(
			"MD044",
			"proper-names",
			"Proper names should have the correct capitalization",
			[]string{"spelling", "fixable"},
			true, // Auto-fixable.
		),
	}
}

// DefaultEnabled returns false - this rule requires configuration.
func (r *ProperNamesRule) DefaultEnabled() bool {
	return false
}

// Apply checks for incorrect capitalization of proper names.
func (r *ProperNamesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Get proper names configuration
	namesOption := ctx.Option("names", nil)
	if namesOption == nil {
		return nil, nil // No names configured
	}

	var properNames []string
	switch n := namesOption.(type) {
	case []string:
		properNames = n
	case []interface{}:
		for _, item := range n {
			if s, ok := item.(string); ok {
				properNames = append(properNames, s)
			}
		}
	}

	if len(properNames) == 0 {
		return nil, nil
	}

	includeCodeBlocks := ctx.OptionBool("code_blocks", true)
	includeHTMLElements := ctx.OptionBool("html_elements", true)

	var diags []lint.Diagnostic

	// Build patterns for each proper name
	type namePattern struct {
		correct string
		pattern *regexp.Regexp
	}
	patterns := make([]namePattern, 0, len(properNames))

	for _, name := range properNames {
		// Create case-insensitive pattern that matches whole words
		escaped := regexp.QuoteMeta(name)
		pattern, err := regexp.Compile(`(?i)\b` + escaped + `\b`)
		if err != nil {
			continue
		}
		patterns = append(patterns, namePattern{correct: name, pattern: pattern})
	}

	// Check each line
	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		// Skip code blocks if configured
		if !includeCodeBlocks && ctx.IsLineInCodeBlock(lineNum) {
			continue
		}

		// Skip HTML if configured
		if !includeHTMLElements && r.isLineInHTML(ctx, lineNum) {
			continue
		}

		lineContent := lint.LineContent(ctx.File, lineNum)

		for _, np := range patterns {
			matches := np.pattern.FindAllIndex(lineContent, -1)
			for _, match := range matches {
				found := string(lineContent[match[0]:match[1]])

				// Skip if already correct
				if found == np.correct {
					continue
				}

				startCol := lint.ColumnOf(lineContent, match[0])
				endCol := lint.ColumnOf(lineContent, match[1])

				span := lint.Span{
					StartLine:   lineNum,
					StartColumn: startCol,
					EndLine:     lineNum,
					EndColumn:   endCol,
				}

				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
					"Proper names should have the correct capitalization").
					WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", np.correct, found)).
					WithSuggestion(fmt.Sprintf("Use %q", np.correct)).
					WithFix(fix.FixInfo{
						LineNumber:  lineNum,
						EditColumn:  startCol,
						DeleteCount: endCol - startCol,
						InsertText:  np.correct,
					}).
					Build()
				diags = append(diags, diag)
			}
		}
	}

	return diags, nil
}

func (r *ProperNamesRule) isLineInHTML(ctx *lint.RuleContext, lineNum int) bool {
	for _, idx := range ctx.HTMLBlocks() {
		tok := ctx.Token(idx)
		if tok.StartLine >= 1 && lineNum >= tok.StartLine && lineNum <= tok.EndLine {
			return true
		}
	}
	return false
}
