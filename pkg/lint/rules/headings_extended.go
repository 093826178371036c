package rules

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// NoMissingSpaceATXRule checks for missing space after hash on ATX headings.
type NoMissingSpaceATXRule struct {
	lint.BaseRule
}

// NewNoMissingSpaceATXRule creates a new no-missing-space-atx rule.
func NewNoMissingSpaceATXRule() *NoMissingSpaceATXRule {
	return &NoMissingSpaceATXRule{
		BaseRule: lint.NewLineRule(
			"MD018",
			"no-missing-space-atx",
			"No space after hash on ATX style heading",
			[]string{"atx", "headings", "spaces", "fixable"},
			true,
		),
	}
}

// atxHeadingNoSpacePattern matches ATX headings without space after hashes.
// Matches: #Heading, ##Heading, etc. (no space after #).
var atxHeadingNoSpacePattern = regexp.MustCompile(`^(#{1,6})([^#\s])`)

// Apply checks for missing space after hash on ATX headings.
func (r *NoMissingSpaceATXRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

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
		trimmed := bytes.TrimLeft(lineContent, " \t")

		match := atxHeadingNoSpacePattern.FindSubmatch(trimmed)
		if match == nil {
			continue
		}

		hashStart := len(lineContent) - len(trimmed)
		hashCount := len(match[1])
		startCol := lint.ColumnOf(lineContent, hashStart)

		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: startCol,
			EndLine:     lineNum,
			EndColumn:   startCol + hashCount + 1,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
			"No space after hash on ATX style heading").
			WithContext(string(trimmed)).
			WithSuggestion("Add a space after the hash characters").
			WithFix(fix.FixInfo{LineNumber: lineNum, EditColumn: startCol + hashCount, InsertText: " "}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// NoMultipleSpaceATXRule checks for multiple spaces after hash on ATX headings.
type NoMultipleSpaceATXRule struct {
	lint.BaseRule
}

// NewNoMultipleSpaceATXRule creates a new no-multiple-space-atx rule.
func NewNoMultipleSpaceATXRule() *NoMultipleSpaceATXRule {
	return &NoMultipleSpaceATXRule{
		BaseRule: lint.NewLineRule(
			"MD019",
			"no-multiple-space-atx",
			"Multiple spaces after hash on ATX style heading",
			[]string{"atx", "headings", "spaces", "fixable"},
			true,
		),
	}
}

// atxHeadingMultiSpacePattern matches ATX headings with multiple spaces after hashes.
var atxHeadingMultiSpacePattern = regexp.MustCompile(`^(#{1,6})([ \t]{2,})(\S)`)

// Apply checks for multiple spaces after hash on ATX headings.
func (r *NoMultipleSpaceATXRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

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
		trimmed := bytes.TrimLeft(lineContent, " \t")

		match := atxHeadingMultiSpacePattern.FindSubmatch(trimmed)
		if match == nil {
			continue
		}

		hashStart := len(lineContent) - len(trimmed)
		hashCount := len(match[1])
		spaceCount := len(match[2])
		spaceCol := lint.ColumnOf(lineContent, hashStart) + hashCount

		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: spaceCol,
			EndLine:     lineNum,
			EndColumn:   spaceCol + spaceCount,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
			"Multiple spaces after hash on ATX style heading").
			WithDetail(fmt.Sprintf("Expected: 1; Actual: %d", spaceCount)).
			WithSuggestion("Use a single space after the hash characters").
			WithFix(fix.FixInfo{LineNumber: lineNum, EditColumn: spaceCol, DeleteCount: spaceCount, InsertText: " "}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// NoMissingSpaceClosedATXRule checks for missing space inside hashes on closed ATX headings.
type NoMissingSpaceClosedATXRule struct {
	lint.BaseRule
}

// NewNoMissingSpaceClosedATXRule creates a new no-missing-space-closed-atx rule.
func NewNoMissingSpaceClosedATXRule() *NoMissingSpaceClosedATXRule {
	return &NoMissingSpaceClosedATXRule{
		BaseRule: lint.NewLineRule(
			"MD020",
			"no-missing-space-closed-atx",
			"No space inside hashes on closed ATX style heading",
			[]string{"atx_closed", "headings", "spaces", "fixable"},
			true,
		),
	}
}

// closedATXPattern matches closed ATX headings.
var closedATXPattern = regexp.MustCompile(`^(#{1,6})(.+?)(#{1,6})\s*$`)

// Apply checks for missing space inside hashes on closed ATX headings.
func (r *NoMissingSpaceClosedATXRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

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
		trimmed := bytes.TrimLeft(lineContent, " \t")

		match := closedATXPattern.FindSubmatch(trimmed)
		if match == nil {
			continue
		}

		openHashes := match[1]
		content := match[2]
		closeHashes := match[3]

		// Check if there's no space at the beginning of content.
		missingOpenSpace := len(content) > 0 && content[0] != ' ' && content[0] != '\t'
		// Check if there's no space at the end of content.
		missingCloseSpace := len(content) > 0 && content[len(content)-1] != ' ' && content[len(content)-1] != '\t'

		if !missingOpenSpace && !missingCloseSpace {
			continue
		}

		hashStart := len(lineContent) - len(trimmed)
		startCol := lint.ColumnOf(lineContent, hashStart)
		contentCol := startCol + len(openHashes)
		contentChars := utf8.RuneCount(content)

		var newContent string
		switch {
		case missingOpenSpace && missingCloseSpace:
			newContent = " " + strings.TrimSpace(string(content)) + " "
		case missingOpenSpace:
			newContent = " " + string(content)
		default:
			newContent = string(content) + " "
		}

		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: startCol,
			EndLine:     lineNum,
			EndColumn:   contentCol + contentChars + len(closeHashes),
		}

		var msg string
		switch {
		case missingOpenSpace && missingCloseSpace:
			msg = "No space inside hashes on closed ATX style heading (both sides)"
		case missingOpenSpace:
			msg = "No space after opening hashes on closed ATX style heading"
		default:
			msg = "No space before closing hashes on closed ATX style heading"
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span, msg).
			WithContext(string(trimmed)).
			WithSuggestion("Add spaces inside the hash characters").
			WithFix(fix.FixInfo{
				LineNumber:  lineNum,
				EditColumn:  contentCol,
				DeleteCount: contentChars,
				InsertText:  newContent,
			}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// NoMultipleSpaceClosedATXRule checks for multiple spaces inside hashes on closed ATX headings.
type NoMultipleSpaceClosedATXRule struct {
	lint.BaseRule
}

// NewNoMultipleSpaceClosedATXRule creates a new no-multiple-space-closed-atx rule.
func NewNoMultipleSpaceClosedATXRule() *NoMultipleSpaceClosedATXRule {
	return &NoMultipleSpaceClosedATXRule{
		BaseRule: lint.NewLineRule(
			"MD021",
			"no-multiple-space-closed-atx",
			"Multiple spaces inside hashes on closed ATX style heading",
			[]string{"atx_closed", "headings", "spaces", "fixable"},
			true,
		),
	}
}

// Apply checks for multiple spaces inside hashes on closed ATX headings.
func (r *NoMultipleSpaceClosedATXRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

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
		trimmed := bytes.TrimLeft(lineContent, " \t")

		match := closedATXPattern.FindSubmatch(trimmed)
		if match == nil {
			continue
		}

		openHashes := match[1]
		content := match[2]
		closeHashes := match[3]

		// Check for multiple spaces at the beginning.
		multipleOpenSpaces := len(content) >= 2 &&
			(content[0] == ' ' || content[0] == '\t') &&
			(content[1] == ' ' || content[1] == '\t')

		// Check for multiple spaces at the end.
		multipleCloseSpaces := len(content) >= 2 &&
			(content[len(content)-1] == ' ' || content[len(content)-1] == '\t') &&
			(content[len(content)-2] == ' ' || content[len(content)-2] == '\t')

		if !multipleOpenSpaces && !multipleCloseSpaces {
			continue
		}

		hashStart := len(lineContent) - len(trimmed)
		startCol := lint.ColumnOf(lineContent, hashStart)
		contentCol := startCol + len(openHashes)
		contentChars := utf8.RuneCount(content)

		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: startCol,
			EndLine:     lineNum,
			EndColumn:   contentCol + contentChars + len(closeHashes),
		}

		var msg string
		switch {
		case multipleOpenSpaces && multipleCloseSpaces:
			msg = "Multiple spaces inside hashes on closed ATX style heading (both sides)"
		case multipleOpenSpaces:
			msg = "Multiple spaces after opening hashes on closed ATX style heading"
		default:
			msg = "Multiple spaces before closing hashes on closed ATX style heading"
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span, msg).
			WithSuggestion("Use a single space inside the hash characters").
			WithFix(fix.FixInfo{
				LineNumber:  lineNum,
				EditColumn:  contentCol,
				DeleteCount: contentChars,
				InsertText:  " " + strings.TrimSpace(string(content)) + " ",
			}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// HeadingStartLeftRule checks that headings start at the beginning of the line.
type HeadingStartLeftRule struct {
	lint.BaseRule
}

// NewHeadingStartLeftRule creates a new heading-start-left rule.
func NewHeadingStartLeftRule() *HeadingStartLeftRule {
	return &HeadingStartLeftRule{
		BaseRule: lint.NewLineRule(
			"MD023",
			"heading-start-left",
			"Headings must start at the beginning of the line",
			[]string{"headings", "spaces", "fixable"},
			true,
		),
	}
}

// indentedHeadingPattern matches headings that have any leading whitespace.
var indentedHeadingPattern = regexp.MustCompile(`^([ \t]+)(#{1,6})(\s|$)`)

// codeBlockIndent is the minimum spaces that indicate an indented code block.
const codeBlockIndent = 4

// Apply checks that headings start at the beginning of the line.
func (r *HeadingStartLeftRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

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
		match := indentedHeadingPattern.FindSubmatch(lineContent)
		if match == nil {
			continue
		}

		indent := match[1]

		// Skip if 4+ spaces (would be an indented code block, not a heading).
		spaceCount := 0
		for _, ch := range indent {
			if ch != ' ' {
				break
			}
			spaceCount++
		}
		if spaceCount >= codeBlockIndent {
			continue
		}

		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: 1,
			EndLine:     lineNum,
			EndColumn:   len(indent) + 1,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
			"Headings must start at the beginning of the line").
			WithDetail(fmt.Sprintf("Expected: 0; Actual: %d", len(indent))).
			WithSuggestion("Remove leading whitespace from the heading").
			WithFix(fix.FixInfo{LineNumber: lineNum, EditColumn: 1, DeleteCount: len(indent)}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// NoDuplicateHeadingRule checks for multiple headings with the same content.
type NoDuplicateHeadingRule struct {
	lint.BaseRule
}

// NewNoDuplicateHeadingRule creates a new no-duplicate-heading rule.
func NewNoDuplicateHeadingRule() *NoDuplicateHeadingRule {
	return &NoDuplicateHeadingRule{
		BaseRule: lint.NewBaseRule(
			"MD024",
			"no-duplicate-heading",
			"Multiple headings with the same content",
			[]string{"headings"},
			false, // Not auto-fixable.
		),
	}
}

// Apply checks for duplicate heading content.
func (r *NoDuplicateHeadingRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	siblingsOnly := ctx.OptionBool("siblings_only", false)

	headings := ctx.Headings()
	if siblingsOnly {
		return r.checkSiblings(ctx, headings), nil
	}
	return r.checkAll(ctx, headings), nil
}

func (r *NoDuplicateHeadingRule) checkAll(ctx *lint.RuleContext, headings []int) []lint.Diagnostic {
	seen := make(map[string]int) // text -> first line
	var diags []lint.Diagnostic

	for _, idx := range headings {
		if ctx.Cancelled() {
			break
		}

		tok := ctx.Token(idx)
		text := tok.Text
		if text == "" {
			continue
		}

		if firstLine, ok := seen[text]; ok {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
				"Multiple headings with the same content").
				WithContext(text).
				WithDetail(fmt.Sprintf("First occurrence on line %d", firstLine)).
				WithSuggestion("Use unique heading text").
				Build()
			diags = append(diags, diag)
		} else {
			seen[text] = tok.StartLine
		}
	}

	return diags
}

func (r *NoDuplicateHeadingRule) checkSiblings(ctx *lint.RuleContext, headings []int) []lint.Diagnostic {
	// For siblings_only mode, track headings by their parent context.
	// Headings at the same level under the same parent are considered siblings.
	// A parent is any heading with a lower level number.

	type parentInfo struct {
		level int
		text  string
	}

	var diags []lint.Diagnostic
	var parentStack []parentInfo

	// Map from (level, parent_path) -> (text -> first line)
	seen := make(map[string]map[string]int)

	for _, idx := range headings {
		if ctx.Cancelled() {
			break
		}

		tok := ctx.Token(idx)
		level := tok.HeadingLevel()
		text := tok.Text
		if text == "" {
			continue
		}

		// Pop parent stack until we find a parent with lower level.
		for len(parentStack) > 0 && parentStack[len(parentStack)-1].level >= level {
			parentStack = parentStack[:len(parentStack)-1]
		}

		// Build a unique key for the parent context.
		// Include both level and text of each parent to distinguish different sections.
		var parentKeyBuilder strings.Builder
		for _, p := range parentStack {
			fmt.Fprintf(&parentKeyBuilder, "%d:%s/", p.level, p.text)
		}
		contextKey := fmt.Sprintf("%d@%s", level, parentKeyBuilder.String())

		if seen[contextKey] == nil {
			seen[contextKey] = make(map[string]int)
		}

		if firstLine, ok := seen[contextKey][text]; ok {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
				"Multiple headings with the same content among siblings").
				WithContext(text).
				WithDetail(fmt.Sprintf("First occurrence on line %d", firstLine)).
				WithSuggestion("Use unique heading text among siblings").
				Build()
			diags = append(diags, diag)
		} else {
			seen[contextKey][text] = tok.StartLine
		}

		// Push this heading onto the parent stack for potential children.
		parentStack = append(parentStack, parentInfo{level: level, text: text})
	}

	return diags
}

// NoTrailingPunctuationRule checks for trailing punctuation in headings.
type NoTrailingPunctuationRule struct {
	lint.BaseRule
}

// NewNoTrailingPunctuationRule creates a new no-trailing-punctuation rule.
func NewNoTrailingPunctuationRule() *NoTrailingPunctuationRule {
	return &NoTrailingPunctuationRule{
		BaseRule: lint.NewBaseRule(
			"MD026",
			"no-trailing-punctuation",
			"Trailing punctuation in heading",
			[]string{"headings", "fixable"},
			true,
		),
	}
}

// defaultPunctuation is the default set of trailing punctuation characters.
const defaultPunctuation = ".,;:!"

// htmlEntityPattern matches HTML entity references at the end of text.
var htmlEntityPattern = regexp.MustCompile(`&[a-zA-Z]+;$|&#[0-9]+;$|&#x[0-9a-fA-F]+;$`)

// Apply checks for trailing punctuation in headings.
func (r *NoTrailingPunctuationRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	punctuation := ctx.OptionString("punctuation", defaultPunctuation)
	if punctuation == "" {
		return nil, nil // Empty string disables the rule.
	}

	var diags []lint.Diagnostic

	for _, idx := range ctx.Headings() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tok := ctx.Token(idx)
		text := tok.Text
		if text == "" {
			continue
		}

		// Check for HTML entity at the end - ignore if present.
		if htmlEntityPattern.MatchString(text) {
			continue
		}

		// Get the last rune.
		lastRune, runeLen := utf8.DecodeLastRuneInString(text)
		if lastRune == utf8.RuneError {
			continue
		}

		// Check if it's in the punctuation set.
		if !strings.ContainsRune(punctuation, lastRune) {
			continue
		}

		lineContent := lint.LineContent(ctx.File, tok.StartLine)

		// Find where the heading text ends on the line (before closing
		// hashes or a setext underline's preceding content end).
		trimmedLine := bytes.TrimRight(lineContent, " \t#")
		if len(trimmedLine) == 0 {
			continue
		}

		punctCol := lint.ColumnOf(lineContent, len(trimmedLine)-runeLen)

		span := lint.Span{
			StartLine:   tok.StartLine,
			StartColumn: punctCol,
			EndLine:     tok.StartLine,
			EndColumn:   punctCol + 1,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
			"Trailing punctuation in heading").
			WithDetail(fmt.Sprintf("Punctuation: %q", string(lastRune))).
			WithSuggestion("Remove trailing punctuation from the heading").
			WithFix(fix.FixInfo{LineNumber: tok.StartLine, EditColumn: punctCol, DeleteCount: 1}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}
