package rules

import (
	"fmt"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/langdetect"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// Fenced code block tokens span their content lines only: the opening fence
// sits on StartLine-1 and the closing fence on EndLine+1. The helpers below
// encode that convention once.

// fenceOpenLine returns the 1-based line of a fenced block's opening fence.
func fenceOpenLine(tok mdtoken.Token) int {
	return tok.StartLine - 1
}

// fenceCloseLine returns the 1-based line of a fenced block's closing fence.
func fenceCloseLine(tok mdtoken.Token) int {
	return tok.EndLine + 1
}

// CodeBlockLanguageRule checks that fenced code blocks have a language specified.
type CodeBlockLanguageRule struct {
	lint.BaseRule
}

// NewCodeBlockLanguageRule creates a new code block language rule.
func NewCodeBlockLanguageRule() *CodeBlockLanguageRule {
	return &CodeBlockLanguageRule{
		BaseRule: lint.NewBaseRule(
			"MD040",
			"fenced-code-language",
			"Fenced code blocks should have a language specified",
			[]string{"code", "language", "fixable"},
			true, // Auto-fixable via language detection.
		),
	}
}

// Apply checks that fenced code blocks have an info string.
func (r *CodeBlockLanguageRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	allowedLanguages := ctx.Option("allowed_languages", nil)
	var allowedSet map[string]bool
	if langs, ok := allowedLanguages.([]any); ok && len(langs) > 0 {
		allowedSet = make(map[string]bool)
		for _, l := range langs {
			if s, ok := l.(string); ok {
				allowedSet[strings.ToLower(s)] = true
			}
		}
	}

	var diags []lint.Diagnostic

	for _, idx := range ctx.CodeBlocks() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tok := ctx.Token(idx)

		// Skip indented code blocks.
		if tok.CodeIndented() {
			continue
		}

		info := tok.CodeInfo()
		// Extract just the language part (first word).
		lang := strings.Fields(info)
		langName := ""
		if len(lang) > 0 {
			langName = strings.ToLower(lang[0])
		}

		if langName == "" {
			fenceLine := fenceOpenLine(tok)
			if fenceLine < 1 {
				// Empty fenced blocks carry no content position.
				fenceLine = 1
			}
			diagBuilder := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, fenceLine,
				"Fenced code blocks should have a language specified").
				WithSuggestion("Add a language identifier after the opening fence")

			if f, ok := r.buildLanguageFix(ctx.File, tok); ok {
				diagBuilder = diagBuilder.WithFix(f)
			}

			diags = append(diags, diagBuilder.Build())
			continue
		}

		// Check against allowed languages if configured.
		if allowedSet != nil && !allowedSet[langName] {
			diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, fenceOpenLine(tok),
				"Fenced code block language is not allowed").
				WithDetail(fmt.Sprintf("Language: %s", langName)).
				WithSuggestion("Use one of the allowed language identifiers").
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// buildLanguageFix detects the language and creates a fix to insert it after
// the opening fence.
func (r *CodeBlockLanguageRule) buildLanguageFix(
	file *mdtoken.Snapshot,
	tok mdtoken.Token,
) (fix.FixInfo, bool) {
	content := codeBlockContent(file, tok)
	if len(content) == 0 {
		return fix.FixInfo{}, false
	}

	// Detect language.
	detectedLang := langdetect.Detect(content)
	if detectedLang == "text" {
		return fix.FixInfo{}, false // Don't insert "text" as language.
	}

	fenceLine := fenceOpenLine(tok)
	if fenceLine < 1 || fenceLine > file.Lines.Count() {
		return fix.FixInfo{}, false
	}

	lineContent := lint.LineContent(file, fenceLine)

	// Find end of fence characters (``` or ~~~).
	fenceEnd := 0
	for i, ch := range lineContent {
		if ch == '`' || ch == '~' {
			fenceEnd = i + 1
		} else if fenceEnd > 0 {
			break
		}
	}
	if fenceEnd == 0 {
		return fix.FixInfo{}, false
	}

	return fix.FixInfo{
		LineNumber: fenceLine,
		EditColumn: lint.ColumnOf(lineContent, fenceEnd),
		InsertText: detectedLang,
	}, true
}

// codeBlockContent extracts the content of a code block (excluding fences).
func codeBlockContent(file *mdtoken.Snapshot, tok mdtoken.Token) []byte {
	if tok.StartLine < 1 || tok.EndLine > file.Lines.Count() || tok.StartLine > tok.EndLine {
		return nil
	}

	startOffset := file.Lines.Entries[tok.StartLine-1].StartOffset
	endOffset := file.Lines.Entries[tok.EndLine-1].NewlineStart
	if endOffset > len(file.Content) {
		endOffset = len(file.Content)
	}

	return file.Content[startOffset:endOffset]
}

// CodeBlockStyleRule enforces consistent code block style (fenced vs indented).
type CodeBlockStyleRule struct {
	lint.BaseRule
}

// NewCodeBlockStyleRule creates a new code block style rule.
func NewCodeBlockStyleRule() *CodeBlockStyleRule {
	return &CodeBlockStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD046",
			"code-block-style",
			"Code block style should be consistent",
			[]string{"code", "style", "fixable"},
			true,
		),
	}
}

// CodeBlockStyle represents the style of code blocks.
type CodeBlockStyle string

const (
	// CodeBlockFenced uses fenced code blocks (```).
	CodeBlockFenced CodeBlockStyle = "fenced"
	// CodeBlockIndented uses indented code blocks.
	CodeBlockIndented CodeBlockStyle = "indented"
	// CodeBlockConsistent uses whatever style is first encountered.
	CodeBlockConsistent CodeBlockStyle = "consistent"
)

// Apply checks that code blocks use a consistent style.
func (r *CodeBlockStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := CodeBlockStyle(ctx.OptionString("style", string(CodeBlockConsistent)))
	effectiveStyle := configStyle
	if configStyle == CodeBlockConsistent {
		effectiveStyle = "" // Will be set from first code block.
	}

	var diags []lint.Diagnostic

	for _, idx := range ctx.CodeBlocks() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tok := ctx.Token(idx)

		detectedStyle := CodeBlockFenced
		if tok.CodeIndented() {
			detectedStyle = CodeBlockIndented
		}

		// Set consistent style from first code block.
		if effectiveStyle == "" {
			effectiveStyle = detectedStyle
			continue
		}

		if detectedStyle == effectiveStyle {
			continue
		}

		diags = append(diags, r.createStyleDiagnostics(ctx, tok, detectedStyle, effectiveStyle)...)
	}

	return diags, nil
}

// createStyleDiagnostics emits the primary style violation and, for the
// indented-to-fenced conversion, a multi-line replacement fix plus fix-only
// line-delete helpers for the block's remaining source lines.
func (r *CodeBlockStyleRule) createStyleDiagnostics(
	ctx *lint.RuleContext,
	tok mdtoken.Token,
	detected, expected CodeBlockStyle,
) []lint.Diagnostic {
	line := tok.StartLine
	if detected == CodeBlockFenced {
		line = fenceOpenLine(tok)
	}

	primary := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, line,
		"Code block style").
		WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", expected, detected)).
		WithSuggestion(fmt.Sprintf("Use %s code blocks", expected))

	// Only the indented-to-fenced direction is mechanically safe to rewrite:
	// the fenced form never collides with surrounding Markdown, whereas
	// un-fencing requires proving the body stays inert at four-space indent.
	if detected != CodeBlockIndented || expected != CodeBlockFenced {
		return []lint.Diagnostic{primary.Build()}
	}

	if tok.StartLine < 1 || tok.EndLine > ctx.LineCount() {
		return []lint.Diagnostic{primary.Build()}
	}

	// Build the fenced replacement: strip the 4-space (or tab) indent from
	// each body line and wrap in fences.
	var body []string
	for ln := tok.StartLine; ln <= tok.EndLine; ln++ {
		body = append(body, stripCodeIndent(string(lint.LineContent(ctx.File, ln))))
	}
	replacement := "```\n" + strings.Join(body, "\n") + "\n```"

	primary = primary.WithFix(fix.FixInfo{
		LineNumber:  tok.StartLine,
		EditColumn:  1,
		DeleteCount: fix.DeleteToEndOfLine,
		InsertText:  replacement,
	})

	diags := []lint.Diagnostic{primary.Build()}

	// Fix-only helpers delete the block's remaining original lines; the
	// primary edit already re-emits their content inside the fence.
	for ln := tok.StartLine + 1; ln <= tok.EndLine; ln++ {
		helper := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, ln,
			"Code block style").
			FixOnly().
			WithFix(fix.FixInfo{LineNumber: ln, DeleteCount: fix.DeleteWholeLine}).
			Build()
		diags = append(diags, helper)
	}

	return diags
}

// stripCodeIndent removes one level of indented-code-block indentation.
func stripCodeIndent(line string) string {
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	for i := 0; i < 4 && i < len(line); i++ {
		if line[i] != ' ' {
			return line[i:]
		}
	}
	if len(line) >= 4 {
		return line[4:]
	}
	return strings.TrimLeft(line, " ")
}

// CodeFenceStyleRule enforces consistent code fence style (backtick vs tilde).
type CodeFenceStyleRule struct {
	lint.BaseRule
}

// NewCodeFenceStyleRule creates a new code fence style rule.
func NewCodeFenceStyleRule() *CodeFenceStyleRule {
	return &CodeFenceStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD048",
			"code-fence-style",
			"Code fence style should be consistent",
			[]string{"code", "style", "fixable"},
			true, // Auto-fixable.
		),
	}
}

// FenceStyle represents the style of code fences.
type FenceStyle string

const (
	// FenceBacktick uses backticks (```).
	FenceBacktick FenceStyle = "backtick"
	// FenceTilde uses tildes (~~~).
	FenceTilde FenceStyle = "tilde"
	// FenceConsistent uses whatever style is first encountered.
	FenceConsistent FenceStyle = "consistent"
)

// Apply checks that fenced code blocks use a consistent fence style.
func (r *CodeFenceStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := FenceStyle(ctx.OptionString("style", string(FenceConsistent)))
	effectiveStyle := configStyle
	effectiveChar := byte('`')

	switch configStyle {
	case FenceConsistent:
		effectiveStyle = "" // Will be set from first fence.
		effectiveChar = 0
	case FenceTilde:
		effectiveChar = '~'
	case FenceBacktick:
		// Default values already set.
	}

	var diags []lint.Diagnostic

	for _, idx := range ctx.CodeBlocks() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tok := ctx.Token(idx)

		// Skip indented code blocks.
		if tok.CodeIndented() {
			continue
		}

		fence := tok.CodeFenceChar()
		if fence == "" {
			continue
		}
		fenceChar := fence[0]

		detectedStyle := FenceTilde
		if fenceChar == '`' {
			detectedStyle = FenceBacktick
		}

		// Set consistent style from first fence.
		if effectiveStyle == "" {
			effectiveStyle = detectedStyle
			effectiveChar = fenceChar
			continue
		}

		// Check for style mismatch.
		if fenceChar != effectiveChar {
			builder := r.buildFenceFixes(ctx.File, tok, effectiveChar)

			diagBuilder := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, fenceOpenLine(tok),
				"Code fence style").
				WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", effectiveStyle, detectedStyle)).
				WithSuggestion(fmt.Sprintf("Use %s for code fences", effectiveStyle)).
				WithFixes(builder)

			diags = append(diags, diagBuilder.Build())
		}
	}

	return diags, nil
}

// buildFenceFixes rewrites both fence lines with the expected character.
func (r *CodeFenceStyleRule) buildFenceFixes(
	file *mdtoken.Snapshot,
	tok mdtoken.Token,
	expectedChar byte,
) *fix.Builder {
	builder := fix.NewBuilder()

	for _, fenceLine := range []int{fenceOpenLine(tok), fenceCloseLine(tok)} {
		if fenceLine < 1 || fenceLine > file.Lines.Count() {
			continue
		}
		lineContent := lint.LineContent(file, fenceLine)

		fenceStart := -1
		fenceLen := 0
		for i, ch := range lineContent {
			if ch == '`' || ch == '~' {
				if fenceStart < 0 {
					fenceStart = i
				}
				fenceLen++
			} else if fenceStart >= 0 {
				break
			}
		}
		if fenceStart < 0 {
			continue
		}

		builder.Replace(
			fenceLine,
			lint.ColumnOf(lineContent, fenceStart),
			fenceLen,
			strings.Repeat(string(expectedChar), fenceLen),
		)
	}

	return builder
}

// CommandsShowOutputRule checks for unnecessary dollar signs in shell code blocks.
type CommandsShowOutputRule struct {
	lint.BaseRule
}

// NewCommandsShowOutputRule creates a new commands-show-output rule.
func NewCommandsShowOutputRule() *CommandsShowOutputRule {
	return &CommandsShowOutputRule{
		BaseRule: lint.NewBaseRule(
			"MD014",
			"commands-show-output",
			"Dollar signs used before commands without showing output",
			[]string{"code", "fixable"},
			true, // Auto-fixable
		),
	}
}

// Apply checks for unnecessary dollar signs in code blocks.
func (r *CommandsShowOutputRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic

	for _, idx := range ctx.CodeBlocks() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		if diag := r.checkCodeBlock(ctx, ctx.Token(idx)); diag != nil {
			diags = append(diags, *diag)
		}
	}

	return diags, nil
}

func (r *CommandsShowOutputRule) checkCodeBlock(ctx *lint.RuleContext, tok mdtoken.Token) *lint.Diagnostic {
	if tok.StartLine < 1 {
		return nil
	}

	if !r.isShellCodeBlock(tok) {
		return nil
	}

	contentLines := r.getCodeBlockContentLines(ctx.File, tok)
	if len(contentLines) == 0 {
		return nil
	}

	if !r.hasOnlyDollarCommands(contentLines) {
		return nil
	}

	line := tok.StartLine
	if !tok.CodeIndented() {
		line = fenceOpenLine(tok)
	}

	diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, line,
		"Dollar signs used before commands without showing output").
		WithSuggestion("Remove dollar signs from command-only code blocks").
		WithFixes(r.buildDollarRemovalFix(contentLines)).
		Build()
	return &diag
}

func (r *CommandsShowOutputRule) isShellCodeBlock(tok mdtoken.Token) bool {
	info := strings.ToLower(tok.CodeInfo())
	return info == "" || info == "sh" || info == "shell" || info == "bash" ||
		info == "zsh" || info == "console" || info == "terminal"
}

func (r *CommandsShowOutputRule) startsWithDollar(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "$ ") || strings.HasPrefix(trimmed, "$\t") || trimmed == "$"
}

func (r *CommandsShowOutputRule) hasOnlyDollarCommands(lines []codeLineInfo) bool {
	hasAnyCommand := false

	for lineIdx, line := range lines {
		trimmed := strings.TrimSpace(line.content)
		if trimmed == "" {
			continue
		}

		if !r.startsWithDollar(trimmed) {
			return false
		}
		hasAnyCommand = true

		// Check if there's output after this command
		if r.hasOutputAfter(lines, lineIdx) {
			return false
		}
	}

	return hasAnyCommand
}

func (r *CommandsShowOutputRule) hasOutputAfter(lines []codeLineInfo, startIdx int) bool {
	for j := startIdx + 1; j < len(lines); j++ {
		nextTrimmed := strings.TrimSpace(lines[j].content)
		if nextTrimmed == "" {
			continue
		}
		// If next non-empty line doesn't start with $, it's output
		return !r.startsWithDollar(nextTrimmed)
	}
	return false
}

func (r *CommandsShowOutputRule) buildDollarRemovalFix(lines []codeLineInfo) *fix.Builder {
	builder := fix.NewBuilder()
	for _, line := range lines {
		trimmed := strings.TrimSpace(line.content)
		if trimmed == "" {
			continue
		}

		dollarIdx := strings.Index(line.content, "$")
		if dollarIdx < 0 {
			continue
		}

		removeCount := 1
		if dollarIdx+1 < len(line.content) &&
			(line.content[dollarIdx+1] == ' ' || line.content[dollarIdx+1] == '\t') {
			removeCount = 2
		}
		builder.DeleteChars(line.lineNum, lint.ColumnOf([]byte(line.content), dollarIdx), removeCount)
	}
	return builder
}

type codeLineInfo struct {
	content string
	lineNum int
}

func (r *CommandsShowOutputRule) getCodeBlockContentLines(file *mdtoken.Snapshot, tok mdtoken.Token) []codeLineInfo {
	var lines []codeLineInfo

	for lineNum := tok.StartLine; lineNum <= tok.EndLine && lineNum <= file.Lines.Count(); lineNum++ {
		lines = append(lines, codeLineInfo{
			content: string(lint.LineContent(file, lineNum)),
			lineNum: lineNum,
		})
	}

	return lines
}
