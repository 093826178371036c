package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// BlanksAroundFencesRule checks that fenced code blocks are surrounded by blank lines.
type BlanksAroundFencesRule struct {
	lint.BaseRule
}

// NewBlanksAroundFencesRule creates a new blanks-around-fences rule.
func NewBlanksAroundFencesRule() *BlanksAroundFencesRule {
	return &BlanksAroundFencesRule{
		BaseRule: lint.NewBaseRule(
			"MD031",
			"blanks-around-fences",
			"Fenced code blocks should be surrounded by blank lines",
			[]string{"blank_lines", "code", "fixable"},
			true,
		),
	}
}

// Apply checks that fenced code blocks are surrounded by blank lines.
func (r *BlanksAroundFencesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	includeListItems := ctx.OptionBool("list_items", true)

	var diags []lint.Diagnostic

	for _, idx := range ctx.CodeBlocks() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tok := ctx.Token(idx)

		// Skip indented code blocks.
		if tok.CodeIndented() || tok.StartLine < 1 {
			continue
		}

		// Skip if in list item and list_items is false.
		if !includeListItems && r.isInListItem(ctx.File, idx) {
			continue
		}

		openLine := fenceOpenLine(tok)
		closeLine := fenceCloseLine(tok)

		// Validate fence lines exist.
		if openLine < 1 || closeLine > ctx.LineCount() {
			continue
		}

		// Check for blank line before the opening fence.
		if openLine > 1 && !lint.IsBlankLine(ctx.File, openLine-1) {
			diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, openLine,
				"Fenced code blocks should be surrounded by blank lines").
				WithContext(string(lint.LineContent(ctx.File, openLine))).
				WithSuggestion("Add a blank line before the fenced code block").
				WithFix(fix.FixInfo{LineNumber: openLine, EditColumn: 1, InsertText: "\n"}).
				Build()
			diags = append(diags, diag)
		}

		// Check for blank line after the closing fence.
		if closeLine < ctx.LineCount() && !lint.IsBlankLine(ctx.File, closeLine+1) {
			endCol := lint.LineLength(ctx.File, closeLine) + 1
			diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, closeLine,
				"Fenced code blocks should be surrounded by blank lines").
				WithContext(string(lint.LineContent(ctx.File, closeLine))).
				WithSuggestion("Add a blank line after the fenced code block").
				WithFix(fix.FixInfo{LineNumber: closeLine, EditColumn: endCol, InsertText: "\n"}).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

func (r *BlanksAroundFencesRule) isInListItem(file *mdtoken.Snapshot, idx int) bool {
	for p := file.Token(idx).Parent; p != mdtoken.None; p = file.Token(p).Parent {
		if file.Token(p).Kind == mdtoken.KindListItem {
			return true
		}
	}
	return false
}

// NoSpaceInCodeRule checks for spaces inside code span elements.
type NoSpaceInCodeRule struct {
	lint.BaseRule
}

// NewNoSpaceInCodeRule creates a new no-space-in-code rule.
func NewNoSpaceInCodeRule() *NoSpaceInCodeRule {
	return &NoSpaceInCodeRule{
		BaseRule: lint.NewLineRule(
			"MD038",
			"no-space-in-code",
			"Spaces inside code span elements",
			[]string{"code", "whitespace", "fixable"},
			true,
		),
	}
}

// codeSpanPattern matches inline code spans with their content.
var codeSpanPattern = regexp.MustCompile("`+[^`]+`+")

// Apply checks for spaces inside code span elements.
func (r *NoSpaceInCodeRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
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
		matches := codeSpanPattern.FindAllIndex(lineContent, -1)

		for _, match := range matches {
			start, end := match[0], match[1]
			codeSpan := string(lineContent[start:end])

			// Extract content between backticks.
			content := extractCodeSpanContent(codeSpan)
			if content == "" {
				continue
			}

			// Check for leading/trailing spaces.
			trimmed := strings.Trim(content, " ")
			hasLeading := len(content) > 0 && content[0] == ' '
			hasTrailing := len(content) > 0 && content[len(content)-1] == ' '

			// Allow single space padding if content contains backticks.
			if strings.Contains(trimmed, "`") {
				// Single space on each side is allowed for backtick-containing content.
				if len(content) >= 2 && content[0] == ' ' && content[len(content)-1] == ' ' {
					innerContent := content[1 : len(content)-1]
					if !strings.HasPrefix(innerContent, " ") && !strings.HasSuffix(innerContent, " ") {
						continue
					}
				}
			}

			// Only spaces content is allowed.
			if len(strings.TrimSpace(content)) == 0 {
				continue
			}

			// Check for excessive spaces.
			leadingSpaces := len(content) - len(strings.TrimLeft(content, " "))
			trailingSpaces := len(content) - len(strings.TrimRight(content, " "))

			if leadingSpaces <= 1 && trailingSpaces <= 1 {
				// Single space padding is allowed.
				continue
			}

			if !hasLeading && !hasTrailing {
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

			var msg string
			switch {
			case hasLeading && hasTrailing && (leadingSpaces > 1 || trailingSpaces > 1):
				msg = "Excessive spaces inside code span"
			case hasLeading && leadingSpaces > 1:
				msg = "Excessive leading space inside code span"
			case hasTrailing && trailingSpaces > 1:
				msg = "Excessive trailing space inside code span"
			default:
				continue
			}

			// Build fix: rewrite the span with trimmed content.
			backticks := strings.Repeat("`", countLeadingBackticks(codeSpan))
			fixedContent := backticks + strings.TrimSpace(content) + backticks

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span, msg).
				WithContext(codeSpan).
				WithSuggestion("Remove extra spaces from inside the code span").
				WithFix(fix.FixInfo{
					LineNumber:  lineNum,
					EditColumn:  startCol,
					DeleteCount: endCol - startCol,
					InsertText:  fixedContent,
				}).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

func extractCodeSpanContent(span string) string {
	// Count leading backticks.
	backtickCount := countLeadingBackticks(span)
	if backtickCount == 0 {
		return ""
	}

	// Remove leading and trailing backticks.
	content := span[backtickCount:]
	if len(content) < backtickCount {
		return ""
	}
	content = content[:len(content)-backtickCount]

	return content
}

func countLeadingBackticks(s string) int {
	count := 0
	for _, ch := range s {
		if ch != '`' {
			break
		}
		count++
	}
	return count
}
