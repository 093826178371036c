package rules

import (
	"fmt"
	"regexp"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// NoBareURLsRule checks for bare URLs without angle brackets.
type NoBareURLsRule struct {
	lint.BaseRule
}

// NewNoBareURLsRule creates a new no-bare-urls rule.
func NewNoBareURLsRule() *NoBareURLsRule {
	return &NoBareURLsRule{
		BaseRule: lint.NewLineRule(
			"MD034",
			"no-bare-urls",
			"Bare URL used",
			[]string{"links", "url", "fixable"},
			true,
		),
	}
}

// bareURLPattern matches bare URLs and emails.
// It looks for URLs/emails that are not preceded by < or ( (which would indicate autolinks or markdown links).
var bareURLPattern = regexp.MustCompile(`(?:^|[^<(\[])(https?://[^\s<>\[\]()]+|[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})(?:[^>\])]|$)`)

// bareURLMatchGroups is the minimum submatch indices for bareURLPattern (full match + capture group).
const bareURLMatchGroups = 4

// emailPattern matches a full email address.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Apply checks for bare URLs without angle brackets.
func (r *NoBareURLsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
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

		// Skip lines that are already autolinks.
		if isAutolinkLine(lineContent) {
			continue
		}

		matches := bareURLPattern.FindAllSubmatchIndex(lineContent, -1)

		for _, match := range matches {
			if len(match) < bareURLMatchGroups {
				continue
			}

			// match[2]:match[3] is the URL/email capture group.
			urlStart, urlEnd := match[2], match[3]
			url := string(lineContent[urlStart:urlEnd])

			// Skip if the URL is inside a code span.
			if r.isInsideCodeSpan(lineContent, urlStart) {
				continue
			}

			// Skip if already wrapped in angle brackets. The match can sit
			// inside the wrapped text (for "<user@example.com>" the pattern
			// also accepts "ser@example.co"), so look outward to the nearest
			// bracket or whitespace on each side.
			lo, hi := urlStart, urlEnd
			for lo > 0 && lineContent[lo-1] != '<' && lineContent[lo-1] != ' ' && lineContent[lo-1] != '\t' {
				lo--
			}
			for hi < len(lineContent) && lineContent[hi] != '>' && lineContent[hi] != ' ' && lineContent[hi] != '\t' {
				hi++
			}
			if lo > 0 && lineContent[lo-1] == '<' && hi < len(lineContent) && lineContent[hi] == '>' {
				continue
			}

			startCol := lint.ColumnOf(lineContent, urlStart)
			endCol := lint.ColumnOf(lineContent, urlEnd)

			span := lint.Span{
				StartLine:   lineNum,
				StartColumn: startCol,
				EndLine:     lineNum,
				EndColumn:   endCol,
			}

			var msg string
			if emailPattern.MatchString(url) {
				msg = "Bare email address used"
			} else {
				msg = "Bare URL used"
			}

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span, msg).
				WithContext(url).
				WithSuggestion("Wrap the URL/email in angle brackets").
				WithFix(fix.FixInfo{
					LineNumber:  lineNum,
					EditColumn:  startCol,
					DeleteCount: endCol - startCol,
					InsertText:  "<" + url + ">",
				}).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

func (r *NoBareURLsRule) isInsideCodeSpan(line []byte, pos int) bool {
	// Count backticks before the position.
	backticks := 0
	for i := 0; i < pos && i < len(line); i++ {
		if line[i] == '`' {
			backticks++
		}
	}
	// Odd number of backticks means we're inside a code span.
	return backticks%2 == 1
}

func isAutolinkLine(line []byte) bool {
	// Simple check for <url> pattern.
	return len(line) >= 2 && line[0] == '<' && line[len(line)-1] == '>'
}
