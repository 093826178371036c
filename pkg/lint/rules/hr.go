package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// styleConsistent is the configuration value for consistent style detection.
const styleConsistent = "consistent"

// HRStyleRule checks for consistent horizontal rule style.
type HRStyleRule struct {
	lint.BaseRule
}

// NewHRStyleRule creates a new hr-style rule.
func NewHRStyleRule() *HRStyleRule {
	return &HRStyleRule{
		BaseRule: lint.NewLineRule(
			"MD035",
			"hr-style",
			"Horizontal rule style",
			[]string{"hr", "fixable"},
			true,
		),
	}
}

// hrPattern matches a thematic break: three or more of the same marker
// (-, _, *), optionally space-separated, with up to three spaces of indent.
var hrPattern = regexp.MustCompile(`^ {0,3}(?:-(?: *-){2,}|_(?: *_){2,}|\*(?: *\*){2,}) *$`)

// Apply checks for consistent horizontal rule style.
//
// Thematic breaks are detected from lines rather than tokens: goldmark does
// not attach source positions to thematic-break nodes. A dash rule directly
// under a non-blank line is a setext heading underline, not a break; the
// previous-non-empty-line heuristic below pins that choice.
func (r *HRStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := ctx.OptionString("style", styleConsistent)

	var expectedStyle string
	if configStyle != styleConsistent {
		expectedStyle = configStyle
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

		lineContent := string(lint.LineContent(ctx.File, lineNum))
		if !hrPattern.MatchString(lineContent) {
			continue
		}

		// A dash line directly below content is a setext underline.
		if strings.Contains(lineContent, "-") && lineNum > 1 && !lint.IsBlankLine(ctx.File, lineNum-1) {
			continue
		}

		hrStyle := strings.TrimSpace(lineContent)

		// Set expected style from first HR if consistent mode.
		if expectedStyle == "" {
			expectedStyle = hrStyle
			continue
		}

		// Check for style mismatch.
		if hrStyle == expectedStyle {
			continue
		}

		indent := len(lineContent) - len(strings.TrimLeft(lineContent, " "))
		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: indent + 1,
			EndLine:     lineNum,
			EndColumn:   indent + 1 + len(hrStyle),
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
			"Horizontal rule style").
			WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", expectedStyle, hrStyle)).
			WithSuggestion(fmt.Sprintf("Use %q for all horizontal rules", expectedStyle)).
			WithFix(fix.FixInfo{
				LineNumber:  lineNum,
				EditColumn:  1,
				DeleteCount: fix.DeleteToEndOfLine,
				InsertText:  expectedStyle,
			}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}
