package rules

import (
	"fmt"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// HardTabsRule checks for hard tab characters in the document.
type HardTabsRule struct {
	lint.BaseRule
}

// NewHardTabsRule creates a new hard tabs rule.
func NewHardTabsRule() *HardTabsRule {
	return &HardTabsRule{
		BaseRule: lint.NewBaseRule(
			"MD010",
			"no-hard-tabs",
			"Hard tabs should not be used",
			[]string{"hard_tab", "whitespace", "fixable"},
			true,
		),
	}
}

// Apply checks for hard tab characters on each line.
func (r *HardTabsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	includeCodeBlocks := ctx.OptionBool("code_blocks", true)
	spacesPerTab := ctx.OptionInt("spaces_per_tab", 1)
	if spacesPerTab < 1 {
		spacesPerTab = 1
	}

	// Get ignore_code_languages option.
	ignoreCodeLanguages := make(map[string]bool)
	if langs := ctx.Option("ignore_code_languages", nil); langs != nil {
		if langSlice, ok := langs.([]any); ok {
			for _, l := range langSlice {
				if s, ok := l.(string); ok {
					ignoreCodeLanguages[strings.ToLower(s)] = true
				}
			}
		}
	}

	// Build map of code block lines and their languages.
	codeBlockInfo := buildCodeBlockInfo(ctx)

	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		lineContent := lint.LineContent(ctx.File, lineNum)

		// Check if line is in a code block.
		if info, inCodeBlock := codeBlockInfo[lineNum]; inCodeBlock {
			// Skip if not including code blocks.
			if !includeCodeBlocks {
				continue
			}
			// Skip if the language is in the ignore list.
			if info.language != "" && ignoreCodeLanguages[strings.ToLower(info.language)] {
				continue
			}
		}

		// Find all tabs in the line.
		tabPositions := findTabPositions(lineContent)
		if len(tabPositions) == 0 {
			continue
		}

		// Build fix: replace all tabs with spaces. Columns are character
		// positions, so each byte index is translated through the line.
		builder := fix.NewBuilder()
		for _, tabPos := range tabPositions {
			col := lint.ColumnOf(lineContent, tabPos)
			builder.Replace(lineNum, col, 1, strings.Repeat(" ", spacesPerTab))
		}

		// Create a single diagnostic for the line at the first tab position.
		firstCol := lint.ColumnOf(lineContent, tabPositions[0])
		span := lint.Span{
			StartLine:   lineNum,
			StartColumn: firstCol,
			EndLine:     lineNum,
			EndColumn:   firstCol + 1,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span, "Hard tab character found").
			WithDetail(fmt.Sprintf("Column: %d", firstCol)).
			WithSuggestion(fmt.Sprintf("Replace tab with %d space(s)", spacesPerTab)).
			WithFixes(builder).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// codeBlockLineInfo stores information about a line inside a code block.
type codeBlockLineInfo struct {
	language string
}

// buildCodeBlockInfo returns a map of line numbers that are inside code blocks,
// along with the language of each code block.
func buildCodeBlockInfo(ctx *lint.RuleContext) map[int]codeBlockLineInfo {
	info := make(map[int]codeBlockLineInfo)

	for _, idx := range ctx.CodeBlocks() {
		tok := ctx.Token(idx)
		if tok.StartLine < 1 {
			continue
		}

		lang := tok.CodeInfo()
		// Extract just the language part (first word).
		langParts := strings.Fields(lang)
		langName := ""
		if len(langParts) > 0 {
			langName = langParts[0]
		}

		for lineNum := tok.StartLine; lineNum <= tok.EndLine; lineNum++ {
			info[lineNum] = codeBlockLineInfo{language: langName}
		}
	}

	return info
}

// findTabPositions returns the byte positions (0-indexed) of all tab
// characters in the content.
func findTabPositions(content []byte) []int {
	var positions []int
	for i, ch := range content {
		if ch == '\t' {
			positions = append(positions, i)
		}
	}
	return positions
}
