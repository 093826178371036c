package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/parser/goldmark"
)

// End-to-end checks of the lint-fix engine against the full built-in rule
// catalog: literal documents in, exact violations and rewritten text out.

func fullEngine() *lint.Engine {
	return lint.NewEngine(goldmark.New(string(config.FlavorCommonMark)), lint.DefaultRegistry)
}

func lintContent(t *testing.T, cfg *config.Config, content string) *lint.FileResult {
	t.Helper()
	result, err := fullEngine().LintFile(context.Background(), "test.md", []byte(content), cfg)
	require.NoError(t, err)
	return result
}

func diagsFor(result *lint.FileResult, ruleID string) []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, d := range result.Diagnostics {
		if d.RuleID == ruleID {
			out = append(out, d)
		}
	}
	return out
}

func applyAll(result *lint.FileResult, content string) string {
	var violations []fix.Violation
	for _, d := range result.Diagnostics {
		if d.HasFix() {
			violations = append(violations, d.FixViolation())
		}
	}
	return string(fix.Apply([]byte(content), violations))
}

func TestConformance_TrailingWhitespaceFixShape(t *testing.T) {
	input := "# Title\n\nSome text   \n"
	result := lintContent(t, config.NewConfig(), input)

	diags := diagsFor(result, "MD009")
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].StartLine)
	require.Len(t, diags[0].Fixes, 1)
	assert.Equal(t, 10, diags[0].Fixes[0].EditColumn)
	assert.Equal(t, 3, diags[0].Fixes[0].DeleteCount)

	fixed := string(fix.Apply([]byte(input), []fix.Violation{diags[0].FixViolation()}))
	assert.Equal(t, "# Title\n\nSome text\n", fixed)
}

func TestConformance_CRLFPreservedUnderFixes(t *testing.T) {
	input := "# \r\n# \r\n"
	result := lintContent(t, config.NewConfig(), input)

	assert.NotEmpty(t, diagsFor(result, "MD009"), "trailing space on the heading lines")
	assert.NotEmpty(t, diagsFor(result, "MD025"), "two top-level headings")

	fixed := applyAll(result, input)
	// Every newline in the output must still be a CRLF pair.
	assert.NotContains(t, strings.ReplaceAll(fixed, "\r\n", ""), "\n",
		"no bare LF may survive in a CRLF document")
}

func TestConformance_HeadingIncrementDetail(t *testing.T) {
	result := lintContent(t, config.NewConfig(), "# H1\n\n### H3\n")

	diags := diagsFor(result, "MD001")
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].StartLine)
	assert.Equal(t, "Expected: h2; Actual: h3", diags[0].Detail)
}

func TestConformance_DisableNextLineScope(t *testing.T) {
	input := "# T\n\n<!-- markdownlint-disable-next-line MD009 -->\ntext   \nmore   \n"
	result := lintContent(t, config.NewConfig(), input)

	diags := diagsFor(result, "MD009")
	require.Len(t, diags, 1, "only the line after the directive's target may fire")
	assert.Equal(t, 5, diags[0].StartLine)
}

func TestConformance_BlanksAroundFencesConverges(t *testing.T) {
	input := "# T\n\ntext\n```\nx\n```\nmore\n"
	result := lintContent(t, config.NewConfig(), input)

	diags := diagsFor(result, "MD031")
	require.Len(t, diags, 2)
	assert.Equal(t, 4, diags[0].StartLine, "opening fence")
	assert.Equal(t, 6, diags[1].StartLine, "closing fence")

	var violations []fix.Violation
	for _, d := range diags {
		violations = append(violations, d.FixViolation())
	}
	fixed := string(fix.Apply([]byte(input), violations))

	relint := lintContent(t, config.NewConfig(), fixed)
	assert.Empty(t, diagsFor(relint, "MD031"), "one fix pass settles the rule")
}

func TestConformance_IndentedToFencedConversion(t *testing.T) {
	input := "# T\n\n    indented\n    more\n"

	engine := lint.NewEngine(goldmark.New(string(config.FlavorCommonMark)), lint.DefaultRegistry)
	cfg := config.NewConfig()
	cfg.Rules["MD046"] = config.RuleConfig{Options: map[string]any{"style": "fenced"}}

	result, err := engine.LintFile(context.Background(), "test.md", []byte(input), cfg)
	require.NoError(t, err)

	diags := diagsFor(result, "MD046")
	var primary, helpers []lint.Diagnostic
	for _, d := range diags {
		if d.FixOnly {
			helpers = append(helpers, d)
		} else {
			primary = append(primary, d)
		}
	}

	require.Len(t, primary, 1)
	require.Len(t, primary[0].Fixes, 1)
	assert.Contains(t, primary[0].Fixes[0].InsertText, "\n", "primary edit is a multi-line replacement")
	require.Len(t, helpers, 1, "one delete-line helper for the block's second line")
	assert.Equal(t, fix.DeleteWholeLine, helpers[0].Fixes[0].DeleteCount)

	var violations []fix.Violation
	for _, d := range diags {
		violations = append(violations, d.FixViolation())
	}
	fixed := string(fix.Apply([]byte(input), violations))
	assert.Equal(t, "# T\n\n```\nindented\nmore\n```\n", fixed)

	relint, err := engine.LintFile(context.Background(), "test.md", []byte(fixed), cfg)
	require.NoError(t, err)
	assert.Empty(t, diagsFor(relint, "MD046"))
}

func TestConformance_Determinism(t *testing.T) {
	input := "# Title\n\ntext   \n\n\n\n- a\n* b\n"

	first := lintContent(t, config.NewConfig(), input)
	second := lintContent(t, config.NewConfig(), input)

	assert.Equal(t, first.Diagnostics, second.Diagnostics)
	assert.Equal(t, applyAll(first, input), applyAll(second, input))
}

func TestConformance_ViolationOrdering(t *testing.T) {
	input := "# Title\n\ntext   \nmore   \n\n\n\nend   \n"
	result := lintContent(t, config.NewConfig(), input)

	prev := 0
	for _, d := range result.Diagnostics {
		assert.GreaterOrEqual(t, d.StartLine, prev, "diagnostics sorted by ascending line")
		prev = d.StartLine
	}
}

func TestConformance_ColumnBounds(t *testing.T) {
	input := "# Title   \n\nSome text   \n\ttabbed\n"
	result := lintContent(t, config.NewConfig(), input)

	for _, d := range result.Diagnostics {
		lineLen := len([]rune(strings.Split(input, "\n")[d.StartLine-1]))
		assert.GreaterOrEqual(t, d.StartColumn, 1, "%s: col >= 1", d.RuleID)
		if d.StartLine == d.EndLine && d.EndColumn >= d.StartColumn {
			length := d.EndColumn - d.StartColumn
			assert.LessOrEqual(t, d.StartColumn+length-1, lineLen+1,
				"%s: range must stay within the line", d.RuleID)
		}
	}
}

func TestConformance_CaptureRestoreDirectives(t *testing.T) {
	input := "<!-- markdownlint-capture -->\n<!-- markdownlint-disable MD009 -->\ntext   \n<!-- markdownlint-restore -->\nmore   \n"
	result := lintContent(t, config.NewConfig(), input)

	diags := diagsFor(result, "MD009")
	require.Len(t, diags, 1, "restore pops the captured enabled set")
	assert.Equal(t, 5, diags[0].StartLine)
}

func TestConformance_DirectivesInertInsideCodeBlocks(t *testing.T) {
	input := "```\n<!-- markdownlint-disable MD009 -->\n```\n\ntext   \n"
	result := lintContent(t, config.NewConfig(), input)

	assert.NotEmpty(t, diagsFor(result, "MD009"), "directive inside a fence must not disable the rule")
}

func TestConformance_CodeBlockExclusion(t *testing.T) {
	// Line-based rules must not fire inside fenced or indented code blocks.
	input := "# T\n\n```\ntext   \n(text)[url]\nhttps://bare.example\n```\n"
	result := lintContent(t, config.NewConfig(), input)

	for _, ruleID := range []string{"MD009", "MD011", "MD034"} {
		for _, d := range diagsFor(result, ruleID) {
			assert.NotContains(t, []int{4, 5, 6}, d.StartLine,
				"%s fired inside a code block on line %d", ruleID, d.StartLine)
		}
	}
}

func TestConformance_WholeSetConvergence(t *testing.T) {
	// Representative messy document: the full catalog's fixes must converge
	// within the documented three passes.
	corpus := []string{
		"# Title   \n\ntext   \n\n\n\nmore\n",
		"# T\n\ntext\n```\nx\n```\nmore\n",
		"Some text\n```\ncode\n```\nTail   \n",
		"# A\n# B\n\n- one\n* two\n+ three\n",
	}

	engine := fullEngine()
	cfg := config.NewConfig()
	cfg.Fix = true

	for _, doc := range corpus {
		current := doc
		passes := 0
		for ; passes < 10; passes++ {
			result, err := engine.LintFile(context.Background(), "test.md", []byte(current), cfg)
			require.NoError(t, err)
			next := string(fix.Apply([]byte(current), result.FixViolations))
			if next == current {
				break
			}
			current = next
		}
		assert.LessOrEqual(t, passes, 3, "document %q needed %d passes", doc, passes)
	}
}
