package rules

import (
	"fmt"
	"strconv"

	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// BulletStyle represents the style of unordered list bullets.
type BulletStyle string

const (
	// BulletDash uses "-" as the bullet marker.
	BulletDash BulletStyle = "dash"
	// BulletPlus uses "+" as the bullet marker.
	BulletPlus BulletStyle = "plus"
	// BulletAsterisk uses "*" as the bullet marker.
	BulletAsterisk BulletStyle = "asterisk"
	// BulletConsistent uses whatever style is first encountered.
	BulletConsistent BulletStyle = "consistent"
)

// getBulletMarker returns the character representation for a bullet style.
func getBulletMarker(style BulletStyle) string {
	switch style {
	case BulletDash:
		return "-"
	case BulletPlus:
		return "+"
	case BulletAsterisk:
		return "*"
	default:
		return ""
	}
}

// getBulletStyle returns the bullet style for a marker character.
func getBulletStyle(marker string) (BulletStyle, bool) {
	switch marker {
	case "-":
		return BulletDash, true
	case "+":
		return BulletPlus, true
	case "*":
		return BulletAsterisk, true
	default:
		return "", false
	}
}

// UnorderedListStyleRule enforces consistent bullet markers in unordered lists.
type UnorderedListStyleRule struct {
	lint.BaseRule
}

// NewUnorderedListStyleRule creates a new unordered list style rule.
func NewUnorderedListStyleRule() *UnorderedListStyleRule {
	return &UnorderedListStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD004",
			"ul-style",
			"Unordered list style should be consistent",
			[]string{"bullet", "ul", "style", "fixable"},
			true,
		),
	}
}

// Apply checks that all unordered lists use consistent bullet markers.
func (r *UnorderedListStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := BulletStyle(ctx.OptionString("style", string(BulletConsistent)))

	// Determine effective style.
	effectiveStyle := configStyle
	effectiveMarker := getBulletMarker(effectiveStyle)

	if configStyle == BulletConsistent {
		effectiveStyle = "" // Will be set from first list.
		effectiveMarker = ""
	}

	var diags []lint.Diagnostic

	for _, listIdx := range ctx.Lists() {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		listTok := ctx.Token(listIdx)
		// Skip ordered lists.
		if listTok.ListOrdered() {
			continue
		}

		marker := listTok.ListBullet()
		if marker == "" {
			continue
		}

		// Set consistent style from first list.
		if effectiveStyle == "" {
			if style, ok := getBulletStyle(marker); ok {
				effectiveStyle = style
				effectiveMarker = marker
			}
			continue
		}

		// Check for style mismatch.
		if marker != effectiveMarker {
			for _, itemIdx := range lint.ListItemsOf(ctx.File, listIdx) {
				diags = append(diags, r.createBulletDiagnostic(ctx, ctx.Token(itemIdx), marker, effectiveMarker))
			}
		}
	}

	return diags, nil
}

func (r *UnorderedListStyleRule) createBulletDiagnostic(
	ctx *lint.RuleContext,
	item mdtoken.Token,
	actual, expected string,
) lint.Diagnostic {
	diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(item),
		"Unordered list style").
		WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", expected, actual)).
		WithSuggestion(fmt.Sprintf("Use '%s' as the bullet marker", expected))

	if f, ok := buildBulletFix(ctx.File, item, expected); ok {
		diagBuilder = diagBuilder.WithFix(f)
	}

	return diagBuilder.Build()
}

// buildBulletFix emits a single-character marker replacement on the item's
// first line.
func buildBulletFix(
	file *mdtoken.Snapshot,
	item mdtoken.Token,
	expectedMarker string,
) (fix.FixInfo, bool) {
	if file == nil || item.StartLine < 1 || item.StartLine > file.Lines.Count() {
		return fix.FixInfo{}, false
	}

	// Find the first bullet character (-, +, or *) on the item's line.
	lineContent := lint.LineContent(file, item.StartLine)
	for i, ch := range lineContent {
		if ch == '-' || ch == '+' || ch == '*' {
			return fix.FixInfo{
				LineNumber:  item.StartLine,
				EditColumn:  lint.ColumnOf(lineContent, i),
				DeleteCount: 1,
				InsertText:  expectedMarker,
			}, true
		}
	}

	return fix.FixInfo{}, false
}

// OrderedListPrefixRule enforces the numbering mode of ordered lists.
type OrderedListPrefixRule struct {
	lint.BaseRule
}

// NewOrderedListPrefixRule creates a new ordered list prefix rule.
func NewOrderedListPrefixRule() *OrderedListPrefixRule {
	return &OrderedListPrefixRule{
		BaseRule: lint.NewBaseRule(
			"MD029",
			"ol-prefix",
			"Ordered list item prefix",
			[]string{"ol", "fixable"},
			true,
		),
	}
}

// Ordered list numbering modes.
const (
	olStyleOne        = "one"        // every item numbered 1
	olStyleOrdered    = "ordered"    // 1, 2, 3, ...
	olStyleZero       = "zero"       // every item numbered 0
	olStyleConsistent = "consistent" // infer from the first two items
)

// Apply checks that ordered lists follow the configured numbering mode.
func (r *OrderedListPrefixRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	style := ctx.OptionString("style", olStyleConsistent)

	var diags []lint.Diagnostic

	for _, listIdx := range ctx.Lists() {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		listTok := ctx.Token(listIdx)
		if !listTok.ListOrdered() {
			continue
		}

		delimiter := listTok.ListDelimiter()
		if delimiter == "" {
			delimiter = "."
		}

		items := lint.ListItemsOf(ctx.File, listIdx)
		if len(items) == 0 {
			continue
		}

		numbers := make([]int, len(items))
		for i, itemIdx := range items {
			numbers[i] = extractListItemNumber(ctx.File, ctx.Token(itemIdx))
		}

		expected := expectedNumbers(style, listTok.ListStart(), numbers)

		for i, itemIdx := range items {
			if numbers[i] == expected[i] {
				continue
			}
			diags = append(diags, r.createNumberDiagnostic(
				ctx, ctx.Token(itemIdx), numbers[i], expected[i], delimiter))
		}
	}

	return diags, nil
}

// expectedNumbers computes the required prefix for each item given the
// numbering mode. Consistent mode infers the mode from the first items:
// 0,0 means zero; 1,1 means one; anything else means ordered.
func expectedNumbers(style string, start int, actual []int) []int {
	mode := style
	if mode == olStyleConsistent {
		switch {
		case len(actual) > 0 && actual[0] == 0:
			mode = olStyleZero
		case len(actual) > 1 && actual[0] == 1 && actual[1] == 1:
			mode = olStyleOne
		default:
			mode = olStyleOrdered
		}
	}

	out := make([]int, len(actual))
	switch mode {
	case olStyleZero:
		// all zeros; out already zeroed
	case olStyleOne:
		for i := range out {
			out[i] = 1
		}
	default:
		if start == 0 && len(actual) > 0 {
			start = actual[0]
		}
		if start == 0 {
			start = 1
		}
		for i := range out {
			out[i] = start + i
		}
	}
	return out
}

func (r *OrderedListPrefixRule) createNumberDiagnostic(
	ctx *lint.RuleContext,
	item mdtoken.Token,
	actual, expected int,
	delimiter string,
) lint.Diagnostic {
	diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(item),
		"Ordered list item prefix").
		WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", expected, actual)).
		WithSuggestion(fmt.Sprintf("Use %d%s instead", expected, delimiter))

	if f, ok := buildNumberFix(ctx.File, item, expected, delimiter); ok {
		diagBuilder = diagBuilder.WithFix(f)
	}

	return diagBuilder.Build()
}

// buildNumberFix replaces an item's number-plus-delimiter prefix.
func buildNumberFix(
	file *mdtoken.Snapshot,
	item mdtoken.Token,
	expectedNum int,
	delimiter string,
) (fix.FixInfo, bool) {
	if file == nil || item.StartLine < 1 || item.StartLine > file.Lines.Count() {
		return fix.FixInfo{}, false
	}

	lineContent := lint.LineContent(file, item.StartLine)

	// Find the number and delimiter in the line.
	numStart := -1
	numEnd := -1
	delimEnd := -1

	for idx, ch := range lineContent {
		// Skip leading whitespace.
		if ch == ' ' || ch == '\t' {
			if numEnd > 0 {
				break
			}
			continue
		}

		switch {
		case ch >= '0' && ch <= '9':
			if numStart < 0 {
				numStart = idx
			}
			numEnd = idx + 1
		case numEnd > 0 && (ch == '.' || ch == ')'):
			delimEnd = idx + 1
		}

		if delimEnd > 0 {
			break
		}
		if numEnd == 0 && ch != ' ' && ch != '\t' {
			break
		}
		if numEnd > 0 && (ch < '0' || ch > '9') && ch != '.' && ch != ')' {
			break
		}
	}

	if numStart < 0 || delimEnd < 0 {
		return fix.FixInfo{}, false
	}

	return fix.FixInfo{
		LineNumber:  item.StartLine,
		EditColumn:  lint.ColumnOf(lineContent, numStart),
		DeleteCount: delimEnd - numStart,
		InsertText:  fmt.Sprintf("%d%s", expectedNum, delimiter),
	}, true
}

// extractListItemNumber extracts the number from an ordered list item.
func extractListItemNumber(file *mdtoken.Snapshot, item mdtoken.Token) int {
	if file == nil || item.StartLine < 1 || item.StartLine > file.Lines.Count() {
		return 0
	}

	lineContent := lint.LineContent(file, item.StartLine)

	// Parse the number from the beginning of the line (after whitespace).
	foundDigit := false
	const typicalListNumberLen = 8
	numBuilder := make([]byte, 0, typicalListNumberLen)

	for _, ch := range lineContent {
		if ch == ' ' || ch == '\t' {
			if foundDigit {
				break
			}
			continue
		}

		if ch < '0' || ch > '9' {
			break
		}

		numBuilder = append(numBuilder, ch)
		foundDigit = true
	}

	if len(numBuilder) == 0 {
		return 0
	}

	num, err := strconv.Atoi(string(numBuilder))
	if err != nil {
		return 0
	}

	return num
}
