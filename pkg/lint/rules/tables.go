package rules

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// Table rules operate as a state machine over consecutive pipe-bearing
// lines anchored at a delimiter row; tableExtent finds the run.

// tableExtent returns the first and last line of the table whose delimiter
// row sits at delimLine.
func tableExtent(file *mdtoken.Snapshot, delimLine int) (start, end int) {
	start = delimLine - 1 // Header row.
	if start < 1 {
		start = delimLine
	}

	end = delimLine
	for end+1 <= file.Lines.Count() {
		if !isTableRow(lint.LineContent(file, end+1)) {
			break
		}
		end++
	}
	return start, end
}

// TablePipeStyleRule checks for consistent leading/trailing pipe style in tables.
type TablePipeStyleRule struct {
	lint.BaseRule
}

// NewTablePipeStyleRule creates a new table pipe style rule.
func NewTablePipeStyleRule() *TablePipeStyleRule {
	return &TablePipeStyleRule{
		BaseRule: lint.NewLineRule(
			"MD055",
			"table-pipe-style",
			"Table pipe style should be consistent",
			[]string{"table"},
			false, // Not auto-fixable (complex).
		),
	}
}

// PipeStyle represents the pipe style of tables.
type PipeStyle string

const (
	// PipeStyleConsistent uses whatever style is first encountered.
	PipeStyleConsistent PipeStyle = "consistent"
	// PipeStyleLeadingAndTrailing requires pipes at both ends.
	PipeStyleLeadingAndTrailing PipeStyle = "leading_and_trailing"
	// PipeStyleLeadingOnly requires pipe at start only.
	PipeStyleLeadingOnly PipeStyle = "leading_only"
	// PipeStyleTrailingOnly requires pipe at end only.
	PipeStyleTrailingOnly PipeStyle = "trailing_only"
	// PipeStyleNoLeadingOrTrailing requires no pipes at ends.
	PipeStyleNoLeadingOrTrailing PipeStyle = "no_leading_or_trailing"
)

// Apply checks table pipe style consistency.
func (r *TablePipeStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Skip if not GFM flavor.
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	configStyle := PipeStyle(ctx.OptionString("style", string(PipeStyleConsistent)))

	var expectedStyle PipeStyle
	if configStyle != PipeStyleConsistent {
		expectedStyle = configStyle
	}

	codeBlockLines := ctx.CodeBlockLineSet()
	var diags []lint.Diagnostic

	// Find tables by looking for delimiter rows.
	lineNum := 1
	for lineNum <= ctx.LineCount() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		content := lint.LineContent(ctx.File, lineNum)
		if codeBlockLines[lineNum] || !isTableDelimiterRow(content) {
			lineNum++
			continue
		}

		tableStart, tableEnd := tableExtent(ctx.File, lineNum)

		// Check all rows in the table
		for rowNum := tableStart; rowNum <= tableEnd; rowNum++ {
			rowContent := lint.LineContent(ctx.File, rowNum)
			trimmed := bytes.TrimSpace(rowContent)
			if len(trimmed) == 0 {
				continue
			}

			hasLeading := trimmed[0] == '|'
			hasTrailing := trimmed[len(trimmed)-1] == '|'

			var detectedStyle PipeStyle
			switch {
			case hasLeading && hasTrailing:
				detectedStyle = PipeStyleLeadingAndTrailing
			case hasLeading:
				detectedStyle = PipeStyleLeadingOnly
			case hasTrailing:
				detectedStyle = PipeStyleTrailingOnly
			default:
				detectedStyle = PipeStyleNoLeadingOrTrailing
			}

			// Set expected style from first row if consistent mode
			if expectedStyle == "" {
				expectedStyle = detectedStyle
				continue
			}

			// Check for style mismatch
			if detectedStyle != expectedStyle {
				span := lint.Span{
					StartLine:   rowNum,
					StartColumn: 1,
					EndLine:     rowNum,
					EndColumn:   lint.LineLength(ctx.File, rowNum) + 1,
				}
				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
					"Table pipe style").
					WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", expectedStyle, detectedStyle)).
					WithSuggestion(fmt.Sprintf("Use %s pipe style for all table rows", expectedStyle)).
					Build()
				diags = append(diags, diag)
			}
		}

		lineNum = tableEnd + 1
	}

	return diags, nil
}

// TableColumnCountRule checks for consistent column counts in GFM tables.
type TableColumnCountRule struct {
	lint.BaseRule
}

// NewTableColumnCountRule creates a new table column count rule.
func NewTableColumnCountRule() *TableColumnCountRule {
	return &TableColumnCountRule{
		BaseRule: lint.NewLineRule(
			"MD056",
			"table-column-count",
			"Table rows should have consistent column counts",
			[]string{"table"},
			false, // Not auto-fixable.
		),
	}
}

// Apply checks table column consistency. Skipped if not GFM flavor.
func (r *TableColumnCountRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Skip if not GFM flavor.
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	codeBlockLines := ctx.CodeBlockLineSet()
	var diags []lint.Diagnostic

	// Find table-like structures by looking for delimiter rows.
	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		content := lint.LineContent(ctx.File, lineNum)
		if codeBlockLines[lineNum] || !isTableDelimiterRow(content) {
			continue
		}

		// Found delimiter row, check header and data rows.
		delimColCount := countTableColumns(content)

		// Check header row (line before delimiter).
		if lineNum > 1 {
			headerContent := lint.LineContent(ctx.File, lineNum-1)
			if isTableRow(headerContent) {
				headerColCount := countTableColumns(headerContent)
				if headerColCount != delimColCount {
					diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, lineNum-1,
						"Table column count").
						WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", delimColCount, headerColCount)).
						WithSuggestion("Ensure all rows have the same number of columns").
						Build()
					diags = append(diags, diag)
				}
			}
		}

		// Check data rows (lines after delimiter).
		for dataLine := lineNum + 1; dataLine <= ctx.LineCount(); dataLine++ {
			dataContent := lint.LineContent(ctx.File, dataLine)
			if !isTableRow(dataContent) {
				break
			}

			dataColCount := countTableColumns(dataContent)
			if dataColCount != delimColCount {
				diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, dataLine,
					"Table column count").
					WithDetail(fmt.Sprintf("Expected: %d; Actual: %d", delimColCount, dataColCount)).
					WithSuggestion("Ensure all rows have the same number of columns").
					Build()
				diags = append(diags, diag)
			}
		}
	}

	return diags, nil
}

// TableAlignmentRule validates table delimiter row format.
type TableAlignmentRule struct {
	lint.BaseRule
}

// NewTableAlignmentRule creates a new table alignment rule.
func NewTableAlignmentRule() *TableAlignmentRule {
	return &TableAlignmentRule{
		BaseRule: lint.NewLineRule(
			"MDL003",
			"table-alignment",
			"Table delimiter row should be properly formatted",
			[]string{"tables", "gfm", "fixable"},
			true, // Auto-fixable.
		),
	}
}

// Apply checks table delimiter row formatting.
func (r *TableAlignmentRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Skip if not GFM flavor.
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	minDashes := ctx.OptionInt("min_dashes", 3)

	codeBlockLines := ctx.CodeBlockLineSet()
	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		content := lint.LineContent(ctx.File, lineNum)
		if codeBlockLines[lineNum] || !isTableDelimiterRow(content) {
			continue
		}

		// Check each cell in the delimiter row.
		cells := splitTableCells(content)
		for _, cell := range cells {
			cell = bytes.TrimSpace(cell)
			if len(cell) == 0 {
				continue
			}

			// Count dashes.
			dashes := 0
			for _, ch := range cell {
				if ch == '-' {
					dashes++
				}
			}

			if dashes < minDashes {
				span := lint.Span{
					StartLine:   lineNum,
					StartColumn: 1,
					EndLine:     lineNum,
					EndColumn:   lint.LineLength(ctx.File, lineNum) + 1,
				}

				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
					"Table delimiter row format").
					WithDetail(fmt.Sprintf("Expected: at least %d dashes; Actual: %d", minDashes, dashes)).
					WithSuggestion(fmt.Sprintf("Use at least %d dashes in delimiter cells", minDashes)).
					WithFix(r.buildAlignmentFix(ctx.File, lineNum, minDashes)).
					Build()

				diags = append(diags, diag)
				break // One diagnostic per line.
			}
		}
	}

	return diags, nil
}

func (r *TableAlignmentRule) buildAlignmentFix(
	file *mdtoken.Snapshot,
	lineNum int,
	minDashes int,
) fix.FixInfo {
	content := lint.LineContent(file, lineNum)
	cells := splitTableCells(content)

	newCells := make([]string, 0, len(cells))
	for _, cell := range cells {
		cell = bytes.TrimSpace(cell)
		if len(cell) == 0 {
			newCells = append(newCells, strings.Repeat("-", minDashes))
			continue
		}

		// Preserve alignment markers.
		leftAlign := cell[0] == ':'
		rightAlign := cell[len(cell)-1] == ':'

		dashes := strings.Repeat("-", minDashes)
		var newCell string
		switch {
		case leftAlign && rightAlign:
			newCell = ":" + dashes + ":"
		case leftAlign:
			newCell = ":" + dashes
		case rightAlign:
			newCell = dashes + ":"
		default:
			newCell = dashes
		}
		newCells = append(newCells, newCell)
	}

	return fix.FixInfo{
		LineNumber:  lineNum,
		EditColumn:  1,
		DeleteCount: fix.DeleteToEndOfLine,
		InsertText:  "| " + strings.Join(newCells, " | ") + " |",
	}
}

// TableBlankLinesRule ensures blank lines around tables.
type TableBlankLinesRule struct {
	lint.BaseRule
}

// NewTableBlankLinesRule creates a new table blank lines rule.
func NewTableBlankLinesRule() *TableBlankLinesRule {
	return &TableBlankLinesRule{
		BaseRule: lint.NewLineRule(
			"MD058",
			"blanks-around-tables",
			"Tables should be surrounded by blank lines",
			[]string{"table", "blank_lines", "fixable"},
			true, // Auto-fixable.
		),
	}
}

// DefaultSeverity returns info level for this rule.
func (r *TableBlankLinesRule) DefaultSeverity() config.Severity {
	return config.SeverityInfo
}

// Apply checks for blank lines around tables.
func (r *TableBlankLinesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Skip if not GFM flavor.
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	codeBlockLines := ctx.CodeBlockLineSet()
	var diags []lint.Diagnostic

	// Find tables by looking for delimiter rows.
	lineNum := 1
	for lineNum <= ctx.LineCount() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		content := lint.LineContent(ctx.File, lineNum)
		if codeBlockLines[lineNum] || !isTableDelimiterRow(content) {
			lineNum++
			continue
		}

		tableStart, tableEnd := tableExtent(ctx.File, lineNum)

		// Check blank line before.
		if tableStart > 1 && !lint.IsBlankLine(ctx.File, tableStart-1) {
			diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, tableStart,
				"Tables should be surrounded by blank lines").
				WithSuggestion("Add a blank line before the table").
				WithFix(fix.FixInfo{LineNumber: tableStart, EditColumn: 1, InsertText: "\n"}).
				Build()
			diags = append(diags, diag)
		}

		// Check blank line after.
		if tableEnd < ctx.LineCount() && !lint.IsBlankLine(ctx.File, tableEnd+1) {
			endCol := lint.LineLength(ctx.File, tableEnd) + 1
			diag := lint.NewDiagnosticOnLine(r.ID(), ctx.File.Path, tableEnd,
				"Tables should be surrounded by blank lines").
				WithSuggestion("Add a blank line after the table").
				WithFix(fix.FixInfo{LineNumber: tableEnd, EditColumn: endCol, InsertText: "\n"}).
				Build()
			diags = append(diags, diag)
		}

		lineNum = tableEnd + 1
	}

	return diags, nil
}

// isTableDelimiterRow checks if a line is a table delimiter row (| --- | --- |).
func isTableDelimiterRow(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return false
	}

	// Must contain pipes and dashes.
	hasPipe := bytes.Contains(trimmed, []byte("|"))
	hasDash := bytes.Contains(trimmed, []byte("-"))
	if !hasPipe || !hasDash {
		return false
	}

	// Check that it only contains valid delimiter characters.
	for _, ch := range trimmed {
		switch ch {
		case '|', '-', ':', ' ', '\t':
			continue
		default:
			return false
		}
	}

	return true
}

// isTableRow checks if a line looks like a table row.
func isTableRow(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return false
	}

	// Must start and end with pipe (or start/end with content and have pipes).
	return bytes.Contains(trimmed, []byte("|"))
}

// countTableColumns counts the number of columns in a table row.
func countTableColumns(content []byte) int {
	return len(splitTableCells(content))
}

// splitTableCells splits a table row into cells.
func splitTableCells(content []byte) [][]byte {
	trimmed := bytes.TrimSpace(content)

	// Remove leading and trailing pipes.
	if len(trimmed) > 0 && trimmed[0] == '|' {
		trimmed = trimmed[1:]
	}
	if len(trimmed) > 0 && trimmed[len(trimmed)-1] == '|' {
		trimmed = trimmed[:len(trimmed)-1]
	}

	if len(trimmed) == 0 {
		return nil
	}

	return bytes.Split(trimmed, []byte("|"))
}

// TableColumnStyleRule checks for consistent column spacing style in tables.
type TableColumnStyleRule struct {
	lint.BaseRule
}

// NewTableColumnStyleRule creates a new table column style rule.
func NewTableColumnStyleRule() *TableColumnStyleRule {
	return &TableColumnStyleRule{
		BaseRule: lint.NewLineRule(
			"MD060",
			"table-column-style",
			"Table column style should be consistent",
			[]string{"table"},
			false, // Not auto-fixable (style preference).
		),
	}
}

// DefaultEnabled returns false - this is an optional style rule.
func (r *TableColumnStyleRule) DefaultEnabled() bool {
	return false
}

// ColumnStyle represents the column spacing style of tables.
type ColumnStyle string

const (
	// ColumnStyleAny allows any consistent style.
	ColumnStyleAny ColumnStyle = "any"
	// ColumnStyleAligned requires columns to be aligned with padding.
	ColumnStyleAligned ColumnStyle = "aligned"
	// ColumnStyleCompact uses minimal spacing (single space padding).
	ColumnStyleCompact ColumnStyle = "compact"
	// ColumnStyleTight uses no extra spacing.
	ColumnStyleTight ColumnStyle = "tight"
)

// Apply checks table column spacing style.
func (r *TableColumnStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Skip if not GFM flavor.
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	configStyle := ColumnStyle(ctx.OptionString("style", string(ColumnStyleAny)))
	if configStyle == ColumnStyleAny {
		return nil, nil // Any style is allowed
	}

	codeBlockLines := ctx.CodeBlockLineSet()
	var diags []lint.Diagnostic

	// Find tables by looking for delimiter rows.
	lineNum := 1
	for lineNum <= ctx.LineCount() {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		content := lint.LineContent(ctx.File, lineNum)
		if codeBlockLines[lineNum] || !isTableDelimiterRow(content) {
			lineNum++
			continue
		}

		tableStart, tableEnd := tableExtent(ctx.File, lineNum)

		// Check style of each row
		for rowNum := tableStart; rowNum <= tableEnd; rowNum++ {
			rowContent := lint.LineContent(ctx.File, rowNum)
			detectedStyle := r.detectColumnStyle(rowContent)

			if detectedStyle != configStyle {
				span := lint.Span{
					StartLine:   rowNum,
					StartColumn: 1,
					EndLine:     rowNum,
					EndColumn:   lint.LineLength(ctx.File, rowNum) + 1,
				}
				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, span,
					"Table column style").
					WithDetail(fmt.Sprintf("Expected: %s; Actual: %s", configStyle, detectedStyle)).
					WithSuggestion(fmt.Sprintf("Use %s column style", configStyle)).
					Build()
				diags = append(diags, diag)
			}
		}

		lineNum = tableEnd + 1
	}

	return diags, nil
}

func (r *TableColumnStyleRule) detectColumnStyle(content []byte) ColumnStyle {
	cells := splitTableCells(content)
	if len(cells) == 0 {
		return ColumnStyleCompact
	}

	// Check if all cells have consistent padding
	hasLeadingSpace := true
	hasTrailingSpace := true
	allPaddedSame := true
	firstPadding := -1

	for _, cell := range cells {
		if len(cell) == 0 {
			continue
		}

		leadingSpaces := 0
		for _, ch := range cell {
			if ch != ' ' {
				break
			}
			leadingSpaces++
		}

		trailingSpaces := 0
		for i := len(cell) - 1; i >= 0; i-- {
			if cell[i] != ' ' {
				break
			}
			trailingSpaces++
		}

		if leadingSpaces == 0 {
			hasLeadingSpace = false
		}
		if trailingSpaces == 0 {
			hasTrailingSpace = false
		}

		totalPadding := leadingSpaces + trailingSpaces
		if firstPadding < 0 {
			firstPadding = totalPadding
		} else if totalPadding != firstPadding {
			allPaddedSame = false
		}
	}

	switch {
	case !hasLeadingSpace && !hasTrailingSpace:
		return ColumnStyleTight
	case hasLeadingSpace && hasTrailingSpace && allPaddedSame:
		if firstPadding == 2 { // Single space on each side
			return ColumnStyleCompact
		}
		return ColumnStyleAligned
	default:
		return ColumnStyleCompact
	}
}
