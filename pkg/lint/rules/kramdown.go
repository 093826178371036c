package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/lint"
)

// The KMD family checks Kramdown-specific extension syntax (IALs, ALDs,
// definition lists, footnotes, block extensions, math delimiters) that the
// CommonMark-oriented MDxxx rules know nothing about. All eleven default to
// disabled; the "kramdown" preset (see packs.go) turns them on together.
//
// Kramdown documents are scanned line-by-line rather than through the AST,
// mirroring how the rest of the rule set treats raw HTML/extension syntax
// goldmark doesn't parse into structured nodes.

var (
	kmdIALLineRE       = regexp.MustCompile(`^\{:`)
	kmdValidIALRE      = regexp.MustCompile(`^\{:\s*(?:[#.][^\s}{]+|[A-Za-z_][\w-]*(?:=(?:"[^"]*"|'[^']*'|[\w-]+))?)\s*(?:\s+(?:[#.][^\s}{]+|[A-Za-z_][\w-]*(?:=(?:"[^"]*"|'[^']*'|[\w-]+))?))*\s*\}\s*$`)
	kmdEmptyIALRE      = regexp.MustCompile(`^\{:\s*\}\s*$`)
	kmdInlineIALRE     = regexp.MustCompile(`\{:[^}]*\}`)
	kmdInlineValidRE   = regexp.MustCompile(`^\{:\s*(?:[#.][^\s}{]+|[A-Za-z_][\w-]*(?:=(?:"[^"]*"|'[^']*'|[\w-]+))?)?\s*(?:\s+(?:[#.][^\s}{]+|[A-Za-z_][\w-]*(?:=(?:"[^"]*"|'[^']*'|[\w-]+))?))*\s*\}$`)
	kmdALDDefRE        = regexp.MustCompile(`^\{:([A-Za-z][\w-]*):\s`)
	kmdALDRefRE        = regexp.MustCompile(`\{:([A-Za-z][\w-]*)\}`)
	kmdFootnoteDefRE   = regexp.MustCompile(`^\[\^([^\]]+)\]:`)
	kmdFootnoteRefRE   = regexp.MustCompile(`\[\^([^\]]+)\]`)
	kmdATXHeadingRE    = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s*\{[^}]*\})?\s*$`)
	kmdExplicitIDRE    = regexp.MustCompile(`\{[^}]*#([A-Za-z][\w-]*)[^}]*\}`)
	kmdBlockExtOpenRE  = regexp.MustCompile(`^\{::(\w+)(?:\s[^}]*)?\}$`)
	kmdBlockExtCloseRE = regexp.MustCompile(`^\{:/(\w+)\}$`)
	kmdBlockExtSelfRE  = regexp.MustCompile(`^\{::(\w+)[^}]*/\}$`)
)

func kmdIsCodeFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// kramdownSlug reproduces Kramdown's auto-ID algorithm: lowercase, keep
// alphanumerics and hyphens, collapse runs of spaces/hyphens into one '-'.
func kramdownSlug(text string) string {
	if pos := strings.LastIndex(text, "{"); pos >= 0 && strings.HasSuffix(text, "}") {
		text = strings.TrimSpace(text[:pos])
	}

	var b strings.Builder
	prevHyphen := false
	for _, ch := range text {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
			prevHyphen = false
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune(ch - 'A' + 'a')
			prevHyphen = false
		case (ch == ' ' || ch == '-') && !prevHyphen:
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func kmdPos(lineNum, col int) lint.Span {
	return lint.Span{StartLine: lineNum, StartColumn: col, EndLine: lineNum, EndColumn: col}
}

func kmdLineText(ctx *lint.RuleContext, lineNum int) string {
	return string(lint.LineContent(ctx.File, lineNum))
}

// IALSyntaxRule (KMD001) checks that whole-line IALs (`{: #id .class
// key="value"}`) are well-formed.
type IALSyntaxRule struct {
	lint.BaseRule
}

func NewIALSyntaxRule() *IALSyntaxRule {
	return &IALSyntaxRule{
		BaseRule: lint.NewBaseRule(
			"KMD001",
			"ial-syntax",
			"IAL (Inline Attribute List) syntax must be well-formed",
			[]string{"kramdown", "ial", "attributes", "fixable"},
			true,
		),
	}
}

func (r *IALSyntaxRule) DefaultEnabled() bool { return false }

func (r *IALSyntaxRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *IALSyntaxRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic
	inCodeBlock := false

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		trimmed := strings.TrimSpace(kmdLineText(ctx, lineNum))

		if kmdIsCodeFence(trimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock || !kmdIALLineRE.MatchString(trimmed) {
			continue
		}
		if kmdValidIALRE.MatchString(trimmed) || kmdEmptyIALRE.MatchString(trimmed) {
			continue
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, 1),
			"IAL (Inline Attribute List) syntax must be well-formed").
			WithContext(trimmed).
			WithSuggestion("Fix or remove the malformed IAL").
			WithFix(fix.FixInfo{LineNumber: lineNum, DeleteCount: fix.DeleteWholeLine}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// ALDReferenceDefinedRule (KMD002) checks that every `{:name}` ALD reference
// has a matching `{:name: attrs}` definition somewhere in the document.
type ALDReferenceDefinedRule struct {
	lint.BaseRule
}

func NewALDReferenceDefinedRule() *ALDReferenceDefinedRule {
	return &ALDReferenceDefinedRule{
		BaseRule: lint.NewBaseRule(
			"KMD002",
			"ald-reference-defined",
			"ALD references must have a matching definition",
			[]string{"kramdown", "ald", "attributes"},
			false,
		),
	}
}

func (r *ALDReferenceDefinedRule) DefaultEnabled() bool { return false }

func (r *ALDReferenceDefinedRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *ALDReferenceDefinedRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	definitions := map[string]bool{}
	type ref struct {
		name string
		line int
	}
	var refs []ref
	inCodeBlock := false

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return nil, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		trimmed := kmdLineText(ctx, lineNum)
		fenceTrimmed := strings.TrimSpace(trimmed)
		if kmdIsCodeFence(fenceTrimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}

		if m := kmdALDDefRE.FindStringSubmatch(trimmed); m != nil {
			definitions[m[1]] = true
			continue
		}
		for _, m := range kmdALDRefRE.FindAllStringSubmatch(trimmed, -1) {
			refs = append(refs, ref{name: m[1], line: lineNum})
		}
	}

	var diags []lint.Diagnostic
	for _, rf := range refs {
		if definitions[rf.name] {
			continue
		}
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(rf.line, 1),
			fmt.Sprintf("ALD reference '{:%s}' has no matching definition", rf.name)).
			WithSuggestion(fmt.Sprintf("Add a '{:%s: ...}' definition", rf.name)).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// DefinitionListPairingRule (KMD003) checks that definition-list terms are
// followed by a `: definition` line.
type DefinitionListPairingRule struct {
	lint.BaseRule
}

func NewDefinitionListPairingRule() *DefinitionListPairingRule {
	return &DefinitionListPairingRule{
		BaseRule: lint.NewBaseRule(
			"KMD003",
			"definition-list-term-has-definition",
			"Definition list terms must be followed by a definition",
			[]string{"kramdown", "definition-lists", "fixable"},
			true,
		),
	}
}

func (r *DefinitionListPairingRule) DefaultEnabled() bool { return false }

func (r *DefinitionListPairingRule) DefaultSeverity() config.Severity { return config.SeverityError }

func kmdIsDefinitionLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, ": ") || trimmed == ":"
}

func kmdLooksLikeDLTerm(line string) bool {
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		return false
	}
	switch line[0] {
	case ':', '#', '-', '*', '+', '>', '`', '~', '|', '!', '[':
		return false
	}
	for _, prefix := range []string{"```", "~~~", "<!--", "---", "===", "***"} {
		if strings.HasPrefix(line, prefix) {
			return false
		}
	}
	return true
}

func (r *DefinitionListPairingRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	total := ctx.LineCount()
	rawLines := make([]string, total)
	docHasDL := false
	for i := 1; i <= total; i++ {
		rawLines[i-1] = kmdLineText(ctx, i)
		if kmdIsDefinitionLine(rawLines[i-1]) {
			docHasDL = true
		}
	}
	if !docHasDL {
		return nil, nil
	}

	var diags []lint.Diagnostic
	inCodeBlock := false

	for i := 0; i < total; i++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		line := rawLines[i]
		if kmdIsCodeFence(line) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock || !kmdLooksLikeDLTerm(line) {
			continue
		}

		foundDef := false
		for j := i + 1; j < total && j <= i+3; j++ {
			if kmdIsDefinitionLine(rawLines[j]) {
				foundDef = true
				break
			}
			if rawLines[j] == "" {
				continue
			}
			break
		}
		if foundDef {
			continue
		}

		lineNum := i + 1
		insertCol := len(line) + 1

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, insertCol),
			"Term has no definition").
			WithContext(line).
			WithSuggestion("Add a ': definition' line").
			WithFix(fix.FixInfo{LineNumber: lineNum, EditColumn: insertCol, InsertText: "\n: "}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// FootnotePairingRule (KMD004) checks that footnote references and
// definitions pair up in both directions.
type FootnotePairingRule struct {
	lint.BaseRule
}

func NewFootnotePairingRule() *FootnotePairingRule {
	return &FootnotePairingRule{
		BaseRule: lint.NewBaseRule(
			"KMD004",
			"footnote-refs-and-defs-paired",
			"Footnote references and definitions must pair up",
			[]string{"kramdown", "footnotes", "fixable"},
			true,
		),
	}
}

func (r *FootnotePairingRule) DefaultEnabled() bool { return false }

func (r *FootnotePairingRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *FootnotePairingRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	definitions := map[string]int{}
	references := map[string]int{}
	inCodeBlock := false

	total := ctx.LineCount()
	for lineNum := 1; lineNum <= total; lineNum++ {
		if ctx.Cancelled() {
			return nil, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		line := kmdLineText(ctx, lineNum)
		if kmdIsCodeFence(line) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}

		isDef := kmdFootnoteDefRE.MatchString(line)
		if m := kmdFootnoteDefRE.FindStringSubmatch(line); m != nil {
			label := strings.ToLower(m[1])
			if _, ok := definitions[label]; !ok {
				definitions[label] = lineNum
			}
		}
		if !isDef {
			for _, m := range kmdFootnoteRefRE.FindAllStringSubmatch(line, -1) {
				label := strings.ToLower(m[1])
				if _, ok := references[label]; !ok {
					references[label] = lineNum
				}
			}
		}
	}

	var diags []lint.Diagnostic

	var undefinedLabels []string
	for label := range references {
		if _, ok := definitions[label]; !ok {
			undefinedLabels = append(undefinedLabels, label)
		}
	}
	sort.Slice(undefinedLabels, func(i, j int) bool { return references[undefinedLabels[i]] < references[undefinedLabels[j]] })

	lastCol := lint.LineLength(ctx.File, total) + 1

	for _, label := range undefinedLabels {
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(references[label], 1),
			"Footnote references and definitions must pair up").
			WithDetail(fmt.Sprintf("Reference without definition: [^%s]", label)).
			WithSuggestion("Add a matching footnote definition").
			WithFix(fix.FixInfo{
				LineNumber: total,
				EditColumn: lastCol,
				InsertText: fmt.Sprintf("\n[^%s]: ", label),
			}).
			Build()
		diags = append(diags, diag)
	}

	var unusedLabels []string
	for label := range definitions {
		if _, ok := references[label]; !ok {
			unusedLabels = append(unusedLabels, label)
		}
	}
	sort.Slice(unusedLabels, func(i, j int) bool { return definitions[unusedLabels[i]] < definitions[unusedLabels[j]] })

	for _, label := range unusedLabels {
		lineNum := definitions[label]
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, 1),
			"Footnote references and definitions must pair up").
			WithDetail(fmt.Sprintf("Definition without reference: [^%s]", label)).
			WithSuggestion("Remove the unused footnote definition").
			WithFix(fix.FixInfo{LineNumber: lineNum, DeleteCount: fix.DeleteWholeLine}).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// DuplicateHeadingIDRule (KMD005) checks that Kramdown heading IDs
// (explicit IAL or auto-slug) are unique within the document.
type DuplicateHeadingIDRule struct {
	lint.BaseRule
}

func NewDuplicateHeadingIDRule() *DuplicateHeadingIDRule {
	return &DuplicateHeadingIDRule{
		BaseRule: lint.NewBaseRule(
			"KMD005",
			"no-duplicate-heading-ids",
			"Heading IDs must be unique within the document",
			[]string{"kramdown", "headings", "ids", "fixable"},
			true,
		),
	}
}

func (r *DuplicateHeadingIDRule) DefaultEnabled() bool { return false }

func (r *DuplicateHeadingIDRule) DefaultSeverity() config.Severity { return config.SeverityError }

type kmdSeenID struct {
	firstLine int
	count     int
}

func (r *DuplicateHeadingIDRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	seen := map[string]*kmdSeenID{}
	inCodeBlock := false
	var diags []lint.Diagnostic

	type prevText struct {
		text string
		line int
	}
	var prev *prevText

	report := func(id string, headingLine int) {
		entry, ok := seen[id]
		if !ok {
			entry = &kmdSeenID{firstLine: headingLine}
			seen[id] = entry
		}
		entry.count++
		if entry.count <= 1 {
			return
		}

		newID := fmt.Sprintf("%s-%d", id, entry.count)
		fixText := fmt.Sprintf(" {#%s}", newID)
		insertCol := len(kmdLineText(ctx, headingLine)) + 1

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(headingLine, insertCol),
			"Heading IDs must be unique within the document").
			WithDetail(fmt.Sprintf("Duplicate ID: %s (first defined on line %d)", id, entry.firstLine)).
			WithSuggestion("Give this heading a distinct IAL id").
			WithFix(fix.FixInfo{LineNumber: headingLine, EditColumn: insertCol, InsertText: fixText}).
			Build()
		diags = append(diags, diag)
	}

	total := ctx.LineCount()
	for lineNum := 1; lineNum <= total; lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		rawLine := kmdLineText(ctx, lineNum)
		trimmed := rawLine

		if kmdIsCodeFence(trimmed) {
			inCodeBlock = !inCodeBlock
			prev = nil
			continue
		}
		if inCodeBlock {
			continue
		}

		isSetextH1 := trimmed != "" && strings.Count(trimmed, "=") == len(trimmed)
		isSetextH2 := len(trimmed) >= 2 && strings.Count(trimmed, "-") == len(trimmed)

		if (isSetextH1 || isSetextH2) && prev != nil {
			headingText, headingLine := prev.text, prev.line
			prev = nil

			id := kramdownSlug(headingText)
			if m := kmdExplicitIDRE.FindStringSubmatch(headingText); m != nil {
				id = m[1]
			}
			if id != "" {
				report(id, headingLine)
			}
			continue
		}

		if m := kmdATXHeadingRE.FindStringSubmatch(trimmed); m != nil {
			headingText := strings.TrimSpace(m[2])
			id := kramdownSlug(headingText)
			if explicit := kmdExplicitIDRE.FindStringSubmatch(trimmed); explicit != nil {
				id = explicit[1]
			}
			if id != "" {
				report(id, lineNum)
			}
			prev = nil
			continue
		}

		if trimmed == "" {
			prev = nil
		} else {
			prev = &prevText{text: trimmed, line: lineNum}
		}
	}

	return diags, nil
}

// BlockExtensionBalanceRule (KMD006) checks that `{::name}...{:/name}` block
// extensions are properly opened, matched, and closed.
type BlockExtensionBalanceRule struct {
	lint.BaseRule
}

func NewBlockExtensionBalanceRule() *BlockExtensionBalanceRule {
	return &BlockExtensionBalanceRule{
		BaseRule: lint.NewBaseRule(
			"KMD006",
			"block-extension-balance",
			"Block extensions must be properly opened and closed",
			[]string{"kramdown", "block-extensions"},
			false,
		),
	}
}

func (r *BlockExtensionBalanceRule) DefaultEnabled() bool { return false }

func (r *BlockExtensionBalanceRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *BlockExtensionBalanceRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	type opener struct {
		name string
		line int
	}
	var stack []opener
	inCodeBlock := false
	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		trimmed := strings.TrimSpace(kmdLineText(ctx, lineNum))

		if kmdIsCodeFence(trimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock || kmdBlockExtSelfRE.MatchString(trimmed) {
			continue
		}

		if m := kmdBlockExtOpenRE.FindStringSubmatch(trimmed); m != nil {
			stack = append(stack, opener{name: m[1], line: lineNum})
			continue
		}

		if m := kmdBlockExtCloseRE.FindStringSubmatch(trimmed); m != nil {
			closeName := m[1]
			if len(stack) == 0 {
				diags = append(diags, lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, 1),
					fmt.Sprintf("Unexpected closing tag '{:/%s}' with no matching opening tag", closeName)).
							Build())
				continue
			}
			top := stack[len(stack)-1]
			if top.name == closeName {
				stack = stack[:len(stack)-1]
				continue
			}
			// The mismatched closer still ends the innermost block, so the
			// same opener is not reported a second time as unclosed.
			stack = stack[:len(stack)-1]
			diags = append(diags, lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, 1),
				fmt.Sprintf("Mismatched block extension: opened '{::%s}' but closed with '{:/%s}'", top.name, closeName)).
					Build())
		}
	}

	for _, open := range stack {
		diags = append(diags, lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(open.line, 1),
			fmt.Sprintf("Unclosed block extension '{::%s}' opened on line %d", open.name, open.line)).
			Build())
	}

	return diags, nil
}

// MathDelimiterBalanceRule (KMD007) checks that `$$...$$` display-math
// fences are matched.
type MathDelimiterBalanceRule struct {
	lint.BaseRule
}

func NewMathDelimiterBalanceRule() *MathDelimiterBalanceRule {
	return &MathDelimiterBalanceRule{
		BaseRule: lint.NewBaseRule(
			"KMD007",
			"math-block-delimiters",
			"Math block '$$' delimiters must be matched",
			[]string{"kramdown", "math"},
			false,
		),
	}
}

func (r *MathDelimiterBalanceRule) DefaultEnabled() bool { return false }

func (r *MathDelimiterBalanceRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *MathDelimiterBalanceRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	inCodeBlock := false
	openLine := 0

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return nil, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		trimmed := strings.TrimSpace(kmdLineText(ctx, lineNum))

		if kmdIsCodeFence(trimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}

		if trimmed == "$$" {
			if openLine != 0 {
				openLine = 0
			} else {
				openLine = lineNum
			}
		}
	}

	if openLine == 0 {
		return nil, nil
	}

	diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(openLine, 1),
		"Math block '$$' delimiters must be matched").
		WithDetail(fmt.Sprintf("Opening '$$' on line %d has no matching closing '$$'", openLine)).
		Build()

	return []lint.Diagnostic{diag}, nil
}

// IALPlacementRule (KMD008) checks that a block IAL immediately follows the
// block it annotates, with no intervening blank line.
type IALPlacementRule struct {
	lint.BaseRule
}

func NewIALPlacementRule() *IALPlacementRule {
	return &IALPlacementRule{
		BaseRule: lint.NewBaseRule(
			"KMD008",
			"ial-placement",
			"Block IALs must immediately follow the block they annotate",
			[]string{"kramdown", "ial", "attributes", "fixable"},
			true,
		),
	}
}

func (r *IALPlacementRule) DefaultEnabled() bool { return false }

func (r *IALPlacementRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *IALPlacementRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic
	inCodeBlock := false

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		trimmed := strings.TrimSpace(kmdLineText(ctx, lineNum))

		if kmdIsCodeFence(trimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock || !kmdIALLineRE.MatchString(trimmed) {
			continue
		}
		if !kmdValidIALRE.MatchString(trimmed) && !kmdEmptyIALRE.MatchString(trimmed) {
			continue // malformed IALs are KMD001's concern
		}
		if lineNum == 1 || !lint.IsBlankLine(ctx.File, lineNum-1) {
			continue
		}

		blankStart := lineNum - 1
		for blankStart > 1 && lint.IsBlankLine(ctx.File, blankStart-1) {
			blankStart--
		}

		builder := fix.NewBuilder()
		for blank := blankStart; blank < lineNum; blank++ {
			builder.DeleteLine(blank)
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, 1),
			"IAL is separated from its block by a blank line").
			WithSuggestion("Move the IAL directly after the block it annotates").
			WithFixes(builder).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// SpanIALPlacementRule (KMD009) checks that inline IALs immediately follow
// the span they annotate, with no stray whitespace in between.
type SpanIALPlacementRule struct {
	lint.BaseRule
}

func NewSpanIALPlacementRule() *SpanIALPlacementRule {
	return &SpanIALPlacementRule{
		BaseRule: lint.NewBaseRule(
			"KMD009",
			"span-ial-placement",
			"Inline IALs must immediately follow the span they annotate",
			[]string{"kramdown", "ial", "attributes", "fixable"},
			true,
		),
	}
}

func (r *SpanIALPlacementRule) DefaultEnabled() bool { return false }

func (r *SpanIALPlacementRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *SpanIALPlacementRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic
	inCodeBlock := false

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		raw := kmdLineText(ctx, lineNum)
		trimmed := strings.TrimSpace(raw)

		if kmdIsCodeFence(trimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		if trimmed == raw && kmdIALLineRE.MatchString(trimmed) {
			continue // whole-line block IAL, not a span IAL
		}

		for _, loc := range kmdInlineIALRE.FindAllStringIndex(raw, -1) {
			start, end := loc[0], loc[1]
			if raw[start:end] == trimmed {
				continue // the entire trimmed line, i.e. still a block IAL
			}
			if !kmdInlineValidRE.MatchString(raw[start:end]) {
				continue // KMD001-style malformed IAL, not this rule's concern
			}
			gap := 0
			for start-gap-1 >= 0 && (raw[start-gap-1] == ' ' || raw[start-gap-1] == '\t') {
				gap++
			}
			if gap == 0 || start-gap == 0 {
				continue
			}

			gapCol := lint.ColumnOf([]byte(raw), start-gap)

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, gapCol),
				"Whitespace between a span and its IAL breaks the attribute association").
				WithSuggestion("Remove the whitespace before the IAL").
				WithFix(fix.FixInfo{LineNumber: lineNum, EditColumn: gapCol, DeleteCount: gap}).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// ALDOrderingRule (KMD010) checks that an ALD is defined before its first
// use in document order.
type ALDOrderingRule struct {
	lint.BaseRule
}

func NewALDOrderingRule() *ALDOrderingRule {
	return &ALDOrderingRule{
		BaseRule: lint.NewBaseRule(
			"KMD010",
			"ald-defined-before-use",
			"ALDs must be defined before their first reference",
			[]string{"kramdown", "ald", "attributes"},
			false,
		),
	}
}

func (r *ALDOrderingRule) DefaultEnabled() bool { return false }

func (r *ALDOrderingRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *ALDOrderingRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	defLine := map[string]int{}
	firstRefLine := map[string]int{}
	inCodeBlock := false

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return nil, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		line := kmdLineText(ctx, lineNum)
		fenceTrimmed := strings.TrimSpace(line)
		if kmdIsCodeFence(fenceTrimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}

		if m := kmdALDDefRE.FindStringSubmatch(line); m != nil {
			if _, ok := defLine[m[1]]; !ok {
				defLine[m[1]] = lineNum
			}
			continue
		}
		for _, m := range kmdALDRefRE.FindAllStringSubmatch(line, -1) {
			if _, ok := firstRefLine[m[1]]; !ok {
				firstRefLine[m[1]] = lineNum
			}
		}
	}

	var names []string
	for name := range firstRefLine {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return firstRefLine[names[i]] < firstRefLine[names[j]] })

	var diags []lint.Diagnostic
	for _, name := range names {
		def, ok := defLine[name]
		ref := firstRefLine[name]
		if ok && def < ref {
			continue
		}

		msg := fmt.Sprintf("ALD '{:%s}' is referenced before it is defined", name)
		if !ok {
			msg = fmt.Sprintf("ALD '{:%s}' is referenced but never defined", name)
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(ref, 1), msg).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// DuplicateALDNameRule (KMD011) checks that an ALD identifier is defined at
// most once per document.
type DuplicateALDNameRule struct {
	lint.BaseRule
}

func NewDuplicateALDNameRule() *DuplicateALDNameRule {
	return &DuplicateALDNameRule{
		BaseRule: lint.NewBaseRule(
			"KMD011",
			"ald-name-unique",
			"ALD names must not collide with another ALD in the same document",
			[]string{"kramdown", "ald", "attributes", "fixable"},
			true,
		),
	}
}

func (r *DuplicateALDNameRule) DefaultEnabled() bool { return false }

func (r *DuplicateALDNameRule) DefaultSeverity() config.Severity { return config.SeverityError }

func (r *DuplicateALDNameRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	firstLine := map[string]int{}
	var diags []lint.Diagnostic
	inCodeBlock := false

	for lineNum := 1; lineNum <= ctx.LineCount(); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		line := kmdLineText(ctx, lineNum)
		fenceTrimmed := strings.TrimSpace(line)
		if kmdIsCodeFence(fenceTrimmed) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}

		m := kmdALDDefRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		if first, ok := firstLine[name]; ok {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, kmdPos(lineNum, 1),
				"ALD names must not collide with another ALD in the same document").
				WithDetail(fmt.Sprintf("ALD %q first declared on line %d", name, first)).
				WithSuggestion("Remove the duplicate ALD").
				WithFix(fix.FixInfo{LineNumber: lineNum, DeleteCount: fix.DeleteWholeLine}).
				Build()
			diags = append(diags, diag)
			continue
		}
		firstLine[name] = lineNum
	}

	return diags, nil
}
