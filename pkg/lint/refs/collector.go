package refs

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// Collect scans the token vector and source to build a reference Context.
// The flat vector is already in document order, so collection is a single
// linear pass rather than a tree walk.
func Collect(file *mdtoken.Snapshot) *Context {
	if file == nil {
		return NewContext(nil)
	}

	coll := &collector{ctx: NewContext(file)}
	coll.collectTokens()
	coll.collectDefinitionsFromSource()
	coll.resolveReferences()

	return coll.ctx
}

// collector builds a Context from a snapshot.
type collector struct {
	ctx *Context
}

// collectTokens visits every token once, gathering anchors and usages.
func (c *collector) collectTokens() {
	for idx := range c.ctx.File.Tokens {
		tok := c.ctx.File.Tokens[idx]
		switch tok.Kind {
		case mdtoken.KindHeading:
			c.collectHeadingAnchor(tok)
		case mdtoken.KindLink:
			c.collectLinkUsage(idx, tok, false)
		case mdtoken.KindImage:
			c.collectLinkUsage(idx, tok, true)
		case mdtoken.KindHTMLBlock, mdtoken.KindHTMLInline:
			c.collectHTMLAnchors(tok)
		}
	}
}

// collectHeadingAnchor generates an anchor from a heading.
func (c *collector) collectHeadingAnchor(tok mdtoken.Token) {
	if tok.Text == "" {
		return
	}
	c.ctx.Anchors.AddFromHeading(tok.Text, tokenSpan(tok))
}

func tokenSpan(tok mdtoken.Token) Span {
	return Span{
		StartLine:   tok.StartLine,
		StartColumn: tok.StartColumn,
		EndLine:     tok.EndLine,
		EndColumn:   tok.EndColumn,
	}
}

// collectLinkUsage records a link or image usage.
func (c *collector) collectLinkUsage(idx int, tok mdtoken.Token, isImage bool) {
	dest := tok.LinkDestination()

	usage := &ReferenceUsage{
		IsImage:     isImage,
		Text:        tok.Text,
		Destination: dest,
		Fragment:    ExtractFragment(dest),
		Position:    tokenSpan(tok),
		TokenIdx:    idx,
	}

	// Detect reference style by examining source
	style, label := c.detectLinkStyle(tok, isImage)
	usage.Style = style
	usage.Label = label
	usage.NormalizedLabel = NormalizeLabel(label)

	c.ctx.Usages = append(c.ctx.Usages, usage)
}

// detectLinkStyle examines the source to determine the link's syntax style.
func (c *collector) detectLinkStyle(tok mdtoken.Token, isImage bool) (ReferenceStyle, string) {
	// The parser adapter tags autolinks directly.
	if tok.Attrs["autolink"] == "true" {
		return StyleAutolink, ""
	}

	if tok.StartLine < 1 || c.ctx.File == nil || tok.StartLine > c.ctx.File.Lines.Count() {
		return StyleInline, ""
	}

	// Get the source line containing the link
	lineInfo := c.ctx.File.Lines.Entries[tok.StartLine-1]
	line := c.ctx.File.Content[lineInfo.StartOffset:lineInfo.NewlineStart]

	// Look for reference patterns in the line
	// This is a simplified heuristic based on source inspection
	text := tok.Text

	// Check for full reference: [text][label]
	if idx := findFullReference(line, text); idx >= 0 {
		label := extractFullReferenceLabel(line, idx, len(text))
		if label != "" {
			return StyleFull, label
		}
	}

	// Check for collapsed reference: [label][]
	if isCollapsedReference(line, text) {
		return StyleCollapsed, text
	}

	// Check for shortcut reference: [label] (no following brackets or parens)
	if isShortcutReference(line, text, isImage) {
		return StyleShortcut, text
	}

	// Default to inline
	return StyleInline, ""
}

// findFullReference looks for [text][label] pattern.
func findFullReference(line []byte, _ string) int {
	// Look for ][
	pattern := "]" + "["
	idx := bytes.Index(line, []byte(pattern))
	return idx
}

// extractFullReferenceLabel extracts the label from [text][label].
func extractFullReferenceLabel(line []byte, closeBracketIdx, _ int) string {
	// Find the opening [ of the label part
	start := closeBracketIdx + 2 // Skip ][
	if start >= len(line) {
		return ""
	}

	// Find closing ]
	end := bytes.IndexByte(line[start:], ']')
	if end < 0 {
		return ""
	}

	return string(line[start : start+end])
}

// isCollapsedReference checks for [label][] pattern.
func isCollapsedReference(line []byte, text string) bool {
	pattern := "[" + text + "][]"
	return bytes.Contains(line, []byte(pattern))
}

// isShortcutReference checks for [label] without following () or [].
func isShortcutReference(line []byte, text string, isImage bool) bool {
	// Build the pattern to look for
	var prefix string
	if isImage {
		prefix = "!["
	} else {
		prefix = "["
	}
	pattern := prefix + text + "]"
	patternBytes := []byte(pattern)

	idx := bytes.Index(line, patternBytes)
	if idx < 0 {
		return false
	}

	// Check what follows the closing bracket
	afterIdx := idx + len(patternBytes)
	if afterIdx >= len(line) {
		return true // Nothing follows - shortcut
	}

	nextChar := line[afterIdx]
	// If followed by ( or [, it's inline or full reference
	if nextChar == '(' || nextChar == '[' {
		return false
	}

	return true
}

// collectHTMLAnchors extracts id and name attributes from HTML.
func (c *collector) collectHTMLAnchors(tok mdtoken.Token) {
	content := c.tokenLineContent(tok)
	if len(content) == 0 {
		return
	}

	pos := tokenSpan(tok)

	// Extract id attributes: id="value" or id='value'
	c.extractHTMLAttribute(content, "id", AnchorFromHTMLID, pos)

	// Extract name attributes from anchors: name="value"
	c.extractHTMLAttribute(content, "name", AnchorFromHTMLName, pos)
}

// tokenLineContent returns the content of the token's first source line.
func (c *collector) tokenLineContent(tok mdtoken.Token) []byte {
	if tok.StartLine < 1 || tok.StartLine > c.ctx.File.Lines.Count() {
		return nil
	}
	lineInfo := c.ctx.File.Lines.Entries[tok.StartLine-1]
	return c.ctx.File.Content[lineInfo.StartOffset:lineInfo.NewlineStart]
}

// htmlAttrPattern matches HTML attributes like id="value" or id='value'.
var htmlAttrPattern = regexp.MustCompile(`(?i)\b(id|name)\s*=\s*["']([^"']+)["']`)

// extractHTMLAttribute finds and adds anchors from HTML attributes.
func (c *collector) extractHTMLAttribute(content []byte, attr string, source AnchorSource, pos Span) {
	matches := htmlAttrPattern.FindAllSubmatch(content, -1)
	for _, match := range matches {
		if len(match) >= 3 && strings.EqualFold(string(match[1]), attr) {
			id := string(match[2])
			anchor := &Anchor{
				ID:       id,
				Source:   source,
				Position: pos,
			}
			c.ctx.Anchors.Add(anchor)
		}
	}
}

// Reference definition pattern: [label]: destination "optional title"
// Matches at start of line (with up to 3 spaces indent).
var refDefPattern = regexp.MustCompile(
	`^\s{0,3}\[([^\]]+)\]:\s*(\S+)(?:\s+"([^"]*)"|\s+'([^']*)'|\s+\(([^)]*)\))?\s*$`,
)

// buildCodeBlockLines returns a set of line numbers that are inside code blocks.
// These lines should be skipped when scanning for reference definitions.
func (c *collector) buildCodeBlockLines() map[int]bool {
	lines := make(map[int]bool)
	for _, tok := range c.ctx.File.Tokens {
		if tok.Kind != mdtoken.KindCodeBlock {
			continue
		}
		for line := tok.StartLine; line <= tok.EndLine; line++ {
			lines[line] = true
		}
	}
	return lines
}

// collectDefinitionsFromSource parses reference definitions from the source.
func (c *collector) collectDefinitionsFromSource() {
	if c.ctx.File == nil || len(c.ctx.File.Content) == 0 {
		return
	}

	// Build set of lines inside code blocks - these cannot contain reference definitions
	codeBlockLines := c.buildCodeBlockLines()

	for lineNum, lineInfo := range c.ctx.File.Lines.Entries {
		// Skip lines inside code blocks (lineNum is 0-indexed, positions are 1-indexed)
		if codeBlockLines[lineNum+1] {
			continue
		}

		line := c.ctx.File.Content[lineInfo.StartOffset:lineInfo.NewlineStart]
		matches := refDefPattern.FindSubmatch(line)
		if matches == nil {
			continue
		}

		label := string(matches[1])
		normalized := NormalizeLabel(label)

		// Extract title from whichever group matched
		title := coalesce(string(matches[3]), string(matches[4]), string(matches[5]))

		def := &ReferenceDefinition{
			Label:           label,
			NormalizedLabel: normalized,
			Destination:     string(matches[2]),
			Title:           title,
			LineNumber:      lineNum + 1,
			Position: Span{
				StartLine:   lineNum + 1,
				EndLine:     lineNum + 1,
				StartColumn: 1,
				EndColumn:   1,
			},
		}

		// Check for duplicates
		if _, exists := c.ctx.Definitions[normalized]; exists {
			def.IsDuplicate = true
		} else {
			c.ctx.Definitions[normalized] = def
		}

		c.ctx.AllDefinitions = append(c.ctx.AllDefinitions, def)
	}
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveReferences links usages to their definitions and updates usage counts.
func (c *collector) resolveReferences() {
	for _, usage := range c.ctx.Usages {
		if usage.NormalizedLabel == "" {
			continue
		}

		def := c.ctx.Definitions[usage.NormalizedLabel]
		if def != nil {
			usage.ResolvedDefinition = def
			def.UsageCount++
		}
	}
}
