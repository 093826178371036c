package goldmark

import (
	"strconv"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/mdtoken"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// mapper walks a goldmark AST and pushes corresponding tokens into an
// mdtoken.Builder, computing source positions from the byte ranges
// goldmark's own Lines()/Segment machinery exposes.
type mapper struct {
	content []byte
	lines   mdtoken.Lines
	builder *mdtoken.Builder
}

func newMapper(content []byte, lines mdtoken.Lines) *mapper {
	return &mapper{content: content, lines: lines, builder: mdtoken.NewBuilder()}
}

// mapDocument pushes the document root and its full subtree, returning the
// root's index.
func (m *mapper) mapDocument(gmDoc ast.Node) int {
	root := m.push(mdtoken.KindDocument, gmDoc, mdtoken.None)
	m.mapChildren(gmDoc, root)
	return root
}

func (m *mapper) mapChildren(gmParent ast.Node, parent int) {
	for child := gmParent.FirstChild(); child != nil; child = child.NextSibling() {
		m.mapNode(child, parent)
	}
}

// push appends a token for gmNode as a child of parent, deriving its source
// position from gmNode's byte range, and returns the new token's index.
func (m *mapper) push(kind mdtoken.Kind, gmNode ast.Node, parent int) int {
	start, end := m.byteRange(gmNode)
	tok := mdtoken.Token{Kind: kind, StartOffset: start, EndOffset: end}
	if start >= 0 {
		tok.StartLine, tok.StartColumn = m.lines.At(start)
	}
	if end >= 0 {
		tok.EndLine, tok.EndColumn = m.lines.At(end)
	}
	return m.builder.Push(tok, parent)
}

// mapNode converts a single goldmark node into one or more tokens rooted at
// parent. It returns nothing; composite nodes recurse via mapChildren.
func (m *mapper) mapNode(gmNode ast.Node, parent int) {
	switch gmn := gmNode.(type) {
	case *ast.Heading:
		m.mapHeading(gmn, parent)
	case *ast.Paragraph:
		idx := m.push(mdtoken.KindParagraph, gmNode, parent)
		m.mapChildren(gmNode, idx)
	case *ast.List:
		m.mapList(gmn, parent)
	case *ast.ListItem:
		idx := m.push(mdtoken.KindListItem, gmNode, parent)
		m.mapChildren(gmNode, idx)
	case *ast.Blockquote:
		idx := m.push(mdtoken.KindBlockquote, gmNode, parent)
		m.mapChildren(gmNode, idx)
	case *ast.FencedCodeBlock:
		m.mapFencedCodeBlock(gmn, parent)
	case *ast.CodeBlock:
		m.mapIndentedCodeBlock(gmn, parent)
	case *ast.ThematicBreak:
		m.push(mdtoken.KindThematicBreak, gmNode, parent)
	case *ast.HTMLBlock:
		m.push(mdtoken.KindHTMLBlock, gmNode, parent)
	case *ast.Text:
		m.mapText(gmn, parent)
	case *ast.Emphasis:
		m.mapEmphasis(gmn, parent)
	case *ast.CodeSpan:
		m.mapCodeSpan(gmn, parent)
	case *ast.Link:
		m.mapLink(gmn, parent)
	case *ast.Image:
		m.mapImage(gmn, parent)
	case *ast.AutoLink:
		m.mapAutoLink(gmn, parent)
	case *ast.RawHTML:
		m.push(mdtoken.KindHTMLInline, gmNode, parent)
	case *ast.String:
		idx := m.push(mdtoken.KindText, gmNode, parent)
		m.builder.Set(idx, func(t *mdtoken.Token) { t.Text = string(gmn.Value) })
	case *east.Strikethrough:
		idx := m.push(mdtoken.KindEmphasis, gmNode, parent)
		m.builder.Set(idx, func(t *mdtoken.Token) { t.Attrs = mdtoken.Attrs{"strikethrough": "true"} })
		m.mapChildren(gmNode, idx)
		m.finishComposite(idx)
	case *east.TaskCheckBox:
		idx := m.push(mdtoken.KindText, gmNode, parent)
		m.builder.Set(idx, func(t *mdtoken.Token) {
			t.Attrs = mdtoken.Attrs{"taskCheckbox": "true", "checked": strconv.FormatBool(gmn.IsChecked)}
		})
	case *east.Table:
		m.mapTable(gmn, parent)
	case *east.TableRow, *east.TableHeader:
		idx := m.push(mdtoken.KindTableRow, gmNode, parent)
		m.mapChildren(gmNode, idx)
		m.finishComposite(idx)
	case *east.TableCell:
		idx := m.push(mdtoken.KindTableCell, gmNode, parent)
		m.mapChildren(gmNode, idx)
		m.finishComposite(idx)
	default:
		idx := m.push(mdtoken.KindRaw, gmNode, parent)
		m.mapChildren(gmNode, idx)
		m.finishComposite(idx)
	}
}

func (m *mapper) mapHeading(h *ast.Heading, parent int) {
	idx := m.push(mdtoken.KindHeading, h, parent)
	m.mapChildren(h, idx)
	setext := m.isSetextHeading(idx)
	m.builder.Set(idx, func(t *mdtoken.Token) {
		t.Attrs = mdtoken.Attrs{
			mdtoken.AttrHeadingLevel: strconv.Itoa(h.Level),
			mdtoken.AttrSetext:       strconv.FormatBool(setext),
		}
	})
	m.finishComposite(idx)
}

// isSetextHeading reports whether the heading token at idx was written in
// setext style, recovered from the source since goldmark folds both syntaxes
// into one node type: a heading whose first line does not start with '#'.
func (m *mapper) isSetextHeading(idx int) bool {
	tok := m.builder.At(idx)
	if tok.StartLine < 1 || tok.StartLine > m.lines.Count() {
		return false
	}
	entry := m.lines.Entries[tok.StartLine-1]
	line := m.content[entry.StartOffset:entry.NewlineStart]
	for _, b := range line {
		switch b {
		case ' ', '\t':
			continue
		case '#':
			return false
		default:
			return true
		}
	}
	return false
}

func (m *mapper) mapList(list *ast.List, parent int) {
	idx := m.push(mdtoken.KindList, list, parent)
	attrs := mdtoken.Attrs{
		mdtoken.AttrListOrdered: strconv.FormatBool(list.IsOrdered()),
		mdtoken.AttrListTight:   strconv.FormatBool(list.IsTight),
	}
	if list.IsOrdered() {
		attrs[mdtoken.AttrListStart] = strconv.Itoa(list.Start)
		attrs[mdtoken.AttrListDelimiter] = string(list.Marker)
	} else {
		attrs[mdtoken.AttrListBullet] = string(list.Marker)
	}
	m.builder.Set(idx, func(t *mdtoken.Token) { t.Attrs = attrs })
	m.mapChildren(list, idx)
}

func (m *mapper) mapFencedCodeBlock(cb *ast.FencedCodeBlock, parent int) {
	idx := m.push(mdtoken.KindCodeBlock, cb, parent)
	info := ""
	if cb.Info != nil {
		info = string(cb.Info.Value(m.content))
	}
	fenceChar, _ := m.detectFenceFromPosition(cb)
	m.builder.Set(idx, func(t *mdtoken.Token) {
		t.Attrs = mdtoken.Attrs{
			mdtoken.AttrCodeInfo:      info,
			mdtoken.AttrCodeFenceChar: string(fenceChar),
			mdtoken.AttrCodeIndented:  "false",
		}
	})
}

// detectFenceFromPosition finds the opening fence line preceding the block's
// content lines to recover the fence character and length, which goldmark
// does not expose directly.
func (m *mapper) detectFenceFromPosition(cb *ast.FencedCodeBlock) (byte, int) {
	lines := cb.Lines()
	if lines.Len() == 0 {
		return '`', 3
	}
	searchStart := lines.At(0).Start

	lineStart := searchStart
	for lineStart > 0 && m.content[lineStart-1] != '\n' {
		lineStart--
	}
	if lineStart == 0 {
		return '`', 3
	}
	prevLineEnd := lineStart - 1
	prevLineStart := prevLineEnd
	for prevLineStart > 0 && m.content[prevLineStart-1] != '\n' {
		prevLineStart--
	}
	return m.extractFenceFromLine(prevLineStart, prevLineEnd)
}

func (m *mapper) extractFenceFromLine(start, end int) (byte, int) {
	if start >= end || start >= len(m.content) {
		return '`', 3
	}
	pos := start
	for pos < end && pos < len(m.content) && (m.content[pos] == ' ' || m.content[pos] == '\t') {
		pos++
	}
	if pos >= end || pos >= len(m.content) {
		return '`', 3
	}
	fenceChar := m.content[pos]
	if fenceChar != '`' && fenceChar != '~' {
		return '`', 3
	}
	length := 0
	for pos < end && pos < len(m.content) && m.content[pos] == fenceChar {
		length++
		pos++
	}
	if length < 3 {
		length = 3
	}
	return fenceChar, length
}

func (m *mapper) mapIndentedCodeBlock(cb *ast.CodeBlock, parent int) {
	idx := m.push(mdtoken.KindCodeBlock, cb, parent)
	m.builder.Set(idx, func(t *mdtoken.Token) {
		t.Attrs = mdtoken.Attrs{mdtoken.AttrCodeIndented: "true"}
	})
}

func (m *mapper) mapText(tn *ast.Text, parent int) {
	switch {
	case tn.SoftLineBreak():
		m.push(mdtoken.KindSoftBreak, tn, parent)
	case tn.HardLineBreak():
		m.push(mdtoken.KindHardBreak, tn, parent)
	default:
		idx := m.push(mdtoken.KindText, tn, parent)
		m.builder.Set(idx, func(t *mdtoken.Token) { t.Text = string(tn.Value(m.content)) })
	}
}

func (m *mapper) mapEmphasis(e *ast.Emphasis, parent int) {
	kind := mdtoken.KindEmphasis
	if e.Level == 2 {
		kind = mdtoken.KindStrong
	}
	idx := m.push(kind, e, parent)
	m.mapChildren(e, idx)
	m.finishComposite(idx)
}

func (m *mapper) mapCodeSpan(cs *ast.CodeSpan, parent int) {
	idx := m.push(mdtoken.KindCodeSpan, cs, parent)
	var text strings.Builder
	for child := cs.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			text.Write(t.Value(m.content))
		}
	}
	m.builder.Set(idx, func(t *mdtoken.Token) { t.Text = text.String() })
}

func (m *mapper) mapLink(link *ast.Link, parent int) {
	idx := m.push(mdtoken.KindLink, link, parent)
	m.builder.Set(idx, func(t *mdtoken.Token) {
		t.Attrs = mdtoken.Attrs{mdtoken.AttrLinkDest: string(link.Destination), mdtoken.AttrLinkTitle: string(link.Title)}
	})
	m.mapChildren(link, idx)
	m.finishComposite(idx)
}

func (m *mapper) mapImage(img *ast.Image, parent int) {
	idx := m.push(mdtoken.KindImage, img, parent)
	m.builder.Set(idx, func(t *mdtoken.Token) {
		t.Attrs = mdtoken.Attrs{mdtoken.AttrImageDest: string(img.Destination), mdtoken.AttrImageTitle: string(img.Title)}
	})
	m.mapChildren(img, idx)
	m.finishComposite(idx)
}

func (m *mapper) mapAutoLink(al *ast.AutoLink, parent int) {
	idx := m.push(mdtoken.KindLink, al, parent)
	url := string(al.URL(m.content))
	label := string(al.Label(m.content))
	m.builder.Set(idx, func(t *mdtoken.Token) {
		t.Attrs = mdtoken.Attrs{mdtoken.AttrLinkDest: url, "autolink": "true"}
		t.Text = label
	})
}

func (m *mapper) mapTable(table *east.Table, parent int) {
	idx := m.push(mdtoken.KindTable, table, parent)
	m.builder.Set(idx, func(t *mdtoken.Token) {
		t.Attrs = mdtoken.Attrs{mdtoken.AttrTableColumns: strconv.Itoa(len(table.Alignments))}
	})
	m.mapChildren(table, idx)
}

// finishComposite fills Text with the concatenation of a composite token's
// descendant text, per the data model's requirement that headings/links/
// emphasis carry their rendered text without a tree walk by rule code.
func (m *mapper) finishComposite(idx int) {
	tok := m.builder.At(idx)
	if tok.Text != "" {
		return
	}
	var sb strings.Builder
	for c := tok.FirstChild; c != mdtoken.None; {
		child := m.builder.At(c)
		if child.Text != "" {
			sb.WriteString(child.Text)
		}
		c = child.NextSibling
	}
	if sb.Len() > 0 {
		m.builder.Set(idx, func(t *mdtoken.Token) { t.Text = sb.String() })
	}
}

// byteRange extracts the byte span of a goldmark node, block or inline.
func (m *mapper) byteRange(gmNode ast.Node) (int, int) {
	if gmNode == nil {
		return -1, -1
	}
	if gmNode.Type() == ast.TypeInline {
		return m.inlineByteRange(gmNode)
	}
	lines := gmNode.Lines()
	if lines.Len() == 0 {
		switch gmNode.(type) {
		case *ast.List, *ast.ListItem, *ast.Blockquote:
			// Containers have no lines of their own; span their children.
			start, end := -1, -1
			for c := gmNode.FirstChild(); c != nil; c = c.NextSibling() {
				s, e := m.byteRange(c)
				if s >= 0 && start < 0 {
					start = s
				}
				if e > end {
					end = e
				}
			}
			return start, end
		}
		return -1, -1
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	// Block segments may include the line terminator; end the range on the
	// line it terminates rather than at the start of the next line.
	stop := last.Stop
	if stop > first.Start && stop <= len(m.content) && m.content[stop-1] == '\n' {
		stop--
		if stop > first.Start && m.content[stop-1] == '\r' {
			stop--
		}
	}
	return first.Start, stop
}

func (m *mapper) inlineByteRange(gmNode ast.Node) (int, int) {
	start, end := -1, -1
	if rawHTML, ok := gmNode.(*ast.RawHTML); ok {
		segs := rawHTML.Segments
		for i := range segs.Len() {
			seg := segs.At(i)
			if start == -1 || seg.Start < start {
				start = seg.Start
			}
			if seg.Stop > end {
				end = seg.Stop
			}
		}
		return start, end
	}
	for child := gmNode.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			seg := t.Segment
			if start == -1 || seg.Start < start {
				start = seg.Start
			}
			if seg.Stop > end {
				end = seg.Stop
			}
		}
	}
	if t, ok := gmNode.(*ast.Text); ok {
		seg := t.Segment
		if start == -1 || seg.Start < start {
			start = seg.Start
		}
		if seg.Stop > end {
			end = seg.Stop
		}
	}
	return start, end
}
