// Package mdtoken provides the parser-output contract shared by every rule:
// a flat, append-only vector of typed spans with source positions and
// attributes. Parent/child/sibling relationships are indices into the same
// vector rather than pointers, so a Snapshot is trivially copyable and cheap
// to serialize for golden tests.
package mdtoken

//go:generate stringer -type=Kind -trimprefix=Kind

// Kind classifies the type of a token in the parse output.
type Kind uint16

// None is a sentinel index meaning "no such child/sibling/parent".
const None = -1

// Token kinds cover both block- and inline-level Markdown constructs plus a
// handful of extension kinds (tables, footnotes, math) that the GFM/Kramdown
// surface requires.
const (
	KindDocument Kind = iota

	// Block-level.
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindBlockquote
	KindCodeBlock
	KindThematicBreak
	KindHTMLBlock
	KindTable
	KindTableRow
	KindTableCell
	KindFootnoteDefinition

	// Inline-level.
	KindText
	KindEmphasis
	KindStrong
	KindCodeSpan
	KindLink
	KindImage
	KindSoftBreak
	KindHardBreak
	KindHTMLInline
	KindMath

	// Fallback for unrecognized content.
	KindRaw
)

// Token is one node in the flat token vector. Composite tokens (headings,
// links, emphasis, table cells, ...) carry a Text field containing the
// concatenation of descendant textual content, so rules that need e.g. a
// heading's rendered text never have to walk the tree themselves.
type Token struct {
	Kind Kind

	// Source position, 1-based lines/columns, end exclusive of the last
	// character per the column convention in the configuration overlay.
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int

	// Byte offsets into the originating document, used by the parser
	// adapter and the fix engine to translate back to raw text.
	StartOffset int
	EndOffset   int

	// Text is the raw text for leaves, or the concatenation of descendant
	// text for composites (heading text, link label text, and so on).
	Text string

	// Attrs holds type-specific metadata as a plain string map per the
	// data model (heading level, list ordering/bullet/marker, code-block
	// info string and fence character, link URL/title, footnote label,
	// table column count). Use the typed accessors below rather than
	// indexing Attrs directly from rule code.
	Attrs Attrs

	// Tree structure: indices into the owning Snapshot.Tokens, None (-1)
	// when absent.
	Parent      int
	FirstChild  int
	LastChild   int
	NextSibling int
	PrevSibling int
}

// IsBlock reports whether k is a block-level kind.
func (k Kind) IsBlock() bool {
	switch k {
	case KindDocument, KindParagraph, KindHeading, KindList, KindListItem,
		KindBlockquote, KindCodeBlock, KindThematicBreak, KindHTMLBlock,
		KindTable, KindTableRow, KindTableCell, KindFootnoteDefinition:
		return true
	default:
		return false
	}
}

// IsInline reports whether k is an inline-level kind.
func (k Kind) IsInline() bool {
	return !k.IsBlock() && k != KindRaw
}

// Len returns the byte length of the token's source span.
func (t Token) Len() int {
	return t.EndOffset - t.StartOffset
}
