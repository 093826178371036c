package mdtoken

// Snapshot is the parser-output contract: the full token vector for one
// document plus the line index needed to translate positions back to byte
// offsets. Snapshots are immutable once built and safe to share across
// concurrently-running rules within a single lint pass.
type Snapshot struct {
	// Path is the document identifier (file path or synthetic name).
	Path string

	// Content is the raw document bytes, exactly as read.
	Content []byte

	// Tokens is the single append-only vector; index 0 is always the
	// document root when the snapshot is non-empty.
	Tokens []Token

	// Root is the index of the document token, None if Tokens is empty.
	Root int

	// Lines is the line index built from Content.
	Lines Lines
}

// Builder accumulates tokens into a Snapshot. Parser adapters (see
// pkg/parser/goldmark) use it to append tokens in document order while
// threading parent/sibling indices as they descend and ascend the source
// tree, never needing to know its own eventual index ahead of time.
type Builder struct {
	tokens []Token
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Push appends tok as a child of parent (None for the root) and returns its
// index. Sibling links are maintained automatically.
func (b *Builder) Push(tok Token, parent int) int {
	tok.Parent = parent
	tok.FirstChild = None
	tok.LastChild = None
	tok.NextSibling = None
	tok.PrevSibling = None
	idx := len(b.tokens)
	b.tokens = append(b.tokens, tok)

	if parent == None {
		return idx
	}

	p := &b.tokens[parent]
	if p.FirstChild == None {
		p.FirstChild = idx
	} else {
		last := &b.tokens[p.LastChild]
		last.NextSibling = idx
		b.tokens[idx].PrevSibling = p.LastChild
	}
	p.LastChild = idx
	return idx
}

// Set overwrites the token at idx, preserving its tree-structure fields.
// Parser adapters use this to patch in computed Text/Attrs once a
// composite token's children are known.
func (b *Builder) Set(idx int, mutate func(*Token)) {
	mutate(&b.tokens[idx])
}

// At returns a copy of the token currently at idx.
func (b *Builder) At(idx int) Token {
	return b.tokens[idx]
}

// Build finalizes the vector into a Snapshot. root is the index of the
// document token (None if no tokens were ever pushed).
func (b *Builder) Build(path string, content []byte, root int) *Snapshot {
	return &Snapshot{
		Path:    path,
		Content: content,
		Tokens:  b.tokens,
		Root:    root,
		Lines:   BuildLines(content),
	}
}

// Token returns the token at idx, or the zero Token with Kind KindRaw and
// no children if idx is None or out of range.
func (s *Snapshot) Token(idx int) Token {
	if idx == None || idx < 0 || idx >= len(s.Tokens) {
		return Token{Parent: None, FirstChild: None, LastChild: None, NextSibling: None, PrevSibling: None}
	}
	return s.Tokens[idx]
}

// Children returns the indices of idx's direct children in document order.
func (s *Snapshot) Children(idx int) []int {
	var out []int
	for c := s.Token(idx).FirstChild; c != None; c = s.Token(c).NextSibling {
		out = append(out, c)
	}
	return out
}
