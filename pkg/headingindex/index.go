package headingindex

import (
	"path"
	"strconv"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// Index maps a document identifier to the ordered list of heading slugs
// that document defines. It is built once across every input document
// before the first fix pass and read-only thereafter, so it is safe to
// share across concurrent lint tasks.
type Index struct {
	byDocument map[string][]string
}

// Document returns a document's ordered heading slugs, or nil if the
// document is unknown to the index.
func (idx *Index) Document(documentID string) []string {
	if idx == nil {
		return nil
	}
	return idx.byDocument[documentID]
}

// Has reports whether slug is defined anywhere in documentID's headings.
func (idx *Index) Has(documentID, slug string) bool {
	for _, s := range idx.Document(documentID) {
		if s == slug {
			return true
		}
	}
	return false
}

// Resolve returns the heading slugs of the document a link target names,
// resolved relative to the referring document. The target is tried as
// written, then relative to the referrer's directory. The second return is
// false when no registered document matches.
func (idx *Index) Resolve(fromDocumentID, target string) ([]string, bool) {
	if idx == nil || target == "" {
		return nil, false
	}
	target = strings.TrimSuffix(target, "/")

	if slugs, ok := idx.byDocument[target]; ok {
		return slugs, true
	}

	joined := path.Join(path.Dir(fromDocumentID), target)
	if slugs, ok := idx.byDocument[joined]; ok {
		return slugs, true
	}

	return nil, false
}

// Builder accumulates (document_id, text) pairs before producing an Index.
type Builder struct {
	order []string
	texts map[string][]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{texts: map[string][]string{}}
}

// AddDocument registers a document's heading snapshot, taken from every
// KindHeading token in document order.
func (b *Builder) AddDocument(documentID string, snapshot *mdtoken.Snapshot) {
	var texts []string
	for _, idx := range mdtoken.ByKind(snapshot, snapshot.Root, mdtoken.KindHeading) {
		texts = append(texts, snapshot.Token(idx).Text)
	}
	b.AddHeadingTexts(documentID, texts)
}

// AddHeadingTexts registers a document's heading texts directly, in
// document order, without requiring a parsed snapshot.
func (b *Builder) AddHeadingTexts(documentID string, texts []string) {
	if _, seen := b.texts[documentID]; !seen {
		b.order = append(b.order, documentID)
	}
	b.texts[documentID] = append(b.texts[documentID], texts...)
}

// Build derives the final slug list for every registered document.
func (b *Builder) Build() *Index {
	idx := &Index{byDocument: make(map[string][]string, len(b.order))}
	for _, doc := range b.order {
		idx.byDocument[doc] = slugify(b.texts[doc])
	}
	return idx
}

// slugify converts heading texts into slugs, appending a "-N" disambiguation
// suffix (N starting at 2) to the Nth-and-later occurrence of a base slug.
func slugify(texts []string) []string {
	seen := map[string]int{}
	out := make([]string, len(texts))
	for i, text := range texts {
		base := Slug(text)
		n := seen[base]
		seen[base] = n + 1
		if n == 0 {
			out[i] = base
			continue
		}
		out[i] = base + "-" + strconv.Itoa(n+1)
	}
	return out
}
