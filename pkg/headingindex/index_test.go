package headingindex_test

import (
	"reflect"
	"testing"

	"github.com/mkdlint/mkdlint/pkg/headingindex"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

func TestBuilder_DuplicateSlugsGetDisambiguationSuffix(t *testing.T) {
	t.Parallel()

	b := headingindex.NewBuilder()
	b.AddHeadingTexts("doc.md", []string{"Overview", "Details", "Overview", "Overview"})

	idx := b.Build()
	got := idx.Document("doc.md")
	want := []string{"overview", "details", "overview-2", "overview-3"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Document() = %v, want %v", got, want)
	}
}

func TestBuilder_MultipleDocumentsIndependent(t *testing.T) {
	t.Parallel()

	b := headingindex.NewBuilder()
	b.AddHeadingTexts("a.md", []string{"Intro"})
	b.AddHeadingTexts("b.md", []string{"Intro"})

	idx := b.Build()

	if got := idx.Document("a.md"); !reflect.DeepEqual(got, []string{"intro"}) {
		t.Errorf("a.md = %v", got)
	}
	if got := idx.Document("b.md"); !reflect.DeepEqual(got, []string{"intro"}) {
		t.Errorf("b.md = %v", got)
	}
}

func TestIndex_Has(t *testing.T) {
	t.Parallel()

	b := headingindex.NewBuilder()
	b.AddHeadingTexts("doc.md", []string{"Getting Started"})
	idx := b.Build()

	if !idx.Has("doc.md", "getting-started") {
		t.Error("Has() should find a slug that exists")
	}
	if idx.Has("doc.md", "missing") {
		t.Error("Has() should not find a slug that doesn't exist")
	}
	if idx.Has("other.md", "getting-started") {
		t.Error("Has() should not cross document boundaries")
	}
}

func TestIndex_UnknownDocumentReturnsNil(t *testing.T) {
	t.Parallel()

	idx := headingindex.NewBuilder().Build()
	if got := idx.Document("missing.md"); got != nil {
		t.Errorf("Document() for unknown id = %v, want nil", got)
	}
}

func TestBuilder_AddDocumentFromSnapshot(t *testing.T) {
	t.Parallel()

	builder := mdtoken.NewBuilder()
	root := builder.Push(mdtoken.Token{Kind: mdtoken.KindDocument}, mdtoken.None)

	h1 := builder.Push(mdtoken.Token{Kind: mdtoken.KindHeading}, root)
	builder.Set(h1, func(tok *mdtoken.Token) { tok.Text = "First Heading" })

	h2 := builder.Push(mdtoken.Token{Kind: mdtoken.KindHeading}, root)
	builder.Set(h2, func(tok *mdtoken.Token) { tok.Text = "Second Heading" })

	snapshot := builder.Build("doc.md", []byte("# First Heading\n\n# Second Heading\n"), root)

	hb := headingindex.NewBuilder()
	hb.AddDocument("doc.md", snapshot)
	idx := hb.Build()

	want := []string{"first-heading", "second-heading"}
	if got := idx.Document("doc.md"); !reflect.DeepEqual(got, want) {
		t.Errorf("Document() = %v, want %v", got, want)
	}
}
