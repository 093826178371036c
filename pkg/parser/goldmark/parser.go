// Package goldmark adapts github.com/yuin/goldmark into the token-vector
// contract consumed by the rest of the toolkit: the lint engine only ever
// depends on the mdtoken.Snapshot this package produces, never on goldmark
// types directly.
package goldmark

import (
	"context"
	"fmt"

	"github.com/mkdlint/mkdlint/pkg/mdtoken"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Flavor identifies the Markdown dialect the parser accepts.
const (
	FlavorCommonMark = "commonmark"
	FlavorGFM        = "gfm"
)

// Parser converts raw document text into an mdtoken.Snapshot.
type Parser struct {
	flavor string
	md     goldmark.Markdown
}

// New creates a goldmark-backed Parser for the given flavor. Unrecognized
// flavors fall back to CommonMark.
func New(flavor string) *Parser {
	f := flavorOrDefault(flavor)
	return &Parser{flavor: f, md: newGoldmarkInstance(f)}
}

// Flavor returns the configured Markdown flavor.
func (p *Parser) Flavor() string {
	return p.flavor
}

// Parse builds a token vector from raw document bytes, satisfying the
// parser-adapter contract: raw text in, a token vector plus the
// byte<->line/column mapping required by the fix engine out.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*mdtoken.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	cp := make([]byte, len(content))
	copy(cp, content)

	reader := text.NewReader(cp)
	gmDoc := p.md.Parser().Parse(reader, parser.WithContext(parser.NewContext()))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	lines := mdtoken.BuildLines(cp)
	m := newMapper(cp, lines)
	root := m.mapDocument(gmDoc)

	return m.builder.Build(path, cp, root), nil
}

func flavorOrDefault(flavor string) string {
	switch flavor {
	case FlavorCommonMark, FlavorGFM:
		return flavor
	default:
		return FlavorCommonMark
	}
}

//nolint:ireturn // goldmark.Markdown is an external interface type
func newGoldmarkInstance(flavor string) goldmark.Markdown {
	var opts []goldmark.Option
	if flavor == FlavorGFM {
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	}
	return goldmark.New(opts...)
}
