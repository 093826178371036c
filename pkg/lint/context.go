package lint

import (
	"context"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/directive"
	"github.com/mkdlint/mkdlint/pkg/headingindex"
	"github.com/mkdlint/mkdlint/pkg/lint/refs"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// RuleContext provides all context needed by a rule to perform linting.
//
// Design note: RuleContext stores context.Context as a field (Ctx) rather than
// passing it as a method parameter. This is acceptable because RuleContext is
// a short-lived parameter object created per-rule-invocation, not a long-lived
// struct. This design simplifies the Rule interface (single Apply method) while
// still providing cancellation support via the Cancelled() helper.
type RuleContext struct {
	// Ctx is the context for cancellation and timeouts.
	Ctx context.Context

	// File is the parsed token snapshot.
	File *mdtoken.Snapshot

	// Root is the index of the document token (convenience alias for File.Root).
	Root int

	// Config is the resolved configuration.
	Config *config.Config

	// RuleConfig is the rule-specific configuration (may be nil).
	RuleConfig *config.RuleConfig

	// Registry provides access to the rule registry for name lookups.
	Registry *Registry

	// Mask is the per-(line, rule) enabled mask built from inline directives.
	// The engine filters emitted diagnostics through it; rules normally never
	// consult it directly.
	Mask *directive.Mask

	// Workspace is the cross-document heading index, present when linting a
	// document set. Nil for single-document runs; rules that resolve
	// cross-document anchors degrade to intra-document checks without it.
	Workspace *headingindex.Index

	// FrontMatterLines is the number of leading front-matter lines (0 when
	// the document has none). Lines 1..FrontMatterLines are metadata, not
	// Markdown content.
	FrontMatterLines int

	// state holds per-file caches shared by every rule invocation against
	// the same snapshot.
	state *fileState
}

// fileState bundles the lazily-built per-file caches: the token-kind index
// and the reference context. The engine creates one per file and threads it
// through every rule's RuleContext.
type fileState struct {
	index  *kindIndex
	refCtx *refs.Context
}

// NewRuleContext creates a RuleContext for the given file and configuration.
func NewRuleContext(
	ctx context.Context,
	file *mdtoken.Snapshot,
	cfg *config.Config,
	ruleCfg *config.RuleConfig,
) *RuleContext {
	root := mdtoken.None
	frontMatter := 0
	if file != nil {
		root = file.Root
		frontMatter = FrontMatterLineCount(file.Content)
	}

	return &RuleContext{
		Ctx:              ctx,
		File:             file,
		Root:             root,
		Config:           cfg,
		RuleConfig:       ruleCfg,
		FrontMatterLines: frontMatter,
		state:            &fileState{index: newKindIndex()},
	}
}

// shareFileState reuses another context's per-file caches so that rules
// running against the same snapshot share one kind index and one reference
// context.
func (rc *RuleContext) shareFileState(other *RuleContext) {
	if other != nil {
		rc.state = other.state
	}
}

// Cancelled returns true if the context has been cancelled.
func (rc *RuleContext) Cancelled() bool {
	select {
	case <-rc.Ctx.Done():
		return true
	default:
		return false
	}
}

// Token returns the token at idx, or a zero token for None/out-of-range.
func (rc *RuleContext) Token(idx int) mdtoken.Token {
	return rc.File.Token(idx)
}

// LineCount returns the number of logical lines in the document.
func (rc *RuleContext) LineCount() int {
	if rc.File == nil {
		return 0
	}
	return rc.File.Lines.Count()
}

// Line returns the content of the 1-based line, terminator excluded. Returns
// an empty string when out of range.
func (rc *RuleContext) Line(lineNum int) string {
	return string(LineContent(rc.File, lineNum))
}

// Tokens by kind. Each accessor returns indices in document order; callers
// must not mutate the returned slice.

// Headings returns all heading token indices.
func (rc *RuleContext) Headings() []int { return rc.ofKind(mdtoken.KindHeading) }

// Lists returns all list token indices.
func (rc *RuleContext) Lists() []int { return rc.ofKind(mdtoken.KindList) }

// ListItems returns all list item token indices.
func (rc *RuleContext) ListItems() []int { return rc.ofKind(mdtoken.KindListItem) }

// CodeBlocks returns all code block token indices.
func (rc *RuleContext) CodeBlocks() []int { return rc.ofKind(mdtoken.KindCodeBlock) }

// CodeSpans returns all inline code span token indices.
func (rc *RuleContext) CodeSpans() []int { return rc.ofKind(mdtoken.KindCodeSpan) }

// Paragraphs returns all paragraph token indices.
func (rc *RuleContext) Paragraphs() []int { return rc.ofKind(mdtoken.KindParagraph) }

// Blockquotes returns all blockquote token indices.
func (rc *RuleContext) Blockquotes() []int { return rc.ofKind(mdtoken.KindBlockquote) }

// Links returns all link token indices.
func (rc *RuleContext) Links() []int { return rc.ofKind(mdtoken.KindLink) }

// Images returns all image token indices.
func (rc *RuleContext) Images() []int { return rc.ofKind(mdtoken.KindImage) }

// Tables returns all table token indices.
func (rc *RuleContext) Tables() []int { return rc.ofKind(mdtoken.KindTable) }

// ThematicBreaks returns all thematic break token indices.
func (rc *RuleContext) ThematicBreaks() []int { return rc.ofKind(mdtoken.KindThematicBreak) }

// HTMLBlocks returns all HTML block token indices.
func (rc *RuleContext) HTMLBlocks() []int { return rc.ofKind(mdtoken.KindHTMLBlock) }

// HTMLInlines returns all inline HTML token indices.
func (rc *RuleContext) HTMLInlines() []int { return rc.ofKind(mdtoken.KindHTMLInline) }

// EmphasisTokens returns all emphasis token indices.
func (rc *RuleContext) EmphasisTokens() []int { return rc.ofKind(mdtoken.KindEmphasis) }

// StrongTokens returns all strong token indices.
func (rc *RuleContext) StrongTokens() []int { return rc.ofKind(mdtoken.KindStrong) }

func (rc *RuleContext) ofKind(kind mdtoken.Kind) []int {
	if rc.File == nil {
		return nil
	}
	return rc.state.index.ofKind(rc.File, kind)
}

// CodeBlockLineSet returns the shared set of 1-based line numbers inside
// fenced or indented code blocks. Line-based rules use it to honor the
// code-block exclusion contract.
func (rc *RuleContext) CodeBlockLineSet() map[int]bool {
	if rc.File == nil {
		return nil
	}
	return rc.state.index.codeBlockLines(rc.File)
}

// IsLineInCodeBlock reports whether the 1-based line falls inside a fenced
// or indented code block (fence lines included).
func (rc *RuleContext) IsLineInCodeBlock(lineNum int) bool {
	return rc.CodeBlockLineSet()[lineNum]
}

// InFrontMatter reports whether the 1-based line is part of leading front
// matter.
func (rc *RuleContext) InFrontMatter(lineNum int) bool {
	return rc.FrontMatterLines > 0 && lineNum >= 1 && lineNum <= rc.FrontMatterLines
}

// Option returns a rule-specific option value, or the default if not set.
func (rc *RuleContext) Option(key string, defaultValue any) any {
	if rc.RuleConfig == nil || rc.RuleConfig.Options == nil {
		return defaultValue
	}
	if v, ok := rc.RuleConfig.Options[key]; ok {
		return v
	}
	return defaultValue
}

// OptionInt returns a rule-specific integer option, or the default.
func (rc *RuleContext) OptionInt(key string, defaultValue int) int {
	v := rc.Option(key, defaultValue)
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	default:
		return defaultValue
	}
}

// OptionString returns a rule-specific string option, or the default.
func (rc *RuleContext) OptionString(key string, defaultValue string) string {
	v := rc.Option(key, defaultValue)
	if s, ok := v.(string); ok {
		return s
	}
	return defaultValue
}

// OptionBool returns a rule-specific boolean option, or the default.
func (rc *RuleContext) OptionBool(key string, defaultValue bool) bool {
	v := rc.Option(key, defaultValue)
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultValue
}

// OptionStringSlice returns a rule-specific string slice option, or the default.
func (rc *RuleContext) OptionStringSlice(key string, defaultValue []string) []string {
	v := rc.Option(key, defaultValue)
	if slice, ok := v.([]string); ok {
		return slice
	}
	// Handle []interface{} from YAML/JSON parsing
	if iface, ok := v.([]interface{}); ok {
		result := make([]string, 0, len(iface))
		for _, item := range iface {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// RefContext returns the reference context for this file, building it lazily.
// The reference context contains all link/image usages, reference definitions,
// and document anchors needed by reference-tracking rules (MD051-MD054).
func (rc *RuleContext) RefContext() *refs.Context {
	if rc.state.refCtx == nil {
		rc.state.refCtx = refs.Collect(rc.File)
	}
	return rc.state.refCtx
}
