package rules

import (
	"fmt"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/lint"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// InlineHTMLRule restricts the use of raw HTML in Markdown.
type InlineHTMLRule struct {
	lint.BaseRule
}

// NewInlineHTMLRule creates a new inline HTML rule.
func NewInlineHTMLRule() *InlineHTMLRule {
	return &InlineHTMLRule{
		BaseRule: lint.NewBaseRule(
			"MD033",
			"no-inline-html",
			"Inline HTML should be avoided or restricted to allowed elements",
			[]string{"html"},
			false, // Not auto-fixable.
		),
	}
}

// commonmarkAllowedHTMLElements returns the default allowed elements for CommonMark.
// CommonMark is strict - no HTML allowed by default.
func commonmarkAllowedHTMLElements() []string {
	return nil
}

// gfmAllowedHTMLElements returns the default allowed elements for GFM.
// Includes common formatting elements used in GitHub.
func gfmAllowedHTMLElements() []string {
	return []string{"br", "sup", "sub", "details", "summary", "kbd", "abbr"}
}

// Apply checks for inline HTML usage.
func (r *InlineHTMLRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Get allowed elements from config.
	allowedElements := r.getAllowedElements(ctx)
	allowedSet := make(map[string]bool)
	for _, el := range allowedElements {
		allowedSet[strings.ToLower(el)] = true
	}

	var diags []lint.Diagnostic

	// Check HTML blocks, then inline HTML.
	for _, group := range [][]int{ctx.HTMLBlocks(), ctx.HTMLInlines()} {
		for _, idx := range group {
			if ctx.Cancelled() {
				return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
			}

			if diag := r.checkHTMLToken(ctx, ctx.Token(idx), allowedSet); diag != nil {
				diags = append(diags, *diag)
			}
		}
	}

	return diags, nil
}

func (r *InlineHTMLRule) getAllowedElements(ctx *lint.RuleContext) []string {
	// Check for explicit configuration.
	if allowed := ctx.Option("allowed_elements", nil); allowed != nil {
		if list, ok := allowed.([]any); ok {
			result := make([]string, 0, len(list))
			for _, v := range list {
				if s, ok := v.(string); ok {
					result = append(result, s)
				}
			}
			return result
		}
	}

	// Use flavor-based defaults.
	if ctx.Config != nil && ctx.Config.Flavor == config.FlavorGFM {
		return gfmAllowedHTMLElements()
	}

	return commonmarkAllowedHTMLElements()
}

func (r *InlineHTMLRule) checkHTMLToken(
	ctx *lint.RuleContext,
	tok mdtoken.Token,
	allowedSet map[string]bool,
) *lint.Diagnostic {
	if tok.StartLine < 1 {
		return nil
	}

	// Extract the HTML content from the token's source span, falling back
	// to the first line's content when the span is unusable.
	content := tok.Text
	if content == "" {
		start, end := tok.StartOffset, tok.EndOffset
		if start >= 0 && end > start && end <= len(ctx.File.Content) {
			content = string(ctx.File.Content[start:end])
		} else {
			content = string(lint.LineContent(ctx.File, tok.StartLine))
		}
	}

	if content == "" {
		return nil
	}

	tagName := lint.ExtractHTMLTagName([]byte(content))
	if tagName == "" {
		// Could be a comment or other HTML construct; comments are what the
		// inline-directive scanner consumes, so leave them alone.
		if strings.HasPrefix(strings.TrimSpace(content), "<!--") {
			return nil
		}
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
			"Inline HTML").
			WithSuggestion("Remove or replace with Markdown syntax").
			Build()
		return &diag
	}

	// Check if allowed.
	if allowedSet[tagName] {
		return nil
	}

	var suggestion string
	if len(allowedSet) > 0 {
		allowed := make([]string, 0, len(allowedSet))
		for k := range allowedSet {
			allowed = append(allowed, k)
		}
		suggestion = "Allowed elements: " + strings.Join(allowed, ", ")
	} else {
		suggestion = "Remove HTML or use Markdown syntax"
	}

	diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, lint.TokenSpan(tok),
		"Inline HTML").
		WithDetail(fmt.Sprintf("Element: %s", tagName)).
		WithSuggestion(suggestion).
		Build()
	return &diag
}
