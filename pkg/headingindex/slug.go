// Package headingindex builds the cross-document map from document
// identifier to the ordered list of Kramdown-compatible heading slugs it
// defines, used by cross-document anchor-resolution rules. This is distinct
// from pkg/lint/refs's GitHub-style anchor generator, which still backs
// intra-document anchor rules.
package headingindex

import (
	"strings"
	"unicode"
)

// Slug converts heading text into its Kramdown-compatible anchor form:
// strip a trailing Inline Attribute List (`{...}`), lowercase, collapse
// every run of non-alphanumeric characters to a single hyphen, then trim
// leading/trailing hyphens.
func Slug(text string) string {
	text = stripTrailingIAL(text)
	text = strings.ToLower(text)

	var buf strings.Builder
	buf.Grow(len(text))
	lastHyphen := false
	for _, r := range text {
		switch {
		case isAlnum(r):
			buf.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && buf.Len() > 0 {
				buf.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(buf.String(), "-")
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// stripTrailingIAL removes a trailing Kramdown Inline Attribute List, e.g.
// "Heading {#custom-id .class}" -> "Heading". Only a well-formed, unnested
// brace run at the very end (after optional whitespace) is stripped.
func stripTrailingIAL(text string) string {
	trimmed := strings.TrimRight(text, " \t")
	if !strings.HasSuffix(trimmed, "}") {
		return text
	}
	open := strings.LastIndex(trimmed, "{")
	if open < 0 {
		return text
	}
	return strings.TrimRight(trimmed[:open], " \t")
}
