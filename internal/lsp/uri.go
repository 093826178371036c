package lsp

import (
	"net/url"
	"strings"
)

// uriToPath converts a file:// URI to a filesystem path. Non-file-scheme
// URIs are returned unchanged so the lint engine still has a stable,
// if synthetic, identifier to key diagnostics by.
func uriToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return uri
	}
	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}
	return path
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// toPosition converts a 1-based line/column to a 0-based LSP Position.
func toPosition(line, column int) Position {
	l := line - 1
	if l < 0 {
		l = 0
	}
	c := column - 1
	if c < 0 {
		c = 0
	}
	return Position{Line: l, Character: c}
}
