package lint

import (
	"context"

	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// Parser parses Markdown content into a token snapshot.
//
// The lint package defines this interface to follow the gobible principle
// of defining interfaces in the consumer package. Implementations (e.g.,
// parser/goldmark) provide the concrete parsing logic.
//
// Implementations must be:
//   - deterministic for a given (flavor, path, content) tuple,
//   - safe for concurrent use by multiple goroutines, if documented as such,
//   - side-effect free (no I/O, no global state mutation).
type Parser interface {
	// Parse converts raw Markdown bytes into a fully-populated Snapshot.
	//
	// Parameters:
	//   - ctx: context for cancellation and timeout propagation.
	//   - path: logical file path (for diagnostics; must not be used for I/O).
	//   - content: raw Markdown bytes (must not be mutated by the implementation).
	//
	// Returns:
	//   - On success: a Snapshot with the full token vector and line index.
	//   - On error: nil and a descriptive error; no partial snapshot is returned.
	//
	// The returned Snapshot must satisfy:
	//   - snapshot.Path == path
	//   - bytes.Equal(snapshot.Content, content)
	//   - snapshot.Root == mdtoken.None iff snapshot.Tokens is empty, and
	//     otherwise snapshot.Tokens[snapshot.Root].Kind == mdtoken.KindDocument
	Parse(ctx context.Context, path string, content []byte) (*mdtoken.Snapshot, error)
}
