package mdtoken

import "sort"

// LineInfo holds byte-offset metadata for a single physical line.
type LineInfo struct {
	// StartOffset is the byte index of the line's first character.
	StartOffset int

	// NewlineStart is the byte index where the terminator begins; equal
	// to EndOffset for a final line with no trailing terminator.
	NewlineStart int

	// EndOffset is the byte index just past the terminator (or EOF).
	EndOffset int
}

// Lines is the per-document line index used to translate between byte
// offsets and 1-based line/column positions.
type Lines struct {
	Entries []LineInfo

	// CRLF is true if the document uses CRLF endings; per the data model,
	// a document is CRLF if any "\r\n" occurs anywhere, else LF.
	CRLF bool

	// TrailingNewline is true if Content ended with a terminator.
	TrailingNewline bool
}

// BuildLines splits content into line metadata, recognizing both LF and
// CRLF terminators.
func BuildLines(content []byte) Lines {
	lines := Lines{}
	if len(content) == 0 {
		return lines
	}

	lineStart := 0
	for idx := 0; idx < len(content); idx++ {
		if content[idx] != '\n' {
			continue
		}
		newlineStart := idx
		if idx > 0 && content[idx-1] == '\r' {
			newlineStart = idx - 1
			lines.CRLF = true
		}
		lines.Entries = append(lines.Entries, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
		})
		lineStart = idx + 1
	}

	if lineStart <= len(content) {
		if lineStart < len(content) {
			lines.Entries = append(lines.Entries, LineInfo{
				StartOffset:  lineStart,
				NewlineStart: len(content),
				EndOffset:    len(content),
			})
		} else {
			lines.TrailingNewline = true
		}
	}

	return lines
}

// Terminator returns the line-ending string this document should be
// rejoined with.
func (l Lines) Terminator() string {
	if l.CRLF {
		return "\r\n"
	}
	return "\n"
}

// Count returns the number of logical lines.
func (l Lines) Count() int {
	return len(l.Entries)
}

// At converts a byte offset to a 1-based (line, column) pair. Column counts
// bytes; callers needing rune-accurate columns should re-derive from the
// line's content via utf8.
func (l Lines) At(offset int) (line, col int) {
	if offset < 0 || len(l.Entries) == 0 {
		return 0, 0
	}
	idx := sort.Search(len(l.Entries), func(i int) bool {
		return l.Entries[i].EndOffset > offset
	})
	if idx >= len(l.Entries) {
		idx = len(l.Entries) - 1
	}
	e := l.Entries[idx]
	if offset < e.StartOffset {
		return 0, 0
	}
	return idx + 1, offset - e.StartOffset + 1
}

// Offset converts a 1-based (line, column) pair back to a byte offset.
func (l Lines) Offset(line, col int) (int, bool) {
	if line < 1 || line > len(l.Entries) || col < 1 {
		return 0, false
	}
	e := l.Entries[line-1]
	off := e.StartOffset + col - 1
	if off > e.EndOffset {
		return 0, false
	}
	return off, true
}
