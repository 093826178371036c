package fix

import (
	"sort"
	"strings"

	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// Violation pairs a reported line with the fix hints it carries. Most
// violations carry at most one FixInfo; a handful (e.g. a fenced/indented
// code-block conversion) emit a primary edit plus fix_only helper deletes,
// which is why this is a slice.
type Violation struct {
	Line int
	Fix  []FixInfo
}

// Apply runs the convergent fix-application algorithm: detect line-ending
// style once, sort fixes back-to-front by (line desc, column desc), then
// apply right-to-left so no edit perturbs the line/column indices any
// other edit was computed against. Returns the rewritten document.
func Apply(content []byte, violations []Violation) []byte {
	lineInfo := mdtoken.BuildLines(content)
	term := lineInfo.Terminator()

	lines := plainLines(content, lineInfo)

	type placed struct {
		line   int
		column int
		fix    FixInfo
	}

	var fixes []placed
	for _, v := range violations {
		for _, f := range v.Fix {
			fixes = append(fixes, placed{line: f.Line(v.Line), column: f.Column(), fix: f})
		}
	}

	sort.SliceStable(fixes, func(i, j int) bool {
		if fixes[i].line != fixes[j].line {
			return fixes[i].line > fixes[j].line
		}
		return fixes[i].column > fixes[j].column
	})

	deleted := map[int]bool{}

	shiftDeletedAfter := func(point, growth int) {
		if growth == 0 {
			return
		}
		shifted := make(map[int]bool, len(deleted))
		for idx := range deleted {
			if idx > point {
				shifted[idx+growth] = true
			} else {
				shifted[idx] = true
			}
		}
		deleted = shifted
	}

	for _, pf := range fixes {
		idx := pf.line - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		if pf.fix.DeleteCount == DeleteWholeLine {
			deleted[idx] = true
			continue
		}
		if deleted[idx] {
			continue
		}

		// Columns and delete counts are measured in characters; translate
		// to byte offsets so multi-byte characters are never split.
		line := lines[idx]
		start := byteIndexOfChar(line, pf.column-1)

		var end int
		switch {
		case pf.fix.DeleteCount == DeleteToEndOfLine:
			end = len(line)
		case pf.fix.DeleteCount <= 0:
			end = start
		default:
			end = start + byteIndexOfChar(line[start:], pf.fix.DeleteCount)
		}

		replaced := line[:start] + pf.fix.InsertText + line[end:]

		if !strings.Contains(pf.fix.InsertText, "\n") {
			lines[idx] = replaced
			continue
		}

		parts := strings.Split(replaced, "\n")
		growth := len(parts) - 1
		lines = spliceLine(lines, idx, parts)
		shiftDeletedAfter(idx, growth)
	}

	var out []string
	for i, l := range lines {
		if deleted[i] {
			continue
		}
		out = append(out, l)
	}

	joined := strings.Join(out, term)
	if lineInfo.TrailingNewline && joined != "" {
		joined += term
	}
	return []byte(joined)
}

// byteIndexOfChar returns the byte offset of the n-th character in s,
// clamped to len(s).
func byteIndexOfChar(s string, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// plainLines returns the document's logical lines with terminators stripped.
func plainLines(content []byte, lineInfo mdtoken.Lines) []string {
	lines := make([]string, 0, lineInfo.Count())
	for _, e := range lineInfo.Entries {
		lines = append(lines, string(content[e.StartOffset:e.NewlineStart]))
	}
	return lines
}

// spliceLine replaces the line at idx with the given replacement lines,
// shifting every later line up by len(replacement)-1 positions.
func spliceLine(lines []string, idx int, replacement []string) []string {
	out := make([]string, 0, len(lines)+len(replacement)-1)
	out = append(out, lines[:idx]...)
	out = append(out, replacement...)
	out = append(out, lines[idx+1:]...)
	return out
}
