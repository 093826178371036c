package fix

import (
	"bytes"
	"fmt"
	"strings"
)

// hunkContext is the number of unchanged lines shown on each side of a
// change; two changes merge into one hunk when their context windows touch.
const hunkContext = 3

// Diff is a line-based comparison of a document before and after fixing,
// expressed as unified-diff hunks.
type Diff struct {
	// Path is the document identifier both sides share.
	Path string

	// Original and Modified are the compared contents.
	Original []byte
	Modified []byte

	// Hunks holds the changed regions, in document order.
	Hunks []DiffHunk

	// Additions and Deletions count changed lines across all hunks.
	Additions int
	Deletions int
}

// DiffHunk is one changed region plus its surrounding context, with 1-based
// starting lines and line counts on each side (the `@@` header values).
type DiffHunk struct {
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int

	// Lines is the hunk body in output order.
	Lines []DiffLine
}

// DiffLine is a single hunk body line.
type DiffLine struct {
	Kind    DiffLineKind
	Content string
}

// DiffLineKind indicates the type of diff line.
type DiffLineKind int

const (
	// DiffLineContext is an unchanged line present on both sides.
	DiffLineContext DiffLineKind = iota

	// DiffLineAdd is a line only the modified side has.
	DiffLineAdd

	// DiffLineRemove is a line only the original side has.
	DiffLineRemove
)

// editOp is one step of the line-level edit script: keep a line, drop an
// original line, or insert a modified line.
type editOp struct {
	kind DiffLineKind

	// origIdx / modIdx are 0-based indices into the respective line slices;
	// -1 on the side the op does not touch.
	origIdx int
	modIdx  int
}

// GenerateDiff compares two documents line by line and returns their hunks,
// or nil when the contents are equivalent.
func GenerateDiff(path string, original, modified []byte) *Diff {
	if bytes.Equal(original, modified) {
		return nil
	}

	origLines := contentLines(original)
	modLines := contentLines(modified)

	ops := editScript(origLines, modLines)

	changed := false
	for _, op := range ops {
		if op.kind != DiffLineContext {
			changed = true
			break
		}
	}
	if !changed {
		// Only terminator differences; nothing line-based to report.
		return nil
	}

	d := &Diff{
		Path:     path,
		Original: original,
		Modified: modified,
		Hunks:    assembleHunks(ops, origLines, modLines),
	}
	for _, op := range ops {
		switch op.kind {
		case DiffLineAdd:
			d.Additions++
		case DiffLineRemove:
			d.Deletions++
		}
	}
	return d
}

// contentLines splits a document into logical lines, dropping the empty
// remainder a trailing terminator leaves behind.
func contentLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.Split(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// editScript computes a line-level edit script via the classic
// longest-common-subsequence table, backtracked into ops in document order.
func editScript(orig, mod []string) []editOp {
	// table[i][j] is the LCS length of orig[i:] and mod[j:].
	table := make([][]int, len(orig)+1)
	for i := range table {
		table[i] = make([]int, len(mod)+1)
	}
	for i := len(orig) - 1; i >= 0; i-- {
		for j := len(mod) - 1; j >= 0; j-- {
			if orig[i] == mod[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else if table[i+1][j] >= table[i][j+1] {
				table[i][j] = table[i+1][j]
			} else {
				table[i][j] = table[i][j+1]
			}
		}
	}

	ops := make([]editOp, 0, len(orig)+len(mod))
	i, j := 0, 0
	for i < len(orig) && j < len(mod) {
		switch {
		case orig[i] == mod[j]:
			ops = append(ops, editOp{kind: DiffLineContext, origIdx: i, modIdx: j})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			ops = append(ops, editOp{kind: DiffLineRemove, origIdx: i, modIdx: -1})
			i++
		default:
			ops = append(ops, editOp{kind: DiffLineAdd, origIdx: -1, modIdx: j})
			j++
		}
	}
	for ; i < len(orig); i++ {
		ops = append(ops, editOp{kind: DiffLineRemove, origIdx: i, modIdx: -1})
	}
	for ; j < len(mod); j++ {
		ops = append(ops, editOp{kind: DiffLineAdd, origIdx: -1, modIdx: j})
	}
	return ops
}

// assembleHunks walks the edit script once, opening a hunk at the first
// change, carrying up to hunkContext unchanged lines on each side, and
// closing the hunk when a run of more than 2*hunkContext unchanged lines
// separates it from the next change.
func assembleHunks(ops []editOp, orig, mod []string) []DiffHunk {
	var hunks []DiffHunk

	idx := 0
	for idx < len(ops) {
		if ops[idx].kind == DiffLineContext {
			idx++
			continue
		}

		// Found a change; the hunk starts up to hunkContext lines earlier.
		start := idx - hunkContext
		if start < 0 {
			start = 0
		}

		// Extend over subsequent changes whose gaps are small enough to
		// share context, then take the trailing context.
		end := idx
		cursor := idx
		for cursor < len(ops) {
			if ops[cursor].kind != DiffLineContext {
				end = cursor
				cursor++
				continue
			}
			gap := 0
			for cursor+gap < len(ops) && ops[cursor+gap].kind == DiffLineContext {
				gap++
			}
			if cursor+gap == len(ops) || gap > 2*hunkContext {
				break
			}
			cursor += gap
		}
		tail := end + hunkContext
		if tail >= len(ops) {
			tail = len(ops) - 1
		}

		hunks = append(hunks, buildHunk(ops[start:tail+1], orig, mod))
		idx = tail + 1
	}

	return hunks
}

// buildHunk renders a slice of the edit script into a hunk with its header
// values. Starting lines are 1-based and stay at 1 even for an empty side,
// matching the rest of the toolkit's line addressing.
func buildHunk(ops []editOp, orig, mod []string) DiffHunk {
	hunk := DiffHunk{OriginalStart: 1, ModifiedStart: 1}

	// Header start lines come from the first op touching each side.
	origSeen, modSeen := false, false
	for _, op := range ops {
		if !origSeen && op.origIdx >= 0 {
			hunk.OriginalStart = op.origIdx + 1
			origSeen = true
		}
		if !modSeen && op.modIdx >= 0 {
			hunk.ModifiedStart = op.modIdx + 1
			modSeen = true
		}
		if origSeen && modSeen {
			break
		}
	}

	for _, op := range ops {
		switch op.kind {
		case DiffLineContext:
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: DiffLineContext, Content: orig[op.origIdx]})
			hunk.OriginalCount++
			hunk.ModifiedCount++
		case DiffLineRemove:
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: DiffLineRemove, Content: orig[op.origIdx]})
			hunk.OriginalCount++
		case DiffLineAdd:
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: DiffLineAdd, Content: mod[op.modIdx]})
			hunk.ModifiedCount++
		}
	}

	return hunk
}

// GitHeader returns the "diff --git" header line.
func (d *Diff) GitHeader() string {
	if d == nil {
		return ""
	}
	path := strings.TrimPrefix(d.Path, "/")
	return fmt.Sprintf("diff --git a/%s b/%s", path, path)
}

// String returns the diff in unified diff format (without the git header).
func (d *Diff) String() string {
	if !d.HasChanges() {
		return ""
	}

	path := strings.TrimPrefix(d.Path, "/")

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n", path)
	fmt.Fprintf(&sb, "+++ b/%s\n", path)

	for _, hunk := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n",
			hunk.OriginalStart, hunk.OriginalCount,
			hunk.ModifiedStart, hunk.ModifiedCount)

		for _, line := range hunk.Lines {
			switch line.Kind {
			case DiffLineContext:
				fmt.Fprintf(&sb, " %s\n", line.Content)
			case DiffLineAdd:
				fmt.Fprintf(&sb, "+%s\n", line.Content)
			case DiffLineRemove:
				fmt.Fprintf(&sb, "-%s\n", line.Content)
			}
		}
	}

	return sb.String()
}

// FullString returns the complete diff including the git header.
func (d *Diff) FullString() string {
	if !d.HasChanges() {
		return ""
	}
	return d.GitHeader() + "\n" + d.String()
}

// HasChanges returns true if the diff contains any changes.
func (d *Diff) HasChanges() bool {
	return d != nil && len(d.Hunks) > 0
}
