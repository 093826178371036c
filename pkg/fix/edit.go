// Package fix applies rule-emitted edit hints to source text, deterministically
// and without corrupting line endings, per the convergent fix-application
// design: detect line-ending style once, sort fixes back-to-front, apply
// right-to-left so earlier indices are never perturbed by later edits.
package fix

// DeleteWholeLine, used as FixInfo.DeleteCount, deletes the entire target
// line including its terminator.
const DeleteWholeLine = -1

// DeleteToEndOfLine, used as FixInfo.DeleteCount, deletes from EditColumn to
// the end of the line's logical content (terminator excluded).
const DeleteToEndOfLine = -2

// FixInfo is a single-line edit hint emitted alongside a violation.
//
//   - LineNumber: 1-based; 0 means "use the violation's own line".
//   - EditColumn: 1-based column on the line's logical content (terminator
//     excluded); 0 means column 1.
//   - DeleteCount: 0 or positive deletes that many characters starting at
//     EditColumn; DeleteWholeLine deletes the entire line incl. terminator;
//     DeleteToEndOfLine deletes the remainder of the line.
//   - InsertText: inserted at EditColumn after deletion; may embed "\n" to
//     produce a multi-line replacement, in which case the newlines are
//     rejoined using the document's detected line-ending style.
type FixInfo struct {
	LineNumber  int
	EditColumn  int
	DeleteCount int
	InsertText  string
}

// Line resolves the effective line this fix targets, given the line the
// owning violation was reported on.
func (f FixInfo) Line(violationLine int) int {
	if f.LineNumber > 0 {
		return f.LineNumber
	}
	return violationLine
}

// Column resolves the effective 1-based edit column, defaulting to 1.
func (f FixInfo) Column() int {
	if f.EditColumn > 0 {
		return f.EditColumn
	}
	return 1
}

// Builder accumulates FixInfo values for a single violation. Most rules need
// exactly one fix per violation; Builder exists for the handful that must
// emit a primary multi-line edit plus fix_only helper deletes (e.g. a
// fenced/indented code-block conversion).
type Builder struct {
	Fixes []FixInfo
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// DeleteChars records a delete of count characters starting at column on
// line.
func (b *Builder) DeleteChars(line, column, count int) *Builder {
	b.Fixes = append(b.Fixes, FixInfo{LineNumber: line, EditColumn: column, DeleteCount: count})
	return b
}

// DeleteLine records a whole-line delete, including its terminator.
func (b *Builder) DeleteLine(line int) *Builder {
	b.Fixes = append(b.Fixes, FixInfo{LineNumber: line, DeleteCount: DeleteWholeLine})
	return b
}

// DeleteToEOL records a delete from column to the end of line's content.
func (b *Builder) DeleteToEOL(line, column int) *Builder {
	b.Fixes = append(b.Fixes, FixInfo{LineNumber: line, EditColumn: column, DeleteCount: DeleteToEndOfLine})
	return b
}

// InsertAt records an insertion of text at column on line, without deleting
// anything.
func (b *Builder) InsertAt(line, column int, text string) *Builder {
	b.Fixes = append(b.Fixes, FixInfo{LineNumber: line, EditColumn: column, InsertText: text})
	return b
}

// Replace records a delete-then-insert at column on line.
func (b *Builder) Replace(line, column, deleteCount int, text string) *Builder {
	b.Fixes = append(b.Fixes, FixInfo{LineNumber: line, EditColumn: column, DeleteCount: deleteCount, InsertText: text})
	return b
}

// Build returns the accumulated fixes. A Builder with no recorded fixes
// yields a violation with no fix_info (not fixable).
func (b *Builder) Build() []FixInfo {
	return b.Fixes
}
