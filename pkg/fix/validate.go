package fix

import (
	"fmt"
	"math"
	"sort"
)

// ValidationError describes a fix hint that targets an out-of-range line or
// column.
type ValidationError struct {
	Fix     FixInfo
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fix [line %d col %d]: %s", e.Fix.LineNumber, e.Fix.EditColumn, e.Message)
}

// ConflictError describes two fixes on the same line whose deletion ranges
// overlap.
type ConflictError struct {
	Line       int
	Fix1, Fix2 FixInfo
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping fixes on line %d", e.Line)
}

// ResolvedFix is a FixInfo with its line/column resolved against the
// violation that emitted it, plus a back-reference for reporting.
type ResolvedFix struct {
	Line      int
	Column    int
	Fix       FixInfo
	Violation int // index into the originating []Violation
}

// ResolveFixes flattens a set of violations into their resolved fixes.
func ResolveFixes(violations []Violation) []ResolvedFix {
	var out []ResolvedFix
	for vi, v := range violations {
		for _, f := range v.Fix {
			out = append(out, ResolvedFix{Line: f.Line(v.Line), Column: f.Column(), Fix: f, Violation: vi})
		}
	}
	return out
}

// ValidateFixes checks that every fix targets a line within the document and
// carries a non-negative column.
func ValidateFixes(violations []Violation, lineCount int) error {
	for _, rf := range ResolveFixes(violations) {
		if rf.Line < 1 || rf.Line > lineCount {
			return &ValidationError{
				Fix:     rf.Fix,
				Message: fmt.Sprintf("line %d outside document (1..%d)", rf.Line, lineCount),
			}
		}
		if rf.Fix.EditColumn < 0 {
			return &ValidationError{Fix: rf.Fix, Message: "edit column is negative"}
		}
	}
	return nil
}

// SortResolvedFixes sorts by line ascending, then column ascending; this is
// the order conflict detection scans in, distinct from the line-desc/
// column-desc order Apply applies in.
func SortResolvedFixes(fixes []ResolvedFix) {
	sort.SliceStable(fixes, func(i, j int) bool {
		if fixes[i].Line != fixes[j].Line {
			return fixes[i].Line < fixes[j].Line
		}
		return fixes[i].Column < fixes[j].Column
	})
}

// charRange returns the [start, end) character range a fix deletes on its
// line. A whole-line delete reports the widest possible range since it
// consumes the line regardless of any other fix's column.
func charRange(f FixInfo) (start, end int) {
	start = f.Column() - 1
	switch {
	case f.DeleteCount == DeleteWholeLine:
		return 0, math.MaxInt
	case f.DeleteCount == DeleteToEndOfLine:
		return start, math.MaxInt
	case f.DeleteCount <= 0:
		return start, start
	default:
		return start, start + f.DeleteCount
	}
}

func overlaps(a, b FixInfo) bool {
	aStart, aEnd := charRange(a)
	bStart, bEnd := charRange(b)
	return aStart < bEnd && bStart < aEnd
}

// DetectConflicts reports the first pair of same-line fixes with overlapping
// deletion ranges in a slice already sorted by SortResolvedFixes.
func DetectConflicts(fixes []ResolvedFix) error {
	for i := 1; i < len(fixes); i++ {
		prev, curr := fixes[i-1], fixes[i]
		if prev.Line == curr.Line && overlaps(prev.Fix, curr.Fix) {
			return &ConflictError{Line: curr.Line, Fix1: prev.Fix, Fix2: curr.Fix}
		}
	}
	return nil
}

// FilterConflicts greedily keeps the first fix of each overlapping same-line
// group (earlier violations, i.e. earlier-registered rules, win) and returns
// the rest as skipped, for diagnostic reporting.
func FilterConflicts(fixes []ResolvedFix) (accepted, skipped []ResolvedFix) {
	accepted = make([]ResolvedFix, 0, len(fixes))
	byLine := map[int][]ResolvedFix{}
	var lineOrder []int
	for _, rf := range fixes {
		if _, ok := byLine[rf.Line]; !ok {
			lineOrder = append(lineOrder, rf.Line)
		}
		byLine[rf.Line] = append(byLine[rf.Line], rf)
	}

	for _, line := range lineOrder {
		group := byLine[line]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Violation < group[j].Violation })

		var kept []ResolvedFix
		for _, rf := range group {
			conflict := false
			for _, k := range kept {
				if overlaps(k.Fix, rf.Fix) {
					conflict = true
					break
				}
			}
			if conflict {
				skipped = append(skipped, rf)
			} else {
				kept = append(kept, rf)
			}
		}
		accepted = append(accepted, kept...)
	}
	return accepted, skipped
}

// PrepareViolations validates every fix, then partitions violations into
// those whose fixes survive conflict filtering and those whose fixes were
// entirely dropped as conflicting. Violations in accepted may have had some
// (but not all) of their individual fixes filtered out.
func PrepareViolations(violations []Violation, lineCount int) (accepted []Violation, skippedCount int, err error) {
	if err := ValidateFixes(violations, lineCount); err != nil {
		return nil, 0, err
	}

	resolved := ResolveFixes(violations)
	SortResolvedFixes(resolved)
	keptFixes, skipped := FilterConflicts(resolved)

	keptByViolation := map[int][]FixInfo{}
	for _, rf := range keptFixes {
		keptByViolation[rf.Violation] = append(keptByViolation[rf.Violation], rf.Fix)
	}

	accepted = make([]Violation, len(violations))
	for i, v := range violations {
		accepted[i] = Violation{Line: v.Line, Fix: keptByViolation[i]}
	}

	return accepted, len(skipped), nil
}
