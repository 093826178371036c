package fix_test

import (
	"testing"

	"github.com/mkdlint/mkdlint/pkg/fix"
)

func FuzzGenerateDiff(f *testing.F) {
	// Add seed corpus.
	f.Add([]byte(""), []byte(""))
	f.Add([]byte("hello"), []byte("hello"))
	f.Add([]byte("hello"), []byte("world"))
	f.Add([]byte("hello\n"), []byte("hello\n"))
	f.Add([]byte("a\nb\nc\n"), []byte("a\nx\nc\n"))
	f.Add([]byte("line1\nline2\n"), []byte("line1\nline2\nline3\n"))
	f.Add([]byte("line1\nline2\nline3\n"), []byte("line1\nline3\n"))
	f.Add([]byte("a\nb\nc\nd\ne\n"), []byte("a\nB\nc\nD\ne\n"))

	f.Fuzz(func(t *testing.T, original, modified []byte) {
		// GenerateDiff should not panic.
		diff := fix.GenerateDiff("test.md", original, modified)

		// If diff is nil, content should be considered equivalent.
		if diff == nil {
			return
		}

		// Diff should have valid structure.
		if diff.Path != "test.md" {
			t.Errorf("Path = %q, want test.md", diff.Path)
		}

		// String() should not panic.
		_ = diff.String()

		// HasChanges should be consistent.
		if !diff.HasChanges() && len(diff.Hunks) > 0 {
			t.Error("HasChanges() inconsistent with Hunks")
		}

		// Verify hunk structure.
		for hunkIdx, hunk := range diff.Hunks {
			if hunk.OriginalStart < 1 {
				t.Errorf("hunk %d: OriginalStart = %d, want >= 1", hunkIdx, hunk.OriginalStart)
			}
			if hunk.ModifiedStart < 1 {
				t.Errorf("hunk %d: ModifiedStart = %d, want >= 1", hunkIdx, hunk.ModifiedStart)
			}
			if hunk.OriginalCount < 0 {
				t.Errorf("hunk %d: OriginalCount = %d, want >= 0", hunkIdx, hunk.OriginalCount)
			}
			if hunk.ModifiedCount < 0 {
				t.Errorf("hunk %d: ModifiedCount = %d, want >= 0", hunkIdx, hunk.ModifiedCount)
			}

			// Count line types.
			var ctxCount, addCount, remCount int
			for _, line := range hunk.Lines {
				switch line.Kind {
				case fix.DiffLineContext:
					ctxCount++
				case fix.DiffLineAdd:
					addCount++
				case fix.DiffLineRemove:
					remCount++
				}
			}

			// Counts should be consistent.
			if ctxCount+remCount != hunk.OriginalCount {
				t.Errorf("hunk %d: context(%d) + remove(%d) != OriginalCount(%d)",
					hunkIdx, ctxCount, remCount, hunk.OriginalCount)
			}
			if ctxCount+addCount != hunk.ModifiedCount {
				t.Errorf("hunk %d: context(%d) + add(%d) != ModifiedCount(%d)",
					hunkIdx, ctxCount, addCount, hunk.ModifiedCount)
			}
		}
	})
}

func FuzzApply(f *testing.F) {
	// Add seed corpus.
	f.Add([]byte("hello\n"), 1, 1, 5, "world")
	f.Add([]byte("hello world\n"), 1, 6, 0, " beautiful")
	f.Add([]byte("abcdef\n"), 1, 1, 0, "prefix")
	f.Add([]byte("abcdef\n"), 1, 7, 0, "suffix")
	f.Add([]byte("abcdef\n"), 1, 3, 2, "")
	f.Add([]byte("a\nb\nc\n"), 2, 0, -1, "")

	f.Fuzz(func(t *testing.T, content []byte, line, column, deleteCount int, insertText string) {
		violations := []fix.Violation{
			{Line: line, Fix: []fix.FixInfo{{LineNumber: line, EditColumn: column, DeleteCount: deleteCount, InsertText: insertText}}},
		}

		// Apply must never panic regardless of how nonsensical line/column/
		// deleteCount are relative to content.
		result := fix.Apply(content, violations)

		// Applying the same violation set twice must converge: the fix is
		// either already gone (line/column no longer point at the original
		// text) or harmless to repeat.
		_ = fix.Apply(result, violations)
	})
}
