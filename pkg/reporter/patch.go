package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/mkdlint/mkdlint/pkg/runner"
)

// WritePatch assembles every file's pending diff into one git-applyable
// unified patch and writes it to w. The assembled text is round-tripped
// through go-gitdiff before being emitted, so a malformed hunk fails here
// with a useful error instead of later inside `git apply`. Returns the
// number of files included in the patch.
func WritePatch(w io.Writer, result *runner.Result) (int, error) {
	if result == nil {
		return 0, nil
	}

	var sb strings.Builder
	files := 0

	for _, file := range result.Files {
		if file.Error != nil || file.Result == nil || file.Result.Diff == nil {
			continue
		}
		diff := file.Result.Diff
		if !diff.HasChanges() {
			continue
		}

		sb.WriteString(diff.FullString())
		files++
	}

	if files == 0 {
		return 0, nil
	}

	patch := sb.String()

	// Validate: the patch must parse back into the same number of files.
	parsed, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return 0, fmt.Errorf("assembled patch does not parse: %w", err)
	}
	if len(parsed) != files {
		return 0, fmt.Errorf("assembled patch describes %d files, expected %d", len(parsed), files)
	}

	if _, err := io.WriteString(w, patch); err != nil {
		return 0, fmt.Errorf("write patch: %w", err)
	}

	return files, nil
}
