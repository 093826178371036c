package directive

import "strings"

// codeBlockLines returns the set of 1-based line numbers that fall inside a
// fenced or indented code block, scanned directly from raw lines so the
// directive scanner never depends on a parsed token vector. Fence detection
// mirrors CommonMark's own rule: three or more matching backticks or tildes,
// closed by a line with at least as many of the same character.
func codeBlockLines(lines []string) map[int]bool {
	inside := map[int]bool{}

	var fenceChar byte
	var fenceLen int
	inFence := false
	blankRun := true // true until the first non-blank line is seen

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)

		if inFence {
			inside[lineNum] = true
			if isFenceClose(trimmed, fenceChar, fenceLen) {
				inFence = false
			}
			continue
		}

		if ch, n, ok := fenceOpen(trimmed); ok && indent < 4 {
			fenceChar, fenceLen = ch, n
			inFence = true
			inside[lineNum] = true
			continue
		}

		// An indented chunk is code when it follows a blank line (or the
		// file start), or continues an indented block already in progress;
		// a 4-space indent directly under a paragraph is lazy continuation.
		if indent >= 4 && strings.TrimSpace(line) != "" && (blankRun || inside[lineNum-1]) {
			inside[lineNum] = true
		}

		blankRun = strings.TrimSpace(line) == ""
	}

	return inside
}

func fenceOpen(trimmed string) (ch byte, length int, ok bool) {
	if len(trimmed) < 3 {
		return 0, 0, false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return 0, 0, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	return c, n, true
}

func isFenceClose(trimmed string, ch byte, minLen int) bool {
	n := 0
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	return n >= minLen && strings.TrimSpace(trimmed[n:]) == ""
}
