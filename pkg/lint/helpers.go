package lint

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// Line-based helpers. All line numbers are 1-based; all columns are 1-based
// and count characters, per the public column convention.

// LineContent returns the content of the specified 1-based line number,
// terminator excluded. Returns nil if the line number is out of range.
func LineContent(file *mdtoken.Snapshot, lineNum int) []byte {
	if file == nil || lineNum < 1 || lineNum > file.Lines.Count() {
		return nil
	}
	line := file.Lines.Entries[lineNum-1]
	return file.Content[line.StartOffset:line.NewlineStart]
}

// LineLength returns the length in characters of the specified 1-based line
// (excluding the terminator). Returns 0 if the line number is out of range.
func LineLength(file *mdtoken.Snapshot, lineNum int) int {
	return utf8.RuneCount(LineContent(file, lineNum))
}

// LineByteLength returns the length in bytes of the specified 1-based line.
func LineByteLength(file *mdtoken.Snapshot, lineNum int) int {
	return len(LineContent(file, lineNum))
}

// HasTrailingWhitespace returns true if the line has trailing whitespace.
func HasTrailingWhitespace(file *mdtoken.Snapshot, lineNum int) bool {
	content := LineContent(file, lineNum)
	if len(content) == 0 {
		return false
	}
	last := content[len(content)-1]
	return last == ' ' || last == '\t'
}

// TrailingWhitespaceSpan returns the 1-based column where trailing whitespace
// starts and its length in characters. Returns (0, 0) if the line has none.
func TrailingWhitespaceSpan(file *mdtoken.Snapshot, lineNum int) (col, length int) {
	content := LineContent(file, lineNum)
	trimmed := bytes.TrimRight(content, " \t")
	if len(trimmed) == len(content) {
		return 0, 0
	}
	col = utf8.RuneCount(trimmed) + 1
	length = len(content) - len(trimmed)
	return col, length
}

// IsBlankLine returns true if the line contains only whitespace.
func IsBlankLine(file *mdtoken.Snapshot, lineNum int) bool {
	content := LineContent(file, lineNum)
	return len(bytes.TrimSpace(content)) == 0
}

// LineContainsURL returns true if the line contains a URL (http:// or https://).
func LineContainsURL(file *mdtoken.Snapshot, lineNum int) bool {
	content := LineContent(file, lineNum)
	return bytes.Contains(content, []byte("http://")) || bytes.Contains(content, []byte("https://"))
}

// LineIndent returns the number of leading space characters on the line,
// expanding tabs to the next multiple of the given tab width.
func LineIndent(file *mdtoken.Snapshot, lineNum, tabWidth int) int {
	content := LineContent(file, lineNum)
	indent := 0
	for _, b := range content {
		switch b {
		case ' ':
			indent++
		case '\t':
			indent += tabWidth - indent%tabWidth
		default:
			return indent
		}
	}
	return indent
}

// ColumnOf converts a 0-based byte index within a line's content to a 1-based
// character column.
func ColumnOf(lineContent []byte, byteIdx int) int {
	if byteIdx < 0 {
		return 1
	}
	if byteIdx > len(lineContent) {
		byteIdx = len(lineContent)
	}
	return utf8.RuneCount(lineContent[:byteIdx]) + 1
}

// Blank line helpers.

// CountBlankLinesBefore counts consecutive blank lines before a given line.
func CountBlankLinesBefore(file *mdtoken.Snapshot, lineNum int) int {
	if file == nil || lineNum < 2 {
		return 0
	}
	count := 0
	for ln := lineNum - 1; ln >= 1; ln-- {
		if !IsBlankLine(file, ln) {
			break
		}
		count++
	}
	return count
}

// CountBlankLinesAfter counts consecutive blank lines after a given line.
func CountBlankLinesAfter(file *mdtoken.Snapshot, lineNum int) int {
	if file == nil || lineNum < 1 || lineNum >= file.Lines.Count() {
		return 0
	}
	count := 0
	for ln := lineNum + 1; ln <= file.Lines.Count(); ln++ {
		if !IsBlankLine(file, ln) {
			break
		}
		count++
	}
	return count
}

// Token accessor helpers. These wrap the typed Attrs accessors with kind
// guards so rules can call them on arbitrary indices.

// HeadingLevel returns the heading level for a heading token, or 0.
func HeadingLevel(tok mdtoken.Token) int {
	if tok.Kind != mdtoken.KindHeading {
		return 0
	}
	return tok.HeadingLevel()
}

// HeadingText returns the collected text content of a heading token.
func HeadingText(tok mdtoken.Token) string {
	if tok.Kind != mdtoken.KindHeading {
		return ""
	}
	return tok.Text
}

// TokenSpan returns the token's source position as a Span.
func TokenSpan(tok mdtoken.Token) Span {
	return Span{
		StartLine:   tok.StartLine,
		StartColumn: tok.StartColumn,
		EndLine:     tok.EndLine,
		EndColumn:   tok.EndColumn,
	}
}

// IsOrderedList returns true if the token is an ordered list.
func IsOrderedList(tok mdtoken.Token) bool {
	return tok.Kind == mdtoken.KindList && tok.ListOrdered()
}

// IsFencedCodeBlock returns true if the token is a fenced code block.
func IsFencedCodeBlock(tok mdtoken.Token) bool {
	return tok.Kind == mdtoken.KindCodeBlock && !tok.CodeIndented()
}

// IsIndentedCodeBlock returns true if the token is an indented code block.
func IsIndentedCodeBlock(tok mdtoken.Token) bool {
	return tok.Kind == mdtoken.KindCodeBlock && tok.CodeIndented()
}

// IsEmptyLink returns true if the link token has an empty destination.
func IsEmptyLink(tok mdtoken.Token) bool {
	return tok.Kind == mdtoken.KindLink && tok.LinkDestination() == ""
}

// IsEmptyLinkText returns true if the link token has no visible text.
func IsEmptyLinkText(tok mdtoken.Token) bool {
	return tok.Kind == mdtoken.KindLink && strings.TrimSpace(tok.Text) == ""
}

// ImageAlt returns the alt text for an image token.
func ImageAlt(tok mdtoken.Token) string {
	if tok.Kind != mdtoken.KindImage {
		return ""
	}
	return tok.Text
}

// ListItemsOf returns the indices of a list token's direct list-item children.
func ListItemsOf(file *mdtoken.Snapshot, listIdx int) []int {
	if file == nil || file.Token(listIdx).Kind != mdtoken.KindList {
		return nil
	}
	var items []int
	for c := file.Token(listIdx).FirstChild; c != mdtoken.None; c = file.Token(c).NextSibling {
		if file.Token(c).Kind == mdtoken.KindListItem {
			items = append(items, c)
		}
	}
	return items
}

// ListNestingDepth returns how many enclosing lists the token at idx sits
// inside, walking parent indices.
func ListNestingDepth(file *mdtoken.Snapshot, idx int) int {
	depth := 0
	for p := file.Token(idx).Parent; p != mdtoken.None; p = file.Token(p).Parent {
		if file.Token(p).Kind == mdtoken.KindList {
			depth++
		}
	}
	return depth
}

// TokenLineSet returns the set of 1-based lines covered by the token.
func TokenLineSet(tok mdtoken.Token) map[int]bool {
	lines := make(map[int]bool, tok.EndLine-tok.StartLine+1)
	for line := tok.StartLine; line <= tok.EndLine; line++ {
		lines[line] = true
	}
	return lines
}

// ExtractHTMLTagName extracts the tag name from an HTML element.
// Returns empty string if no valid tag found.
func ExtractHTMLTagName(content []byte) string {
	content = bytes.TrimSpace(content)
	if len(content) < 2 || content[0] != '<' {
		return ""
	}

	// Skip '<' and optional '/'
	idx := 1
	if idx < len(content) && content[idx] == '/' {
		idx++
	}

	// Extract tag name (alphanumeric characters)
	start := idx
	for idx < len(content) {
		ch := content[idx]
		isAlphaNum := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-'
		if !isAlphaNum {
			break
		}
		idx++
	}

	if idx == start {
		return ""
	}

	return string(bytes.ToLower(content[start:idx]))
}

// FrontMatterLineCount returns the number of leading front-matter lines in
// content (including both delimiter lines), or 0 when the document does not
// start with a front-matter block. The default delimiter is a `---` fence at
// the very start of the file, closed by a matching `---` or `...` line.
func FrontMatterLineCount(content []byte) int {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) == 0 {
		return 0
	}
	first := strings.TrimRight(string(lines[0]), "\r")
	if first != "---" {
		return 0
	}
	for i := 1; i < len(lines); i++ {
		line := strings.TrimRight(string(lines[i]), "\r")
		if line == "---" || line == "..." {
			return i + 1
		}
	}
	return 0
}

// FrontMatterField returns the value of a top-level front-matter field (e.g.
// "title") when present in the document's leading front matter, and whether
// it was found. Quoting is stripped; nested structures are not interpreted.
func FrontMatterField(content []byte, field string) (string, bool) {
	count := FrontMatterLineCount(content)
	if count == 0 {
		return "", false
	}
	lines := bytes.Split(content, []byte("\n"))
	prefix := field + ":"
	for i := 1; i < count-1 && i < len(lines); i++ {
		line := strings.TrimRight(string(lines[i]), "\r")
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		value = strings.Trim(value, `"'`)
		return value, true
	}
	return "", false
}
