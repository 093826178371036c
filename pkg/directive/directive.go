// Package directive parses inline `<!-- markdownlint-* -->` HTML-comment
// directives and turns them into a per-(line, rule) enabled mask that the
// rule runtime filters violations through.
package directive

import (
	"regexp"
	"strings"
)

var directivePattern = regexp.MustCompile(
	`<!--\s*markdownlint-(disable-next-line|disable-file|disable|enable|capture|restore)\b([^>]*)-->`,
)

type kind int

const (
	kindDisable kind = iota
	kindEnable
	kindDisableNextLine
	kindDisableFile
	kindCapture
	kindRestore
)

type event struct {
	line  int
	kind  kind
	rules []string // empty means "all rules"
}

// Scan parses every directive comment in content and returns the resulting
// Mask. Directives inside fenced or indented code blocks are inert.
func Scan(content []byte) *Mask {
	lines := splitLines(content)
	inert := codeBlockLines(lines)

	var events []event
	fileDisabled := map[string]bool{}
	fileDisabledAll := false

	for i, line := range lines {
		lineNum := i + 1
		if inert[lineNum] {
			continue
		}
		for _, m := range directivePattern.FindAllStringSubmatch(line, -1) {
			ev := event{line: lineNum, kind: parseKind(m[1]), rules: parseRules(m[2])}
			if ev.kind == kindDisableFile {
				if len(ev.rules) == 0 {
					fileDisabledAll = true
				}
				for _, r := range ev.rules {
					fileDisabled[r] = true
				}
				continue
			}
			events = append(events, ev)
		}
	}

	return buildMask(len(lines), events, fileDisabledAll, fileDisabled)
}

func parseKind(token string) kind {
	switch token {
	case "disable":
		return kindDisable
	case "enable":
		return kindEnable
	case "disable-next-line":
		return kindDisableNextLine
	case "disable-file":
		return kindDisableFile
	case "capture":
		return kindCapture
	case "restore":
		return kindRestore
	default:
		return kindDisable
	}
}

func parseRules(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	rules := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		rules = append(rules, strings.ToUpper(f))
	}
	return rules
}

func splitLines(content []byte) []string {
	text := string(content)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// activeSet is the running disabled-rule state maintained across the
// document: allDisabled plus per-rule overrides that take precedence over
// it (an "enable RULE" after a blanket "disable" re-enables just that rule).
type activeSet struct {
	allDisabled bool
	overrides   map[string]bool // rule -> disabled
}

func (a activeSet) clone() activeSet {
	cp := make(map[string]bool, len(a.overrides))
	for k, v := range a.overrides {
		cp[k] = v
	}
	return activeSet{allDisabled: a.allDisabled, overrides: cp}
}

func (a activeSet) disabled(rule string) bool {
	if v, ok := a.overrides[rule]; ok {
		return v
	}
	return a.allDisabled
}

func buildMask(lineCount int, events []event, fileDisabledAll bool, fileDisabled map[string]bool) *Mask {
	m := &Mask{
		lineCount:       lineCount,
		fileDisabledAll: fileDisabledAll,
		fileDisabled:    fileDisabled,
		nextLine:        map[int]activeSet{},
		perLine:         make([]activeSet, lineCount+1),
	}

	current := activeSet{overrides: map[string]bool{}}
	var stack []activeSet

	for lineNum := 1; lineNum <= lineCount; lineNum++ {
		for _, ev := range events {
			if ev.line != lineNum {
				continue
			}
			switch ev.kind {
			case kindDisable:
				applyDisable(&current, ev.rules)
			case kindEnable:
				applyEnable(&current, ev.rules)
			case kindCapture:
				stack = append(stack, current.clone())
			case kindRestore:
				if len(stack) > 0 {
					current = stack[len(stack)-1]
					stack = stack[:len(stack)-1]
				}
			case kindDisableNextLine:
				next := current.clone()
				applyDisable(&next, ev.rules)
				m.nextLine[lineNum+1] = next
			case kindDisableFile:
				// handled separately as a document-wide OR mask.
			}
		}
		m.perLine[lineNum] = current.clone()
	}

	return m
}

func applyDisable(a *activeSet, rules []string) {
	if len(rules) == 0 {
		a.allDisabled = true
		a.overrides = map[string]bool{}
		return
	}
	for _, r := range rules {
		a.overrides[r] = true
	}
}

func applyEnable(a *activeSet, rules []string) {
	if len(rules) == 0 {
		a.allDisabled = false
		a.overrides = map[string]bool{}
		return
	}
	for _, r := range rules {
		a.overrides[r] = false
	}
}
