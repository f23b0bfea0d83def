package heuristic

import (
	"regexp"
	"strings"
)

var (
	reCRLF        = regexp.MustCompile(`\r\n?`)
	reBadEncoding = regexp.MustCompile("�+|\\(cid:\\d+\\)")
	reTabs        = regexp.MustCompile(`\t+`)
	reMultiSpace  = regexp.MustCompile(` {2,}`)
	reMultiBlank  = regexp.MustCompile(`\n{3,}`)
)

// Normalize repairs common document-to-text artifacts before segmentation.
// Total function: never fails, empty input returns empty output.
// Conservative: keeps line breaks that follow sentence-ending punctuation;
// collapses >2 consecutive newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reBadEncoding.ReplaceAllString(s, " ")
	s = reTabs.ReplaceAllString(s, " ")
	s = mergeWrappedLines(s)
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(s)
}

// mergeWrappedLines joins a line break that splits a sentence: the previous
// line does not end in terminal punctuation and the next begins with a
// lowercase letter or digit. A digit that itself opens a list marker
// ("1.", "2)") keeps its line break, or every numbered criterion after a
// bare heading would fold into the heading line.
func mergeWrappedLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(out) == 0 {
			out = append(out, line)
			continue
		}
		prev := out[len(out)-1]
		if joinsSentence(prev, line) {
			out[len(out)-1] = strings.TrimRight(prev, " ") + " " + strings.TrimLeft(line, " ")
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func joinsSentence(prev, next string) bool {
	p := strings.TrimRight(prev, " ")
	n := strings.TrimLeft(next, " ")
	if p == "" || n == "" {
		return false
	}
	switch p[len(p)-1] {
	case '.', '!', '?', ':':
		return false
	}
	c := n[0]
	if c >= 'a' && c <= 'z' {
		return true
	}
	if c >= '0' && c <= '9' {
		return !reListMarker.MatchString(n)
	}
	return false
}
