package heuristic

import (
	"regexp"
	"strings"
)

// Span is a contiguous region of the normalized text, as byte offsets.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span holds no text.
func (s Span) Empty() bool { return s.End <= s.Start }

// Section heading patterns. Protocols are wildly inconsistent about
// punctuation and numbering around these headings, so match loosely.
var (
	reInclusionHeading   = regexp.MustCompile(`(?i)inclusion\s+criteria`)
	reExclusionHeading   = regexp.MustCompile(`(?i)exclusion\s+criteria`)
	reEligibilityHeading = regexp.MustCompile(`(?i)eligib(?:ility|le)\s+criteria`)

	// Short ALL-CAPS line, e.g. "STUDY PROCEDURES".
	reAllCapsLine = regexp.MustCompile(`^[A-Z][A-Z0-9 /&,\-]{2,59}$`)
	// Numbered heading with at least two Title Case words, e.g.
	// "5.3 Study Assessments".
	reNumberedHeading = regexp.MustCompile(`^\d+(?:\.\d+)+\.?\s+(?:[A-Z][A-Za-z]*\s+)+[A-Z][A-Za-z]*$`)
)

// LocateSection finds the span for a criteria section. The span begins at
// the start of the line following the heading match (never mid-line) and
// ends at the first match of any end pattern after it, or end-of-text.
// Returns an empty span when the heading is absent.
func LocateSection(text string, start *regexp.Regexp, ends []*regexp.Regexp) Span {
	loc := findHeading(text, start, 0)
	if loc < 0 {
		return Span{}
	}

	// advance to the start of the line following the heading
	begin := loc
	if nl := strings.IndexByte(text[begin:], '\n'); nl >= 0 {
		begin += nl + 1
	} else {
		begin = len(text)
	}

	end := len(text)
	for _, re := range ends {
		if m := findHeading(text, re, begin); m >= 0 && m < end {
			end = m
		}
	}
	return Span{Start: begin, End: end}
}

// findHeading returns the start offset of the first match of re at or after
// from that does not sit on a table-of-contents line. Protocol front matter
// lists "Inclusion Criteria ..... 14" long before the section itself; those
// entries must not anchor a span. Returns -1 when no usable match exists.
func findHeading(text string, re *regexp.Regexp, from int) int {
	for off := from; off <= len(text); {
		m := re.FindStringIndex(text[off:])
		if m == nil {
			return -1
		}
		at := off + m[0]
		if !reTOCLine.MatchString(lineAround(text, at)) {
			return at
		}
		off = at + 1
	}
	return -1
}

// lineAround returns the full line containing the byte offset.
func lineAround(text string, at int) string {
	start := strings.LastIndexByte(text[:at], '\n') + 1
	end := len(text)
	if nl := strings.IndexByte(text[at:], '\n'); nl >= 0 {
		end = at + nl
	}
	return text[start:end]
}

// TruncateAtGenericHeading shortens a section body at the first trailing
// administrative or procedural heading: a short ALL-CAPS line or a numbered
// Title Case heading. Criteria sections frequently run straight into
// "STUDY PROCEDURES" or "5.3 Study Assessments" with no other boundary.
func TruncateAtGenericHeading(body string) string {
	lines := strings.Split(body, "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if IsGenericHeading(line) {
			return strings.Join(lines[:i], "\n")
		}
	}
	return body
}

// IsGenericHeading reports whether a trimmed line looks like a section
// heading rather than criterion content.
func IsGenericHeading(line string) bool {
	if reAllCapsLine.MatchString(line) && !strings.ContainsAny(line, ".;") {
		return true
	}
	return reNumberedHeading.MatchString(line)
}
