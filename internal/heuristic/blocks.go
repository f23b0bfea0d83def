package heuristic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clinvara/trial-criteria/internal/entity"
)

const (
	minBulletLen   = 6
	minSentenceLen = 15
)

var (
	// Table-of-contents line: dot leader followed by a trailing page number.
	reTOCLine = regexp.MustCompile(`\.{3,}\s*\d+\s*$`)
	// Bullet glyph or a numbering marker: digit, letter, or parenthetical
	// enumerator followed by a separator.
	reListMarker = regexp.MustCompile(`^\s*(?:[-*\x{2022}\x{25CF}\x{25AA}]|\(?\d{1,3}[.)\]]|\(?[a-zA-Z][.)\]]\s)`)
	// Strip the marker plus any leading punctuation from the criterion text.
	reMarkerStrip = regexp.MustCompile(`^[\s\-*\x{2022}\x{25CF}\x{25AA}()\[\]a-zA-Z0-9.)]*?[\s.):\]]+`)

	// Administrative noise inside criteria sections: schedule and dosing
	// lines that heading detection alone does not catch.
	reNoiseLine = regexp.MustCompile(`(?i)\b(randomi[sz]ation|visit\s*\d|week\s*-?\d|day\s*-?\d|screening|treatment\s+period|dose|pharmacokinetic|\d+\s+subjects?|maintenance\s+period|follow[\s-]?up)\b`)

	// Section labels that sometimes survive marker stripping.
	sectionLabels = map[string]struct{}{
		"inclusion criteria":   {},
		"exclusion criteria":   {},
		"eligibility criteria": {},
	}
)

// ParseBlock converts a located section body into an ordered candidate list.
// Heading-like, table-of-contents, and administrative noise lines are
// dropped; list-marker lines become candidates; when no markers exist the
// block is sentence-split instead. An empty or whitespace block yields nil.
func ParseBlock(block, idPrefix string) []entity.Candidate {
	if strings.TrimSpace(block) == "" {
		return nil
	}

	var kept []string
	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if reTOCLine.MatchString(line) || IsGenericHeading(line) || reNoiseLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	var texts []string
	for _, line := range kept {
		if !reListMarker.MatchString(line) {
			continue
		}
		t := stripMarker(line)
		if len(t) < minBulletLen || isSectionLabel(t) {
			continue
		}
		texts = append(texts, t)
	}

	// No list markers at all: fall back to sentence splitting.
	if len(texts) == 0 {
		for _, s := range SplitSentences(strings.Join(kept, " ")) {
			s = strings.TrimSpace(s)
			if len(s) > minSentenceLen && !reNoiseLine.MatchString(s) {
				texts = append(texts, s)
			}
		}
	}

	out := make([]entity.Candidate, 0, len(texts))
	for i, t := range texts {
		out = append(out, entity.NewCandidate(seqID(idPrefix, i+1), t))
	}
	return out
}

// SplitSentences breaks text on sentence-terminal punctuation followed by
// whitespace. The terminator stays attached to its sentence.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t') {
				out = append(out, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func stripMarker(line string) string {
	t := reMarkerStrip.ReplaceAllString(line, "")
	return strings.TrimSpace(strings.TrimLeft(t, `.-*)\]:; `))
}

func isSectionLabel(t string) bool {
	_, ok := sectionLabels[strings.ToLower(strings.TrimRight(strings.TrimSpace(t), ":"))]
	return ok
}

func seqID(prefix string, n int) string {
	return fmt.Sprintf("%s%d", prefix, n)
}
