package heuristic

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/entity"
)

// Keywords that mark a line as plausibly belonging to an eligibility
// section, used only by the last-resort fallback.
var reEligibilityKeyword = regexp.MustCompile(`(?i)\b(age|patient|subject|diagnos\w*|disease|treatment|pregnan\w*|exclude|include|eligible|history|years)\b`)

// Extractor is the heading/regex strategy: normalize, locate the inclusion
// and exclusion sections, parse each into candidates. It is the fallback of
// last resort for the pipeline and has zero external dependencies.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns (inclusion, exclusion) candidate lists from plain protocol
// text. It never fails: any failure mode yields empty lists.
func (e *Extractor) Extract(text string) ([]entity.Candidate, []entity.Candidate) {
	text = Normalize(text)
	if text == "" {
		return nil, nil
	}

	incSpan := LocateSection(text, reInclusionHeading, []*regexp.Regexp{reExclusionHeading})
	excSpan := LocateSection(text, reExclusionHeading, []*regexp.Regexp{reInclusionHeading})

	// When both headings exist the spans already bound one another,
	// whichever order the document uses. When only one exists, its span
	// runs to end-of-text and the generic-heading truncation below trims
	// trailing administrative sections.
	incBlock := sectionBody(text, incSpan)
	excBlock := sectionBody(text, excSpan)

	if incBlock == "" && excBlock == "" {
		incBlock, excBlock = e.fallbackBlocks(text)
	}

	inc := ParseBlock(incBlock, constants.InclusionPrefix)
	exc := ParseBlock(excBlock, constants.ExclusionPrefix)
	e.logger.Debug("heuristic.extract.done",
		"inclusion", len(inc),
		"exclusion", len(exc),
	)
	return inc, exc
}

func sectionBody(text string, span Span) string {
	if span.Empty() {
		return ""
	}
	return TruncateAtGenericHeading(text[span.Start:span.End])
}

// fallbackBlocks handles documents with no inclusion or exclusion heading.
// First choice: a combined "eligibility criteria" section bisected by line
// count. Last resort: a contiguous run of list-marker lines containing
// eligibility-domain keywords, likewise bisected. Both are low-confidence.
func (e *Extractor) fallbackBlocks(text string) (string, string) {
	span := LocateSection(text, reEligibilityHeading, nil)
	if !span.Empty() {
		body := TruncateAtGenericHeading(text[span.Start:span.End])
		if strings.TrimSpace(body) != "" {
			e.logger.Warn("heuristic.extract.eligibility_bisect", "reason", "no inclusion/exclusion headings")
			return bisectLines(body)
		}
	}

	if run := findKeywordListRun(text); run != "" {
		e.logger.Warn("heuristic.extract.list_run_bisect", "reason", "no eligibility heading")
		return bisectLines(run)
	}
	return "", ""
}

// bisectLines splits a block in half by line count: first half inclusion,
// second half exclusion. Purely positional, no semantic basis.
func bisectLines(body string) (string, string) {
	var lines []string
	for _, l := range strings.Split(body, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return "", ""
	}
	mid := (len(lines) + 1) / 2
	return strings.Join(lines[:mid], "\n"), strings.Join(lines[mid:], "\n")
}

// findKeywordListRun scans for the first contiguous run of three or more
// list-marker lines whose text mentions an eligibility-domain keyword.
func findKeywordListRun(text string) string {
	lines := strings.Split(text, "\n")
	var run []string
	flush := func() string {
		if len(run) >= 3 {
			return strings.Join(run, "\n")
		}
		return ""
	}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line != "" && reListMarker.MatchString(line) && reEligibilityKeyword.MatchString(line) {
			run = append(run, line)
			continue
		}
		if found := flush(); found != "" {
			return found
		}
		run = run[:0]
	}
	return flush()
}
