package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/entity"
)

// TextStrategy extracts candidates from already-available plain text.
type TextStrategy interface {
	Extract(text string) (inclusion, exclusion []entity.Candidate)
}

// DocumentStrategy extracts candidates from the document file itself,
// recovering text on the way (OCR).
type DocumentStrategy interface {
	Extract(ctx context.Context, documentPath string) (inclusion, exclusion []entity.Candidate)
}

// GenerationStrategy extracts candidates by sending the text to an external
// generation capability.
type GenerationStrategy interface {
	Extract(ctx context.Context, text string) (inclusion, exclusion []entity.Candidate)
}

// Merger collapses the three strategies' candidates for one criteria type
// into the authoritative ranked list.
type Merger interface {
	Merge(heuristic, ocr, llm []entity.Candidate, idPrefix string) []entity.Criterion
}

// Outcome summarizes one pipeline run for persistence and logging.
type Outcome struct {
	HeuristicCount int           `json:"heuristic_count"`
	OCRCount       int           `json:"ocr_count"`
	LLMCount       int           `json:"llm_count"`
	InclusionCount int           `json:"inclusion_count"`
	ExclusionCount int           `json:"exclusion_count"`
	Elapsed        time.Duration `json:"-"`
}

// Pipeline fans the protocol out to the three extraction strategies and
// merges their candidates per criteria type. Strategies degrade to empty
// lists on failure, so a run always produces a result; when every strategy
// comes back empty the merged lists are empty too.
type Pipeline struct {
	heuristic TextStrategy
	ocr       DocumentStrategy
	llm       GenerationStrategy
	merger    Merger
	logger    *slog.Logger
}

func New(h TextStrategy, o DocumentStrategy, l GenerationStrategy, m Merger, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{heuristic: h, ocr: o, llm: l, merger: m, logger: logger}
}

// ExtractAllCriteria runs the three strategies concurrently over the
// protocol text (and the document at documentPath for the OCR strategy),
// then merges inclusion and exclusion candidates independently. Passing
// empty text and a missing document is valid and yields two empty lists.
func (p *Pipeline) ExtractAllCriteria(ctx context.Context, text, documentPath string) ([]entity.Criterion, []entity.Criterion, Outcome) {
	start := time.Now()

	var (
		hInc, hExc []entity.Candidate
		oInc, oExc []entity.Candidate
		lInc, lExc []entity.Candidate
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if p.heuristic != nil {
			hInc, hExc = p.heuristic.Extract(text)
		}
	}()
	go func() {
		defer wg.Done()
		if p.ocr != nil {
			oInc, oExc = p.ocr.Extract(ctx, documentPath)
		}
	}()
	go func() {
		defer wg.Done()
		if p.llm != nil {
			lInc, lExc = p.llm.Extract(ctx, text)
		}
	}()
	wg.Wait()

	inclusion := p.merger.Merge(hInc, oInc, lInc, constants.Inclusion.Prefix())
	exclusion := p.merger.Merge(hExc, oExc, lExc, constants.Exclusion.Prefix())

	out := Outcome{
		HeuristicCount: len(hInc) + len(hExc),
		OCRCount:       len(oInc) + len(oExc),
		LLMCount:       len(lInc) + len(lExc),
		InclusionCount: len(inclusion),
		ExclusionCount: len(exclusion),
		Elapsed:        time.Since(start),
	}
	p.logger.Info("pipeline.extract.done",
		"heuristic", out.HeuristicCount,
		"ocr", out.OCRCount,
		"llm", out.LLMCount,
		"inclusion", out.InclusionCount,
		"exclusion", out.ExclusionCount,
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	return inclusion, exclusion, out
}
