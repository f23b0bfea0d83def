package consensus

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/entity"
)

// Config holds the merge tuning knobs. The threshold and weights are
// defaults inherited from manual review of a handful of protocols, not
// validated against a labelled corpus; callers may override them.
type Config struct {
	SimilarityThreshold float64
	WeightLLM           int
	WeightOCR           int
	WeightHeuristic     int
}

// DefaultConfig returns the standard 0.80 threshold and 3/2/1 weights.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.80,
		WeightLLM:           constants.WeightLLM,
		WeightOCR:           constants.WeightOCR,
		WeightHeuristic:     constants.WeightHeuristic,
	}
}

// Merger deduplicates and ranks candidates from the three extraction
// strategies into one authoritative list per criteria type.
type Merger struct {
	cfg    Config
	logger *slog.Logger
}

func NewMerger(cfg Config, logger *slog.Logger) *Merger {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.80
	}
	if cfg.WeightLLM <= 0 {
		cfg.WeightLLM = constants.WeightLLM
	}
	if cfg.WeightOCR <= 0 {
		cfg.WeightOCR = constants.WeightOCR
	}
	if cfg.WeightHeuristic <= 0 {
		cfg.WeightHeuristic = constants.WeightHeuristic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{cfg: cfg, logger: logger}
}

// Merge combines the three strategies' candidates for one criteria type.
// Sources are processed in fixed priority order (llm, ocr, heuristic); a
// candidate whose text is similar to an already-accepted item at or above
// the threshold is dropped, so the first-seen, highest-priority source wins.
// The accepted set is then stably sorted by weight descending and reindexed
// as {prefix}1..{prefix}n. With empty inputs it returns an empty list.
func (m *Merger) Merge(heuristic, ocr, llm []entity.Candidate, idPrefix string) []entity.Criterion {
	sources := []struct {
		name   constants.Source
		items  []entity.Candidate
		weight int
	}{
		{constants.SourceLLM, llm, m.cfg.WeightLLM},
		{constants.SourceOCR, ocr, m.cfg.WeightOCR},
		{constants.SourceHeuristic, heuristic, m.cfg.WeightHeuristic},
	}

	var accepted []entity.Criterion
	dropped := 0
	for _, src := range sources {
		for _, item := range src.items {
			text := strings.TrimSpace(item.Text)
			if text == "" {
				continue
			}
			if m.isDuplicate(text, accepted) {
				dropped++
				continue
			}
			accepted = append(accepted, entity.Criterion{
				Text:   text,
				Type:   entity.CandidateTypeText,
				Source: src.name,
				Weight: src.weight,
			})
		}
	}

	// ties keep insertion order, which is already llm, ocr, heuristic and,
	// within a source, document scan order
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Weight > accepted[j].Weight
	})
	for i := range accepted {
		accepted[i].ID = fmt.Sprintf("%s%d", idPrefix, i+1)
	}

	m.logger.Debug("consensus.merge.done",
		"prefix", idPrefix,
		"accepted", len(accepted),
		"duplicates_dropped", dropped,
	)
	return accepted
}

func (m *Merger) isDuplicate(text string, accepted []entity.Criterion) bool {
	for _, a := range accepted {
		if Similarity(text, a.Text) >= m.cfg.SimilarityThreshold {
			return true
		}
	}
	return false
}
