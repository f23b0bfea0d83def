package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/entity"
)

// Extractor is the generation strategy: it sends the protocol text to a
// schema-constrained Generator and normalizes the structured output into
// candidate lists. Every transport, parsing, or validation failure degrades
// to empty lists; nothing raises past this boundary.
type Extractor struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

func NewExtractor(gen Generator, timeout time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Extractor{gen: gen, timeout: timeout, logger: logger}
}

// Extract returns (inclusion, exclusion) candidates for the protocol text.
// Empty input returns empty lists without invoking the generator. A nil
// generator is the capability-unavailable state and also degrades to empty.
func (e *Extractor) Extract(ctx context.Context, text string) ([]entity.Candidate, []entity.Candidate) {
	if strings.TrimSpace(text) == "" {
		e.logger.Debug("llm.extract.empty_input")
		return nil, nil
	}
	if e.gen == nil {
		e.logger.Warn("llm.extract.degraded", "reason", "no generator configured")
		return nil, nil
	}

	rid := uuid.New().String()
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := buildUserPrompt(text)

	raw, err := e.gen.Generate(ctx, prompt, BuildCriteriaJSONSchema())
	if err != nil {
		e.logger.Warn("llm.extract.generate_failed",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil
	}

	payload, err := e.decode(rid, raw)
	if err != nil {
		e.logger.Warn("llm.extract.decode_failed",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil
	}

	inc := normalizeItems(payload.Inclusion, constants.InclusionPrefix)
	exc := normalizeItems(payload.Exclusion, constants.ExclusionPrefix)
	e.logger.Info("llm.extract.ok",
		"req_id", rid,
		"inclusion", len(inc),
		"exclusion", len(exc),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return inc, exc
}

// decode validates the raw content strictly, then retries once through the
// lenient sanitize pass before giving up.
func (e *Extractor) decode(rid string, raw []byte) (criteriaPayload, error) {
	var payload criteriaPayload

	content := StripCodeFences(raw)
	if err := ValidateCriteriaJSON(content); err != nil {
		cleaned, applied, sErr := SanitizeCriteriaJSON(content)
		if sErr != nil {
			return payload, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateCriteriaJSON(cleaned); vErr != nil {
			return payload, fmt.Errorf("schema validation failed: %w", vErr)
		}
		e.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "repairs", applied)
		content = cleaned
	}

	if err := json.Unmarshal(content, &payload); err != nil {
		return payload, fmt.Errorf("unmarshal criteria: %w", err)
	}
	return payload, nil
}

// normalizeItems trims text, backfills missing ids sequentially, and tags
// candidates as plain text. Blank items are dropped.
func normalizeItems(items []payloadItem, prefix string) []entity.Candidate {
	out := make([]entity.Candidate, 0, len(items))
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		id := it.ID
		if id == "" {
			id = fmt.Sprintf("%s%d", prefix, len(out)+1)
		}
		out = append(out, entity.Candidate{ID: id, Text: text, Type: entity.CandidateTypeText})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
