package llm

import "context"

// Generator is the schema-constrained generation capability boundary. A
// Generate call returns the raw JSON content produced by the backing model;
// transport and provider details stay behind this interface. Implementations
// must honor ctx cancellation and deadlines.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema map[string]any) ([]byte, error)
}

// criteriaPayload is the two-key object shape the generator is constrained
// to. Items may arrive without ids; the extractor backfills them.
type criteriaPayload struct {
	Inclusion []payloadItem `json:"inclusion"`
	Exclusion []payloadItem `json:"exclusion"`
}

type payloadItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
