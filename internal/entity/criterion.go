package entity

import (
	"strings"

	"github.com/clinvara/trial-criteria/constants"
)

// Criterion is one atomic eligibility statement after the consensus merge.
// IDs are assigned only at merge time, sequentially per criteria type
// (INC1, INC2, ... / EXC1, EXC2, ...).
type Criterion struct {
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	Type   string           `json:"type"`
	Source constants.Source `json:"source,omitempty"`
	Weight int              `json:"weight,omitempty"`
}

// Candidate is a pre-merge criterion produced by a single strategy. It may
// carry a strategy-assigned id and may duplicate candidates from other
// strategies; the merger deduplicates and reindexes.
type Candidate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"`
}

// CandidateTypeText is the only candidate payload type the pipeline emits.
const CandidateTypeText = "text"

// NewCandidate trims the text and tags the candidate as plain text.
func NewCandidate(id, text string) Candidate {
	return Candidate{ID: id, Text: strings.TrimSpace(text), Type: CandidateTypeText}
}
