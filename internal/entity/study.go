package entity

import (
	"time"

	"github.com/google/uuid"
)

// Study represents one trial workspace for data transfer between layers.
type Study struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// ExtractRun records one invocation of the consensus extraction pipeline.
type ExtractRun struct {
	ID             uuid.UUID  `json:"id"`
	StudyID        uuid.UUID  `json:"study_id"`
	ProtocolPath   string     `json:"protocol_path"`
	Status         string     `json:"status"`
	HeuristicCount int        `json:"heuristic_count"`
	OCRCount       int        `json:"ocr_count"`
	LLMCount       int        `json:"llm_count"`
	InclusionCount int        `json:"inclusion_count"`
	ExclusionCount int        `json:"exclusion_count"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}
