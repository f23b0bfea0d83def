package constants

// CriteriaType partitions the pipeline: inclusion and exclusion criteria are
// processed independently and never mixed.
type CriteriaType string

const (
	Inclusion CriteriaType = "inclusion"
	Exclusion CriteriaType = "exclusion"
)

// ID prefixes used when reindexing merged criteria.
const (
	InclusionPrefix = "INC"
	ExclusionPrefix = "EXC"
)

// Prefix returns the criterion id prefix for the type.
func (t CriteriaType) Prefix() string {
	if t == Exclusion {
		return ExclusionPrefix
	}
	return InclusionPrefix
}

// Source identifies which extraction strategy produced a criterion.
type Source string

// Stable values (stored in DB and exported JSON).
const (
	SourceLLM       Source = "llm"
	SourceOCR       Source = "ocr"
	SourceHeuristic Source = "heuristic"
)

// Default consensus weights per source. Higher wins on near-duplicates.
const (
	WeightLLM       = 3
	WeightOCR       = 2
	WeightHeuristic = 1
)
