package llm

// BuildCriteriaJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate the response.
func BuildCriteriaJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"inclusion": criteriaArrayProp(),
			"exclusion": criteriaArrayProp(),
		},
		"required": []string{"inclusion", "exclusion"},
	}
}

func criteriaArrayProp() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"id":   map[string]any{"type": "string"},
				"text": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"text"},
		},
	}
}
