package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var reCodeFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeFences removes a surrounding markdown code fence. Models add
// them even when told to return bare JSON.
func StripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		return []byte(m[1])
	}
	return []byte(s)
}

// SanitizeCriteriaJSON repairs recoverable deviations from the criteria
// schema so the document can still validate:
//   - renames the plural key synonyms (inclusions -> inclusion)
//   - coerces bare-string array entries into {text: ...} objects
//   - drops entries with null, empty, or non-string text
//   - removes unknown top-level keys
//
// Returns the repaired JSON and the list of repairs applied.
func SanitizeCriteriaJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var applied []string
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			applied = append(applied, from+"->"+to)
		}
	}
	rename("inclusions", "inclusion")
	rename("exclusions", "exclusion")
	rename("inclusion_criteria", "inclusion")
	rename("exclusion_criteria", "exclusion")

	for _, key := range []string{"inclusion", "exclusion"} {
		arr, ok := m[key].([]any)
		if !ok {
			if m[key] != nil {
				applied = append(applied, key+"(not-array)")
			}
			m[key] = []any{}
			continue
		}
		cleaned := make([]any, 0, len(arr))
		for _, it := range arr {
			switch v := it.(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					cleaned = append(cleaned, map[string]any{"text": s})
					applied = append(applied, key+"(string-item)")
				}
			case map[string]any:
				text, _ := v["text"].(string)
				if strings.TrimSpace(text) == "" {
					applied = append(applied, key+"(empty-item)")
					continue
				}
				item := map[string]any{"text": strings.TrimSpace(text)}
				if id, ok := v["id"].(string); ok && id != "" {
					item["id"] = id
				}
				cleaned = append(cleaned, item)
			default:
				applied = append(applied, key+"(bad-item)")
			}
		}
		m[key] = cleaned
	}

	for k := range m {
		if k != "inclusion" && k != "exclusion" {
			delete(m, k)
			applied = append(applied, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, applied, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, applied, nil
}
