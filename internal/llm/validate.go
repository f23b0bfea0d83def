package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// criteriaSchema is the compiled form of BuildCriteriaJSONSchema. The
// response schema never varies between requests, so it compiles once at
// package init instead of per decode.
var criteriaSchema = mustCompileCriteriaSchema()

func mustCompileCriteriaSchema() *jsonschema.Schema {
	b, err := json.Marshal(BuildCriteriaJSONSchema())
	if err != nil {
		panic(fmt.Sprintf("marshal criteria schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("criteria.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add criteria schema: %v", err))
	}
	schema, err := compiler.Compile("criteria.json")
	if err != nil {
		panic(fmt.Sprintf("compile criteria schema: %v", err))
	}
	return schema
}

// ValidateCriteriaJSON checks that data is valid JSON matching the criteria
// response schema.
func ValidateCriteriaJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := criteriaSchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
