package checklist

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema is what the model is instructed to return. Verdict values
// are left unconstrained here because coercion handles string booleans.
const responseSchema = `{
	"type": "object",
	"required": ["question_answers", "condition_evaluations"],
	"properties": {
		"question_answers": {
			"type": "object",
			"additionalProperties": true
		},
		"condition_evaluations": {
			"type": "object",
			"additionalProperties": true
		}
	}
}`

// validateResponse checks the model output against the expected structure
// before any field-level parsing happens.
func validateResponse(text string) error {
	schemaLoader := gojsonschema.NewStringLoader(responseSchema)
	documentLoader := gojsonschema.NewStringLoader(text)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("response does not match expected structure:")
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		sb.WriteString(fmt.Sprintf(" %s: %s;", field, desc.Description()))
	}
	return fmt.Errorf("%s", strings.TrimSuffix(sb.String(), ";"))
}
