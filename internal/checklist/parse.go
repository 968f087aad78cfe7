package checklist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/tender-checklist/internal/llm"
)

// MissingAnswerFallback is synthesized for any question the model omitted.
const MissingAnswerFallback = "Information not found in documents"

// rawResponse mirrors the JSON structure the prompt demands. Values are kept
// raw because models occasionally return booleans as strings.
type rawResponse struct {
	QuestionAnswers      map[string]json.RawMessage `json:"question_answers"`
	ConditionEvaluations map[string]json.RawMessage `json:"condition_evaluations"`
}

// parseResponse turns the model output into complete answer and verdict maps.
// Every input question and condition is guaranteed a key in the output:
// omitted questions get MissingAnswerFallback, omitted or unparseable
// condition values coerce to false.
func parseResponse(text string, questions, conditions []string) (map[string]string, map[string]bool, error) {
	text = llm.CleanJSONBlock(text)

	if err := validateResponse(text); err != nil {
		return nil, nil, err
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		value, ok := raw.QuestionAnswers[q]
		if !ok {
			answers[q] = MissingAnswerFallback
			continue
		}
		answers[q] = coerceString(value)
	}

	verdicts := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		value, ok := raw.ConditionEvaluations[c]
		if !ok {
			verdicts[c] = false
			continue
		}
		verdicts[c] = coerceBool(value)
	}

	return answers, verdicts, nil
}

// coerceString decodes a JSON string, falling back to the raw token for
// non-string values so no answer is ever dropped.
func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// coerceBool decodes a condition verdict leniently: JSON booleans, the
// strings "true"/"false"/"yes"/"no" in any case, and anything else is false.
func coerceBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			return true
		}
	}
	return false
}
