package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// Assumption documents arrive hand-written: pasted from notes, with comments,
// unquoted keys, trailing commas, or markdown fences around the payload. The
// helpers here normalize such input to strict JSON before it reaches a
// decoder, so a missing comma never costs an analyst a model run.

// RepairJSON fixes common authoring mistakes in a JSON document: single
// quotes, unquoted keys, trailing commas, unclosed brackets, code fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses a Human JSON document (comments, unquoted strings,
// optional commas) and returns the equivalent strict JSON.
func ParseHJSON(input string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(input), &result); err != nil {
		return "", fmt.Errorf("hjson parse failed: %v", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("hjson remarshal failed: %v", err)
	}
	return string(out), nil
}

// SmartParse decodes input into target using progressively more lenient
// strategies: strict JSON, repaired JSON, then Hjson. It returns the strict
// JSON form that decoded successfully.
func SmartParse(input string, target interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), target); err == nil {
			return repaired, nil
		}
	}

	if normalized, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(normalized), target); err == nil {
			return normalized, nil
		}
	}

	return "", fmt.Errorf("document is not parseable as JSON, repaired JSON, or Hjson")
}
