// Package json provides JSON extraction utilities for parsing LLM responses.
//
// LLMs often return JSON embedded in prose or fenced in markdown code
// blocks. This package locates and parses the JSON portion of such
// responses so callers can validate it against an expected schema.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON finds and returns the JSON portion of a response string.
// It handles common LLM response patterns:
// 1. Pure JSON response - returns the full response
// 2. JSON wrapped in markdown code blocks (```json ... ```)
// 3. A JSON object or array embedded in text - delimiter matching
//
// Limitations:
// - Uses simple delimiter matching, not full JSON parsing
// - May fail if delimiters appear in strings or are unbalanced
func extractJSON(response string) (string, error) {
	// Strip markdown code blocks if present
	response = stripMarkdownCodeBlocks(response)

	// Try full response first
	var test interface{}
	if err := json.Unmarshal([]byte(response), &test); err == nil {
		return response, nil
	}

	// Try to find an embedded object, then an embedded array
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(response, pair[0])
		if start == -1 {
			continue
		}
		end := strings.LastIndex(response, pair[1])
		if end == -1 || end <= start {
			continue
		}
		jsonStr := response[start : end+1]
		var test interface{}
		if err := json.Unmarshal([]byte(jsonStr), &test); err == nil {
			return jsonStr, nil
		}
	}

	// Create a preview for the error message
	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview)
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}

// ExtractJSONFromResponse extracts and parses JSON from an LLM response
// into the given type. Returns an error if no valid JSON can be located
// or the located JSON does not unmarshal into T.
func ExtractJSONFromResponse[T any](response string) (T, error) {
	var result T
	jsonStr, err := extractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// ExtractJSON extracts the JSON portion from a response string.
// Returns the raw JSON string suitable for further processing.
func ExtractJSON(response string) (string, error) {
	return extractJSON(response)
}
