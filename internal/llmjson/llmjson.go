// Package llmjson pulls JSON objects out of model replies.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract returns the outermost {...} span of raw. Models often wrap JSON
// in prose or code fences; anything outside the braces is ignored.
func Extract(raw string) (string, error) {
	jsonStart := strings.Index(raw, "{")
	jsonEnd := strings.LastIndex(raw, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return "", fmt.Errorf("no JSON object in model reply")
	}
	return raw[jsonStart : jsonEnd+1], nil
}

// Decode extracts and unmarshals the JSON object in raw into v
func Decode(raw string, v any) error {
	body, err := Extract(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("malformed JSON in model reply: %w", err)
	}
	return nil
}
