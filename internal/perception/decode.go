package perception

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"tutorbot/internal/logging"
)

// =============================================================================
// JSON EXTRACTION AND REPAIR
// =============================================================================
// LLMs wrap JSON in markdown fences, prose, or emit almost-JSON with single
// quotes and trailing commas. Decode runs a tiered recovery: extract the JSON
// region, try strict parsing, then repair and retry.

var (
	jsonFenceRe  = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	bareFenceRe  = regexp.MustCompile("(?s)```\\s*(.*?)```")
	trailingRe   = regexp.MustCompile(`,\s*([}\]])`)
	singleKeyRe  = regexp.MustCompile(`'([^']*)'\s*:`)
	singleValRe  = regexp.MustCompile(`:\s*'([^']*)'`)
	unquotedKeRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// ExtractJSON pulls the JSON payload out of an LLM response.
// Checks for a ```json fence, then a bare fence, then the outermost braces.
func ExtractJSON(response string) (string, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return "", fmt.Errorf("empty response")
	}

	if m := jsonFenceRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1]), nil
	}

	if m := bareFenceRe.FindStringSubmatch(trimmed); m != nil {
		candidate := strings.TrimSpace(m[1])
		if strings.HasPrefix(candidate, "{") || strings.HasPrefix(candidate, "[") {
			return candidate, nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1], nil
	}

	start = strings.Index(trimmed, "[")
	end = strings.LastIndex(trimmed, "]")
	if start >= 0 && end > start {
		return trimmed[start : end+1], nil
	}

	return "", fmt.Errorf("no JSON found in response")
}

// RepairJSON fixes the common almost-JSON mistakes LLMs make:
// single-quoted keys and values, unquoted keys, trailing commas.
func RepairJSON(s string) string {
	s = singleKeyRe.ReplaceAllString(s, `"$1":`)
	s = singleValRe.ReplaceAllString(s, `: "$1"`)
	s = unquotedKeRe.ReplaceAllString(s, `$1"$2":`)
	s = trailingRe.ReplaceAllString(s, "$1")
	return s
}

// Decode extracts JSON from an LLM response and unmarshals it into v.
// Falls back to repaired JSON when strict parsing fails.
func Decode(response string, v interface{}) error {
	payload, err := ExtractJSON(response)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return nil
	}

	repaired := RepairJSON(payload)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		logging.APIDebug("Decode: repair failed payload_len=%d: %v", len(payload), err)
		return fmt.Errorf("failed to decode response JSON: %w", err)
	}

	logging.APIDebug("Decode: recovered payload after repair payload_len=%d", len(payload))
	return nil
}

// DecodeMap extracts JSON from an LLM response into a generic map.
func DecodeMap(response string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := Decode(response, &m); err != nil {
		return nil, err
	}
	return m, nil
}
