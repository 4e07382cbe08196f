package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripCodeFences removes a Markdown code-fence wrapper (``` or ```json)
// from the response when present
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (e.g., "json")
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// extractJSONObject returns the first balanced {...} span in s, honoring
// string literals and escapes, or "" when no balanced object exists
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// decodeJSONObject defensively parses a generation response into a JSON
// object: fences are stripped first, and when the raw text is not valid
// JSON the first balanced object span is re-extracted and parsed
func decodeJSONObject(raw string) (map[string]any, error) {
	cleaned := stripCodeFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}

	span := extractJSONObject(cleaned)
	if span == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON object: %w", err)
	}
	return obj, nil
}
