package logging

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FormatPayload normalizes HTTP and STOMP bodies for log output. JSON bodies
// are re-indented without HTML escaping, anything else is returned trimmed.
func FormatPayload(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "<empty>"
	}

	// JSON string body such as "\"{...}\"".
	var quoted string
	if err := json.Unmarshal([]byte(trimmed), &quoted); err == nil {
		trimmed = strings.TrimSpace(quoted)
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(value); encErr == nil {
			return strings.TrimSpace(buf.String())
		}
	}

	return Truncate(trimmed)
}
