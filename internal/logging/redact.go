package logging

import "strings"

const redacted = "<redacted>"

// sensitiveKeys name fields whose values are credentials.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"passcode":      {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"authorization": {},
}

// redactFields replaces credential values in place. Grouped keys are matched
// on their last segment; Bearer tokens are caught under any key.
func redactFields(fields map[string]any) {
	for key, value := range fields {
		name := key
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if _, ok := sensitiveKeys[strings.ToLower(name)]; ok {
			fields[key] = redacted
			continue
		}
		if s, ok := value.(string); ok && hasBearerPrefix(s) {
			fields[key] = redacted
		}
	}
}

func hasBearerPrefix(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > len("bearer ") && strings.EqualFold(s[:len("bearer ")], "bearer ")
}
