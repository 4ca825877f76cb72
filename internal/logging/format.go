package logging

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
)

const clipLimit = 240

// leadingKeys are printed first, in this order, so lines about the same
// connection or room line up when scanning a log.
var leadingKeys = []string{"component", "connection_id", "identity", "room", "destination", "subscription"}

func Truncate(value string) string {
	value = strings.TrimSpace(value)
	value = strings.NewReplacer("\n", " ", "\r", " ").Replace(value)
	if value == "" {
		return "<empty>"
	}
	if len(value) > clipLimit {
		return value[:clipLimit] + "..."
	}
	return value
}

func FormatEventLine(event Event) string {
	var b strings.Builder
	b.WriteString(event.Time.Format("15:04:05"))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(event.Level.String()))
	b.WriteString("] ")
	b.WriteString(event.Message)
	for _, key := range orderedFieldKeys(event.Level, event.Fields) {
		fmt.Fprintf(&b, " %s=%s", key, formatFieldValue(event.Fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatFieldValue(value any) string {
	if value == nil {
		return "<nil>"
	}
	if pretty, ok := prettyJSONString(value); ok {
		return pretty
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func marshalPrettyJSON(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// prettyJSONString reports whether value is, or holds, a JSON object or array
// and returns it indented. Plain text with JSON inside it is not a match.
func prettyJSONString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case error:
		return prettyJSONString(v.Error())
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return "", false
		}
		return prettyJSONString(string(text))
	case []byte:
		return prettyJSONString(string(v))
	case string:
		decoded, ok := decodeJSONContainer(strings.TrimSpace(v))
		if !ok {
			return "", false
		}
		out, err := marshalPrettyJSON(decoded)
		return out, err == nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		out, err := marshalPrettyJSON(rv.Interface())
		return out, err == nil
	default:
		return "", false
	}
}

func decodeJSONContainer(input string) (any, bool) {
	if input == "" || (input[0] != '{' && input[0] != '[') {
		return nil, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(input), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// orderedFieldKeys returns leading keys first, then the other inline fields
// sorted, then JSON fields, with payload-like JSON last.
func orderedFieldKeys(_ slog.Level, fields map[string]any) []string {
	rest := make([]string, 0, len(fields))
	for key := range fields {
		if !slices.Contains(leadingKeys, key) {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)

	ordered := make([]string, 0, len(fields))
	for _, key := range leadingKeys {
		if _, ok := fields[key]; ok {
			ordered = append(ordered, key)
		}
	}
	var jsonKeys, payloadKeys []string
	for _, key := range rest {
		if _, ok := prettyJSONString(fields[key]); !ok {
			ordered = append(ordered, key)
			continue
		}
		if isPayloadFieldKey(key) {
			payloadKeys = append(payloadKeys, key)
		} else {
			jsonKeys = append(jsonKeys, key)
		}
	}
	ordered = append(ordered, jsonKeys...)
	return append(ordered, payloadKeys...)
}

func isPayloadFieldKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "payload", "response", "body", "headers":
		return true
	default:
		return false
	}
}
