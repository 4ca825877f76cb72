package logging

import "log/slog"

// attrsToMap flattens attrs into event fields. Group members get dotted keys
// ("stomp.destination"); a group with an empty key is inlined.
func attrsToMap(attrs []slog.Attr) map[string]any {
	fields := map[string]any{}
	flattenAttrs(fields, "", attrs)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func flattenAttrs(fields map[string]any, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		value := attr.Value.Resolve()
		if value.Kind() == slog.KindGroup {
			flattenAttrs(fields, joinKey(prefix, attr.Key), value.Group())
			continue
		}
		if attr.Key == "" {
			continue
		}
		fields[joinKey(prefix, attr.Key)] = value.Any()
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}
