package wire

import (
	"encoding/json"
	"strings"
)

// parseObject attempts to decode a structured line into a generic object.
// Strict JSON is tried first; on failure the line is re-tried with single
// quotes normalized to JSON string delimiters. The second pass tolerates
// producers that serialize Python dict literals straight onto the stream
// (the upstream service does exactly this for its progress frames).
func parseObject(line string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err == nil {
		return obj, true
	}
	if err := json.Unmarshal([]byte(normalizeQuotes(line)), &obj); err == nil {
		return obj, true
	}
	return nil, false
}

// normalizeQuotes rewrites single-quoted string delimiters as double quotes
// so a Python-style dict literal parses as JSON.
//
// Rules:
//   - single quotes delimiting strings become double quotes
//   - literal double quotes inside a single-quoted string are escaped
//   - an escaped single quote (\') becomes a plain apostrophe, since JSON
//     has no such escape
//   - content inside genuine double-quoted strings passes through untouched,
//     preserving its escaped double quotes
func normalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inDouble := false
	inSingle := false
	escape := false

	for _, r := range s {
		switch {
		case escape:
			escape = false
			if inSingle && r == '\'' {
				b.WriteRune('\'')
				continue
			}
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\\':
			escape = true
		case inDouble:
			if r == '"' {
				inDouble = false
			}
			b.WriteRune(r)
		case inSingle:
			switch r {
			case '\'':
				inSingle = false
				b.WriteRune('"')
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		case r == '"':
			inDouble = true
			b.WriteRune(r)
		case r == '\'':
			inSingle = true
			b.WriteRune('"')
		default:
			b.WriteRune(r)
		}
	}

	// A dangling backslash at end of input has nothing to escape; emit it
	// so the JSON parser rejects the line instead of silently altering it.
	if escape {
		b.WriteRune('\\')
	}

	return b.String()
}
