package template

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Render substitutes {{name}} placeholders in text with values from data.
// Non-string values are JSON-encoded so rendered webhook payloads stay valid
// JSON. A placeholder with no matching key is an error.
func Render(text string, data map[string]any) (string, error) {
	var b strings.Builder
	rest := text

	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}

		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end += start

		name := strings.TrimSpace(rest[start+2 : end])
		value, ok := data[name]
		if !ok {
			return "", fmt.Errorf("template: unknown variable %q", name)
		}

		b.WriteString(rest[:start])
		b.WriteString(stringify(value))
		rest = rest[end+2:]
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
