package utils

import (
	"html"
	"strings"
)

// MaxSanitizeDepth bounds how deep Sanitize descends into decoded JSON.
const MaxSanitizeDepth = 8

var markupEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"/", "&#x2F;",
)

// EscapeMarkup neutralizes characters that could open markup. Apostrophes
// are left alone.
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

// DecodeEntities reverses HTML entity encoding, including what EscapeMarkup produced.
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// Sanitize walks a value produced by encoding/json and escapes every string
// except those stored under an exempt key. Values nested deeper than
// MaxSanitizeDepth are dropped.
func Sanitize(v any, exempt map[string]bool) any {
	return sanitize(v, exempt, 0)
}

func sanitize(v any, exempt map[string]bool, depth int) any {
	if depth > MaxSanitizeDepth {
		return nil
	}
	switch t := v.(type) {
	case string:
		return EscapeMarkup(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = sanitize(item, exempt, depth+1)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			if exempt[k] {
				out[k] = item
				continue
			}
			out[k] = sanitize(item, exempt, depth+1)
		}
		return out
	default:
		return v
	}
}
