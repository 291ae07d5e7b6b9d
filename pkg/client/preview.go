package client

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Limits applied to response bodies before they are logged.
const (
	previewArrayItems = 2
	previewStringLen  = 120
	previewMaxDepth   = 4
)

// previewBody renders raw for a log line. JSON bodies keep their structure
// with long arrays and strings trimmed; anything else is cut at
// maxErrorBody bytes on a rune boundary.
func previewBody(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return truncateRunes(string(raw), maxErrorBody)
	}
	out, err := json.Marshal(trimValue(v, 0))
	if err != nil {
		return truncateRunes(string(raw), maxErrorBody)
	}
	return string(out)
}

func trimValue(v any, depth int) any {
	if depth >= previewMaxDepth {
		switch v.(type) {
		case []any, map[string]any:
			return "[max depth]"
		}
	}

	switch val := v.(type) {
	case []any:
		n := min(len(val), previewArrayItems)
		out := make([]any, 0, n+1)
		for _, item := range val[:n] {
			out = append(out, trimValue(item, depth+1))
		}
		if rest := len(val) - n; rest > 0 {
			out = append(out, fmt.Sprintf("... (%d more items)", rest))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = trimValue(item, depth+1)
		}
		return out
	case string:
		return truncateRunes(val, previewStringLen)
	default:
		return v
	}
}

// truncateRunes keeps at most n runes of s.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + fmt.Sprintf("... (%d more chars)", len(runes)-n)
}
