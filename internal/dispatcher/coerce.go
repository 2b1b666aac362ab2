package dispatcher

import (
	"encoding/json"
	"strconv"
	"strings"
)

// coerceStringList implements spec.md §4.H's uniform input coercion for
// paths/deps/tags: a JSON-looking string is parsed as a JSON array; on
// failure it is left as-is for the handler to reject or wrap as a
// one-element list. A bare string (not JSON-array-looking) is treated as a
// one-element list — spec.md §4.C calls this out explicitly for `reserve`'s
// `paths`, and it generalizes cleanly to every other list-shaped input.
func coerceStringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		trimmed := strings.TrimSpace(val)
		if strings.HasPrefix(trimmed, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
				return arr
			}
		}
		if trimmed == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}

// coerceTTLSeconds implements spec.md §4.H's ttl coercion: a digit-only
// string becomes an integer; an `<n>[hms]` suffix becomes seconds; anything
// else is left to the caller (returns ok=false).
func coerceTTLSeconds(v any) (int, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return int(val), true
	case int:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		last := s[len(s)-1]
		var multiplier int
		switch last {
		case 'h':
			multiplier = 3600
		case 'm':
			multiplier = 60
		case 's':
			multiplier = 1
		default:
			return 0, false
		}
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, false
		}
		return n * multiplier, true
	default:
		return 0, false
	}
}

func stringArg(args Args, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func boolArg(args Args, key string, def bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func intArg(args Args, key string, def int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return parsed
			}
		}
	}
	return def
}

func clamp(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
