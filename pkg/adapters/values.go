package adapters

import (
	"strconv"
	"strings"
)

// Text flattens a JSON scalar to its string form. Missing keys and nulls
// map to "", booleans to "1"/"0", numbers to their shortest representation.
func (r Result) Text(key string) string {
	if r == nil {
		return ""
	}
	return Flatten(r[key])
}

// First returns the first non-empty value among keys.
func (r Result) First(keys ...string) string {
	for _, k := range keys {
		if v := r.Text(k); v != "" {
			return v
		}
	}
	return ""
}

// Bool maps a boolean-ish value to "1", "0" or "" when absent or unknown.
func (r Result) Bool(key string) string {
	if r == nil {
		return ""
	}
	switch v := r[key].(type) {
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float64:
		if v != 0 {
			return "1"
		}
		return "0"
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return "1"
		case "false", "0", "no":
			return "0"
		}
	}
	return ""
}

// Flatten converts a decoded JSON scalar to a string.
func Flatten(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
