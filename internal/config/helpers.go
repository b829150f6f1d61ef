package config

import (
	"strings"

	"github.com/spf13/cast"
)

// IsUIFieldTrue reports whether a checkbox-style field holds a true value.
// The tagging UI delivers these as either booleans or the string "true".
func IsUIFieldTrue(field any) bool {
	switch v := field.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// IsFalsyToken reports whether a manually supplied consent value is one of
// the recognized falsy tokens: 0, "0", false, "false".
func IsFalsyToken(value any) bool {
	switch v := value.(type) {
	case bool:
		return !v
	case string:
		return v == "0" || v == "false"
	case int, int32, int64, float32, float64:
		return cast.ToFloat64(v) == 0
	default:
		return false
	}
}

// ItemizeCommaSeparated splits a comma-separated setting into trimmed,
// non-empty items.
func ItemizeCommaSeparated(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

// IsValidValue reports whether a dynamically typed field counts as present:
// non-nil and not the empty string. Zero numbers are valid.
func IsValidValue(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return s != ""
	}
	return true
}
