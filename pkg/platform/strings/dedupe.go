// Package strings holds helpers for list-valued inputs such as environment
// variables and query parameters.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value into trimmed, unique, non-empty
// entries in first-seen order. A blank value yields nil.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(value, ","))
}

// DedupeAndTrim removes duplicates and blank strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  k1:9092 ", "k2:9092", "k1:9092", "", "  "})
//	// Returns: []string{"k1:9092", "k2:9092"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}
