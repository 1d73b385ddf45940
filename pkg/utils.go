package pkg

import "strings"

func Filter[T any](items []T, predicate func(T) bool) []T {
	filtered := []T{}
	for _, item := range items {
		if predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Fields splits a whitespace separated list, e.g. "id name address".
// Empty input yields an empty (non-nil) list.
func Fields(list string) []string {
	fields := strings.Fields(list)
	if fields == nil {
		return []string{}
	}
	return fields
}
