package util

import (
	"slices"
	"strings"
)

// =============================================================================
// Host Validation Helpers
// =============================================================================

// IsInternalHost checks if a hostname is internal/private and should not be accessed.
// Relay hints come from untrusted content, so this guards against SSRF.
func IsInternalHost(host string) bool {
	host = strings.ToLower(host)
	return strings.HasSuffix(host, ".local") ||
		strings.HasSuffix(host, ".internal") ||
		strings.HasSuffix(host, ".onion") ||
		strings.HasSuffix(host, ".localhost")
}

// IsLoopbackHost checks if a hostname resolves to localhost.
func IsLoopbackHost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" ||
		host == "::1" ||
		host == "[::1]" ||
		strings.HasPrefix(host, "127.")
}

// =============================================================================
// Slice Helpers
// =============================================================================

// LimitSlice returns at most n elements from the slice.
// Returns the original slice if n <= 0 or n >= len(slice).
func LimitSlice[T any](slice []T, n int) []T {
	if n <= 0 || n >= len(slice) {
		return slice
	}
	return slice[:n]
}

// MergeUnique concatenates the slices, keeping the first occurrence of each
// value and dropping empty strings.
func MergeUnique(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// SortedCopy returns a sorted copy, leaving the input untouched. Used to
// build order-independent keys.
func SortedCopy(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	sorted := slices.Clone(list)
	slices.Sort(sorted)
	return sorted
}

// =============================================================================
// String Utilities
// =============================================================================

// FirstRunes returns the first n runes of s (Unicode-aware), without any
// suffix.
func FirstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
