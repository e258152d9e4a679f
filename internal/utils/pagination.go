// Package utils provides small helpers shared by the HTTP and service
// layers. Nothing here knows about batches or passes.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("x", 5)  // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MergeUnique concatenates lists, trimming entries and dropping blanks and
// repeats. The first occurrence wins, so the order is stable.
func MergeUnique(lists ...[]string) []string {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for _, l := range lists {
		for _, s := range l {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
