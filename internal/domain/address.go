package domain

import "strings"

// NormalizeAddress returns the join key used between the coordinate store and
// trip membership. Two addresses are equal iff their trimmed forms are equal.
func NormalizeAddress(s string) string {
	return strings.TrimSpace(s)
}
