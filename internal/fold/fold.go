// Package fold provides the case-insensitive key form shared by every lookup
// index in the pipeline.
package fold

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key trims s and applies Unicode case folding, so "ÄBC", "äbc" and " Äbc "
// all produce the same key.
func Key(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Equal compares two strings by their folded keys.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
