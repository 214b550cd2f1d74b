// Package similarity scores how alike two place names are.
//
// Ratio is the Ratcliff-Obershelp "gestalt" ratio 2*M/T, where M is the
// number of characters in the matching blocks found by recursively taking
// the longest common substring, and T the total length of both inputs. It is
// computed with difflib's SequenceMatcher over runes, after lower-casing.
//
// The ratio is deterministic but not symmetric in general: the longest-block
// search breaks ties by position in the first argument, so Ratio(a, b) and
// Ratio(b, a) can differ slightly when several equally long blocks exist.
// Callers should always pass the query first and the directory name second.
package similarity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns a similarity in [0, 1]. Identical strings score 1, and two
// empty strings also score 1.
func Ratio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}

	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

// runes splits s into one-element strings so the matcher compares
// characters rather than lines.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
