package source

import (
	"strings"

	"github.com/agext/levenshtein"
)

// digits strips every non-digit character from s.
func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isDigits reports whether s is non-empty and consists only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// phoneSuffixMatch compares the last ten digits of two phone numbers.
// Formatting and country prefixes are ignored.
func phoneSuffixMatch(a, b string) bool {
	da, db := digits(a), digits(b)
	if da == "" || db == "" {
		return false
	}
	return lastN(da, 10) == lastN(db, 10)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// nameMatch reports whether either normalized name contains the other.
// Registry names often carry credentials or middle initials the roster
// omits, so containment is the comparison, not equality.
func nameMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// similarity is a normalized edit-distance ratio in [0, 1].
func similarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil)
}

// matchQuality grades a geocoder response against the input address tuple.
// The tiers and their confidences are fixed policy:
//
//	exact   95  all three components equal
//	close   85  city similar (>0.8), state and zip equal
//	partial 60  city similar with zip differing, or weakly similar (>0.6)
//	none    30  anything else
func matchQuality(inCity, inState, inZip, outCity, outState, outZip string) (string, float64) {
	inCity = strings.ToLower(strings.TrimSpace(inCity))
	inState = strings.ToLower(strings.TrimSpace(inState))
	inZip = strings.TrimSpace(inZip)

	outCity = strings.ToLower(strings.TrimSpace(outCity))
	outState = strings.ToLower(strings.TrimSpace(outState))
	outZip = strings.TrimSpace(outZip)

	if inCity == outCity && inState == outState && inZip == outZip {
		return "exact", 95
	}

	citySim := similarity(inCity, outCity)
	stateEq := inState == outState
	zipEq := inZip == outZip

	if citySim > 0.8 && stateEq {
		if zipEq {
			return "close", 85
		}
		return "partial", 60
	}
	if citySim > 0.6 && stateEq {
		return "partial", 60
	}
	return "none", 30
}
