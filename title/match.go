package title

import (
	"strings"

	"github.com/dupewatch/dupewatch/library"
)

// Confidence tiers and the acceptance threshold. These three constants are
// the entire precision/recall contract of the matcher: only exact or
// noise-stripped-exact matches clear the bar, partial and edit-distance
// matches never do. A false "you already own this" is worse than a missed
// match.
const (
	ConfidenceExact      = 1.0
	ConfidenceNormalized = 0.9
	Threshold            = 0.85
)

// Confidence scores two raw titles. Strategies are ordered; the first one
// that yields a nonzero score wins.
func Confidence(a, b string) float64 {
	if strings.EqualFold(a, b) {
		return ConfidenceExact
	}
	na, nb := Normalize(a), Normalize(b)
	if na != "" && na == nb {
		return ConfidenceNormalized
	}
	return 0.0
}

// Match returns every library entry whose confidence against candidate
// clears Threshold, in input order, without duplicates. A candidate that
// normalizes to the empty string matches nothing unless an entry equals it
// exactly: two garbage titles must not confirm each other.
func Match(candidate string, entries []library.Entry) []library.Entry {
	var out []library.Entry
	seen := make(map[library.Entry]struct{}, len(entries))

	for _, e := range entries {
		if _, dup := seen[e]; dup {
			continue
		}
		if Confidence(candidate, e.Title) >= Threshold {
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// ExcludePlatform filters out entries on the given platform. Owning a
// title on the storefront currently being browsed is not warn-worthy;
// only ownership elsewhere is.
func ExcludePlatform(entries []library.Entry, platform string) []library.Entry {
	var out []library.Entry
	for _, e := range entries {
		if !strings.EqualFold(e.Platform, platform) {
			out = append(out, e)
		}
	}
	return out
}

// MalformedEntry reports whether a library entry's title normalizes to
// nothing, e.g. an empty or garbage row from a bad import. Such entries can
// still match exactly but never through the normalized tier.
func MalformedEntry(e library.Entry) bool {
	return Normalize(e.Title) == ""
}

// Platforms returns the distinct platforms of entries, first-seen order.
func Platforms(entries []library.Entry) []string {
	var out []string
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		p := strings.ToLower(e.Platform)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
