// Package title implements game-title canonicalisation and the
// cross-platform ownership matcher.
//
// Storefronts spell the same game differently: edition qualifiers
// ("Deluxe Edition"), platform tags ("PC"), regional suffixes, trailing
// annotations. Normalize strips that noise so two listings of the same
// game compare equal; Match turns the comparison into a binary
// owned/not-owned decision with a fixed precision-first threshold.
package title

import (
	"regexp"
	"strings"
)

// Noise vocabulary, matched as whole words so a token that is a real part
// of a title ("Golden Axe") survives. A title that consists only of noise
// ("Gold") normalizes to the empty string; the exact-match tier still
// covers it.
var noisePatterns = []*regexp.Regexp{
	// Edition/version qualifiers that vary between regions and platforms.
	regexp.MustCompile(`\b(game of the year|goty|definitive|enhanced|special|deluxe|premium|gold|ultimate|complete|collector's?|director's?|extended|remastered|remake|hd|4k)\s*(edition|version)?\b`),
	regexp.MustCompile(`\b(digital|standard)\s*(edition|version)?\b`),
	regexp.MustCompile(`\b(season pass|dlc|expansion)\b`),
	// Distribution channels and storefront names.
	regexp.MustCompile(`\b(steam|epic|gog|origin|uplay|microsoft store)\s*(edition|version)?\b`),
	regexp.MustCompile(`\b(pc|windows|mac|linux)\s*(edition|version)?\b`),
	regexp.MustCompile(`\b(early access|beta|alpha)\b`),
}

var (
	bracketed    = regexp.MustCompile(`[(\[][^)\]]*[)\]]`)
	trailingSep  = regexp.MustCompile(`\s*[:-]\s*$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize canonicalises a raw title for comparison. Lower-cases, strips
// the noise vocabulary as whole words, drops parenthesised/bracketed
// annotations and trailing separator punctuation, and collapses
// whitespace. Pure and idempotent; never fails. May return "" when the
// title is nothing but noise.
func Normalize(raw string) string {
	s := strings.ToLower(raw)

	for _, re := range noisePatterns {
		s = re.ReplaceAllString(s, " ")
	}
	s = bracketed.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = trailingSep.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}
