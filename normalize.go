package geofix

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	nonLetterRe    = regexp.MustCompile(`[^a-z]+`)
	leadingNearRe  = regexp.MustCompile(`(?i)^\s*(near|off)\s+`)
	distanceTailRe = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(nm|km|mi|miles)\b.*$`)
	parentheticRe  = regexp.MustCompile(`\(.*?\)`)
	controlWsRe    = regexp.MustCompile(`[\r\n\t]+`)
	multiSpaceRe   = regexp.MustCompile(`\s{2,}`)
	mountAbbrevRe  = regexp.MustCompile(`\bMt\.\s*`)
)

// Fold reduces a string to a comparison form: diacritics transliterated away,
// lowercased, every non-letter run collapsed to a single space. Folded forms
// are the universal key for alias lookup, canonical-name matching and
// region-name comparison.
func Fold(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	s = nonLetterRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// foldedTokens splits a folded string into its words.
func foldedTokens(s string) []string {
	return strings.Fields(Fold(s))
}

// CleanLocation prepares a free-text location for geocoding: drops leading
// "near"/"off", distance-marker tails ("220 nm W of ..."), parenthesized
// spans, expands "Mt." and collapses whitespace.
func CleanLocation(loc string) string {
	s := strings.TrimSpace(loc)
	s = leadingNearRe.ReplaceAllString(s, "")
	s = distanceTailRe.ReplaceAllString(s, "")
	s = parentheticRe.ReplaceAllString(s, "")
	s = mountAbbrevRe.ReplaceAllString(s, "Mount ")
	s = controlWsRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " -,")
}

// BuildQuery joins a place and a country into a single geocode query,
// dropping empty parts and case-insensitive duplicates ("Paris, France" not
// "France, France").
func BuildQuery(place, country string) string {
	seen := make(map[string]bool, 2)
	var out []string
	for _, p := range []string{strings.TrimSpace(place), strings.TrimSpace(country)} {
		k := strings.ToLower(p)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// phraseStops end the phrase captured after a "near"/"off" token; anything
// from the stop word on is open water, not a region name.
var phraseStops = []string{" coast", " sea", " ocean", " gulf", " bay", " strait", " channel"}

// ExtractAfterToken returns the folded phrase following the given token in
// text, cut at the first water stop word: token "near" on "near Bordeaux,
// France" yields "bordeaux france", token "off" on "off the Irish coast"
// yields "the irish". Returns "" when the token is absent.
func ExtractAfterToken(text, token string) string {
	s := " " + Fold(text) + " "
	i := strings.Index(s, " "+token+" ")
	if i < 0 {
		return ""
	}
	phrase := s[i+len(token)+2:]
	cut := len(phrase)
	for _, stop := range phraseStops {
		if j := strings.Index(phrase, stop); j >= 0 && j < cut {
			cut = j
		}
	}
	return strings.TrimSpace(phrase[:cut])
}

// Normalizer resolves free-text country declarations to canonical region
// names. It never returns an error: absence of a match degrades to "" or to
// the input passed through.
type Normalizer struct {
	matcher *Matcher
}

// NewNormalizer returns a Normalizer that validates against the matcher's
// canonical name set.
func NewNormalizer(m *Matcher) *Normalizer {
	return &Normalizer{matcher: m}
}

// NormalizeCountry maps a raw declared-country string to a canonical region
// name. Resolution order: alias table (re-validated through fuzzy match),
// noise-token and short-code discard, fuzzy match, longest canonical
// substring, and finally the trimmed input passed through unchanged.
func (n *Normalizer) NormalizeCountry(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	base := Fold(raw)
	if base == "" {
		return ""
	}

	if strings.Contains(base, "ussr") {
		return n.validated("Russia")
	}

	if target, ok := countryAliases[base]; ok {
		if target == "" {
			return ""
		}
		return n.validated(target)
	}

	if noiseTokens[base] {
		return ""
	}
	// A short single token is heuristically a code or abbreviation, not a
	// country name worth trusting.
	if !strings.Contains(base, " ") && len(base) <= 4 {
		return ""
	}

	if cand := n.matcher.FuzzyToCanonical(base); cand != "" {
		return cand
	}

	if cand := n.matcher.longestContainedName(base); cand != "" {
		return cand
	}

	return strings.TrimSpace(raw)
}

// validated re-checks an alias target against the canonical set, keeping the
// literal target when the polygon dataset has no close name for it.
func (n *Normalizer) validated(target string) string {
	if canon := n.matcher.FuzzyToCanonical(target); canon != "" {
		return canon
	}
	return target
}

// militaryRe matches operator text that names an armed service rather than a
// carrier; such text usually embeds the country name directly.
var militaryRe = regexp.MustCompile(`air\s*force|army|military`)

// CountryFromOperator infers a country from an operator string via the
// ordered hint table, then from generic phrase guessing for military
// operators. Returns "" when nothing matches.
func (n *Normalizer) CountryFromOperator(op string) string {
	s := " " + Fold(op) + " "
	for _, h := range operatorHints {
		if strings.Contains(s, h.token) {
			if canon := n.matcher.FuzzyToCanonical(h.country); canon != "" {
				return canon
			}
			return h.country
		}
	}
	if militaryRe.MatchString(s) {
		if cand := n.matcher.GuessFromText(op); cand != "" {
			return cand
		}
	}
	return ""
}
