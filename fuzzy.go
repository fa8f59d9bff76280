package geofix

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// fuzzyCutoff is the minimum normalized edit-distance similarity for a
// free-text string to be accepted as a canonical region name. Empirically
// high: country names are short, and a loose cutoff would conflate
// "Australia" with "Austria"-adjacent typos in the wrong direction.
const fuzzyCutoff = 0.84

// Matcher maps free text to the closest canonical region name.
// Built once from the polygon dataset's name list, immutable afterwards.
type Matcher struct {
	names  []string // canonical names, dataset order
	folded []string // folded forms, same indexes
}

// NewMatcher builds a Matcher over the given canonical names.
func NewMatcher(names []string) *Matcher {
	m := &Matcher{
		names:  make([]string, 0, len(names)),
		folded: make([]string, 0, len(names)),
	}
	for _, name := range names {
		f := Fold(name)
		if f == "" {
			continue
		}
		m.names = append(m.names, name)
		m.folded = append(m.folded, f)
	}
	return m
}

// Names returns the canonical name list in dataset order.
func (m *Matcher) Names() []string {
	return append([]string(nil), m.names...)
}

// similarity is a normalized edit-distance score in [0, 1]: 1 is an exact
// match, 0 shares nothing.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	max := len([]rune(a))
	if l := len([]rune(b)); l > max {
		max = l
	}
	return 1 - float64(dist)/float64(max)
}

// FuzzyToCanonical returns the canonical region name whose folded form is
// most similar to the folded input, or "" when no candidate clears the
// cutoff. Ties on the edit-distance score break on Jaro-Winkler similarity,
// then on the lexicographically smaller name, so results are stable across
// runs regardless of dataset order.
func (m *Matcher) FuzzyToCanonical(text string) string {
	folded := Fold(text)
	if folded == "" || len(m.folded) == 0 {
		return ""
	}

	best := -1
	bestScore := 0.0
	bestJW := 0.0
	for i, cand := range m.folded {
		score := similarity(folded, cand)
		if score < fuzzyCutoff {
			continue
		}
		jw := smetrics.JaroWinkler(folded, cand, 0.7, 4)
		switch {
		case best < 0 || score > bestScore:
		case score == bestScore && jw > bestJW:
		case score == bestScore && jw == bestJW && m.names[i] < m.names[best]:
		default:
			continue
		}
		best, bestScore, bestJW = i, score, jw
	}
	if best < 0 {
		return ""
	}
	return m.names[best]
}

// longestContainedName returns the canonical name whose folded form appears
// as the longest contiguous substring of the folded input, or "".
func (m *Matcher) longestContainedName(text string) string {
	folded := Fold(text)
	longest, name := 0, ""
	for i, cand := range m.folded {
		if len(cand) > longest && strings.Contains(folded, cand) {
			longest, name = len(cand), m.names[i]
		}
	}
	return name
}

// GuessFromText scans free text for a canonical region name: phrases of
// three, then two, then one token, left to right, skipping noise tokens and
// phrases shorter than three characters. The first phrase that fuzzy-matches
// wins.
func (m *Matcher) GuessFromText(text string) string {
	tokens := foldedTokens(text)
	for _, n := range []int{3, 2, 1} {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if len(phrase) < 3 || noiseTokens[phrase] {
				continue
			}
			if cand := m.FuzzyToCanonical(phrase); cand != "" {
				return cand
			}
		}
	}
	return ""
}
