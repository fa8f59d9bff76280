package geofix

import (
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"france", "france", 1},
		{"", "france", 0},
		{"france", "", 0},
	}
	for _, tt := range tests {
		if got := similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	// One edit across seven runes stays above the cutoff; short strings
	// fall below it quickly.
	if got := similarity("frrance", "france"); got < fuzzyCutoff {
		t.Errorf("similarity(frrance, france) = %v, want >= %v", got, fuzzyCutoff)
	}
	if got := similarity("chad", "char"); got >= fuzzyCutoff {
		t.Errorf("similarity(chad, char) = %v, want < %v", got, fuzzyCutoff)
	}
}

func TestFuzzyToCanonical(t *testing.T) {
	m := testMatcher(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact", "Serbia", "Serbia"},
		{"case insensitive", "sErBiA", "Serbia"},
		{"diacritics folded", "Sérbia", "Serbia"},
		{"single typo", "Eswatinni", "Eswatini"},
		{"below cutoff", "Frxce", ""},
		{"unrelated", "Atlantis", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.FuzzyToCanonical(tt.in); got != tt.want {
				t.Errorf("FuzzyToCanonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFuzzyToCanonicalEmptySet(t *testing.T) {
	m := NewMatcher(nil)
	if got := m.FuzzyToCanonical("France"); got != "" {
		t.Errorf("FuzzyToCanonical on empty set = %q, want \"\"", got)
	}
}

// Tie-break rule: candidates with equal edit-distance similarity are ordered
// by Jaro-Winkler similarity, then by the lexicographically smaller name.
// The result must not depend on dataset order.
func TestFuzzyTieBreakDeterminism(t *testing.T) {
	forward := NewMatcher([]string{"Borderia", "Bordería"})
	reverse := NewMatcher([]string{"Bordería", "Borderia"})

	// Both candidates fold to "borderia": identical scores in every metric,
	// so the lexicographic rule decides.
	want := "Borderia"
	if got := forward.FuzzyToCanonical("borderia"); got != want {
		t.Errorf("forward order: got %q, want %q", got, want)
	}
	if got := reverse.FuzzyToCanonical("borderia"); got != want {
		t.Errorf("reverse order: got %q, want %q", got, want)
	}
}

func TestLongestContainedName(t *testing.T) {
	m := NewMatcher([]string{"Guinea", "Papua New Guinea", "Spain"})

	tests := []struct {
		in   string
		want string
	}{
		{"somewhere in papua new guinea maybe", "Papua New Guinea"},
		{"west guinea coast", "Guinea"},
		{"nothing here", ""},
	}
	for _, tt := range tests {
		if got := m.longestContainedName(tt.in); got != tt.want {
			t.Errorf("longestContainedName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGuessFromText(t *testing.T) {
	m := testMatcher(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single token", "departed from Serbia yesterday", "Serbia"},
		{"multi token name", "over Republic of Korea airspace", "Republic of Korea"},
		{"noise tokens skipped", "north west France", "France"},
		{"short phrases skipped", "at on in", ""},
		{"no match", "complete gibberish text", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.GuessFromText(tt.in); got != tt.want {
				t.Errorf("GuessFromText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
