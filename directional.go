package geofix

import "strings"

// containsAny reports whether any needle occurs in the haystack.
func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// ResolveDirectional special-cases declared values that are directions or
// fragments ("South", "New", "Isle", ...) by inspecting the record's
// auxiliary text for a disambiguating keyword. Keyword checks run in a fixed
// order, then the operator hint table, then generic phrase guessing.
// Returns "" when nothing in the record disambiguates the token.
func (n *Normalizer) ResolveDirectional(rec *Record) string {
	raw := Fold(rec.Country)

	var joined strings.Builder
	for _, f := range rec.auxFields() {
		joined.WriteString(Fold(f))
		joined.WriteByte(' ')
	}
	aux := " " + joined.String()

	switch raw {
	case "ivory":
		return "Côte d’Ivoire"
	case "french":
		if strings.Contains(aux, "polynesia") {
			return "French Polynesia"
		}
		if strings.Contains(aux, "guiana") {
			return "French Guiana"
		}
		return "France"
	case "isle":
		if strings.Contains(Fold(rec.Location), "isle of man") || strings.Contains(aux, " isle of man") {
			return "Isle of Man"
		}
		if strings.Contains(aux, "wight") {
			return "United Kingdom"
		}
		if strings.Contains(aux, "jersey") {
			return "Jersey"
		}
		if strings.Contains(aux, "guernsey") {
			return "Guernsey"
		}
		return "United Kingdom"
	case "great":
		return "United Kingdom"
	case "off", "near":
		if ph := ExtractAfterToken(rec.Location, raw); ph != "" {
			if cand := n.matcher.GuessFromText(ph); cand != "" {
				return cand
			}
			if cand := n.matcher.FuzzyToCanonical(ph); cand != "" {
				return cand
			}
		}
	case "south":
		if strings.Contains(aux, "africa") {
			return "South Africa"
		}
		if strings.Contains(aux, "sudan") {
			return "South Sudan"
		}
		if strings.Contains(aux, "korea") {
			return "Republic of Korea"
		}
	case "north":
		if strings.Contains(aux, "korea") {
			return "Democratic People's Republic of Korea"
		}
		if strings.Contains(aux, "macedonia") {
			return "North Macedonia"
		}
	case "east":
		if strings.Contains(aux, "timor") {
			return "Timor-Leste"
		}
		if strings.Contains(aux, "sahara") {
			return "Western Sahara"
		}
	case "west":
		if strings.Contains(aux, "sahara") {
			return "Western Sahara"
		}
	case "new":
		if strings.Contains(aux, "zealand") {
			return "New Zealand"
		}
		if strings.Contains(aux, "guinea") {
			return "Papua New Guinea"
		}
		if strings.Contains(aux, "caledonia") {
			return "New Caledonia"
		}
	case "democratic":
		if containsAny(aux, "congo", "zaire") {
			return "Democratic Republic of the Congo"
		}
	case "united":
		if containsAny(aux, "arab emirates", " uae ", "dubai", "abu dhabi") {
			return "United Arab Emirates"
		}
		if containsAny(aux, "kingdom", "britain", " raf ") {
			return "United Kingdom"
		}
		if containsAny(aux, "states", " u s ", " usaf ") {
			return "United States of America"
		}
	}

	// Catch-all military marker: the country is whoever operated the flight.
	if raw == "military" || raw == "camilitary" || containsAny(aux, " military", " air force") {
		if cand := n.matcher.GuessFromText(aux); cand != "" {
			return cand
		}
		if cand := n.CountryFromOperator(rec.Operator); cand != "" {
			return cand
		}
	}

	if cand := n.CountryFromOperator(rec.Operator); cand != "" {
		return cand
	}
	return n.matcher.GuessFromText(aux)
}
