package geofix

import "testing"

func TestResolveDirectional(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"ivory unconditional", Record{Country: "Ivory"}, "Côte d’Ivoire"},

		{"french polynesia", Record{Country: "French", Summary: "Ditched off Tahiti, French Polynesia"}, "French Polynesia"},
		{"french guiana", Record{Country: "French", Location: "Kourou, French Guiana"}, "French Guiana"},
		{"french default", Record{Country: "French", Location: "Lyon"}, "France"},

		{"isle of man", Record{Country: "Isle", Location: "Douglas, Isle of Man"}, "Isle of Man"},
		{"isle of wight", Record{Country: "Isle", Summary: "Forced landing on the Isle of Wight"}, "United Kingdom"},
		{"isle jersey", Record{Country: "Isle", Location: "St Helier, Jersey"}, "Jersey"},
		{"isle guernsey", Record{Country: "Isle", Location: "Guernsey"}, "Guernsey"},
		{"isle default", Record{Country: "Isle", Location: "Unnamed islet"}, "United Kingdom"},

		{"great britain", Record{Country: "Great"}, "United Kingdom"},

		{"near extracts place", Record{Country: "Near", Location: "Near Bordeaux, France"}, "France"},
		{"off extracts before coast", Record{Country: "Off", Location: "Off the Serbian coast"}, "Serbia"},

		{"south africa", Record{Country: "South", Summary: "Crashed shortly after takeoff in South Africa"}, "South Africa"},
		{"south sudan", Record{Country: "South", Location: "Juba, South Sudan"}, "South Sudan"},
		{"south korea", Record{Country: "South", Route: "Seoul, South Korea - Jeju"}, "Republic of Korea"},
		// Keyword checks run in a fixed order: africa beats sudan when the
		// text mentions both.
		{"south keyword order", Record{Country: "South", Summary: "Cargo flight from Sudan to South Africa"}, "South Africa"},

		{"north korea", Record{Country: "North", Summary: "Shot down over North Korea"}, "Democratic People's Republic of Korea"},
		{"north macedonia", Record{Country: "North", Location: "Skopje, North Macedonia"}, "North Macedonia"},

		{"east timor", Record{Country: "East", Location: "Dili, East Timor"}, "Timor-Leste"},
		{"east sahara", Record{Country: "East", Summary: "Eastern Sahara desert strip"}, "Western Sahara"},
		{"west sahara", Record{Country: "West", Location: "Western Sahara"}, "Western Sahara"},

		{"new zealand", Record{Country: "New", Location: "Auckland, New Zealand"}, "New Zealand"},
		{"new guinea", Record{Country: "New", Summary: "Highlands of New Guinea"}, "Papua New Guinea"},
		{"new caledonia", Record{Country: "New", Location: "Nouméa, New Caledonia"}, "New Caledonia"},

		{"democratic congo", Record{Country: "Democratic", Location: "Kinshasa, Congo"}, "Democratic Republic of the Congo"},
		{"democratic zaire", Record{Country: "Democratic", Summary: "Zaire, 1976"}, "Democratic Republic of the Congo"},

		{"united arab emirates", Record{Country: "United", Location: "Dubai"}, "United Arab Emirates"},
		{"united kingdom", Record{Country: "United", Summary: "A United Kingdom charter"}, "United Kingdom"},
		{"united kingdom raf", Record{Country: "United", Operator: "RAF"}, "United Kingdom"},
		{"united states", Record{Country: "United", Summary: "Domestic flight between states"}, "United States of America"},

		{"military phrase guess", Record{Country: "Military", Operator: "Russian Air Force"}, "Russia"},
		{"camilitary operator hint", Record{Country: "CAMilitary", Operator: "Royal Air Force"}, "United Kingdom"},

		{"no disambiguation", Record{Country: "South"}, ""},
		{"north alone", Record{Country: "North", Location: "High Arctic"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.ResolveDirectional(&tt.rec); got != tt.want {
				t.Errorf("ResolveDirectional(%+v) = %q, want %q", tt.rec, got, tt.want)
			}
		})
	}
}

// Keyword resolution outranks the operator-hint table, and operator hints
// outrank generic phrase guessing.
func TestResolveDirectionalPriority(t *testing.T) {
	n := testNormalizer(t)

	// Aux keyword wins over a known operator.
	rec := Record{Country: "South", Route: "Busan, South Korea", Operator: "Aeroflot"}
	if got := n.ResolveDirectional(&rec); got != "Republic of Korea" {
		t.Errorf("keyword vs operator: got %q, want Republic of Korea", got)
	}

	// No keyword hit: the operator hint answers before the aux text is
	// phrase-guessed.
	rec = Record{Country: "South", Summary: "Departed from Serbia", Operator: "Aeroflot"}
	if got := n.ResolveDirectional(&rec); got != "Russia" {
		t.Errorf("operator vs phrase guess: got %q, want Russia", got)
	}
}
