package geofix

// Static lookup tables for country-name normalization. Keys are folded
// (see Fold); targets are canonical admin names from the polygon dataset, or
// "" meaning "not a country, discard". Extend coverage here, not in control
// flow.

// countryAliases maps folded free-text phrases to canonical region names.
var countryAliases = map[string]string{
	"usa": "United States of America", "u s a": "United States of America",
	"united states": "United States of America",
	"uk":            "United Kingdom", "great britain": "United Kingdom",
	"russia":      "Russia",
	"south korea": "Republic of Korea", "north korea": "Democratic People's Republic of Korea",
	"ivory coast": "Côte d’Ivoire", "cote d ivoire": "Côte d’Ivoire", "ivory": "Côte d’Ivoire",
	"dr congo": "Democratic Republic of the Congo", "democratic republic of congo": "Democratic Republic of the Congo",
	"congo":     "Republic of the Congo",
	"swaziland": "Eswatini", "burma": "Myanmar", "cape verde": "Cabo Verde",
	"laos": "Lao People's Democratic Republic", "syria": "Syrian Arab Republic",
	"czech republic": "Czechia", "moldova": "Republic of Moldova",
	"macedonia":      "North Macedonia",
	"bolivia":        "Bolivia (Plurinational State of)", "tanzania": "United Republic of Tanzania",
	"belgian": "Belgium", "french": "France",

	// UK constituents and dependencies
	"england": "United Kingdom", "scotland": "United Kingdom", "wales": "United Kingdom",
	"northern ireland": "United Kingdom", "cheshire": "United Kingdom",
	"isle of man": "Isle of Man",

	// US states, territories and common typos
	"alaska": "United States of America", "akalaska": "United States of America",
	"alakska":    "United States of America",
	"california": "United States of America", "calilfornia": "United States of America",
	"deleware": "United States of America", "illinois": "United States of America",
	"wyoming": "United States of America", "michigan": "United States of America",
	"wisconson": "United States of America", "norfork": "United States of America",
	"washingon": "United States of America", "texas": "United States of America",
	"puerto rico": "United States of America", "guam": "United States of America",
	"american samoa": "United States of America",

	// Canada
	"quebec": "Canada", "nwt": "Canada", "ellesmere": "Canada",

	// Australia
	"tasmania": "Australia", "new south wales": "Australia", "victoria": "Australia",

	// Spain / Portugal
	"catalonia": "Spain", "canary islands": "Spain", "spain moron": "Spain",
	"azores": "Portugal", "madeira": "Portugal", "terceira": "Portugal",

	// Mediterranean islands
	"sicily": "Italy", "sardinia": "Italy", "corsica": "France",

	// China / Indonesia
	"hainan": "China", "yunan": "China",
	"bali": "Indonesia", "java": "Indonesia", "sumatra": "Indonesia",
	"sulawesi": "Indonesia", "lombok": "Indonesia",

	// Caribbean / Pacific
	"trinidad": "Trinidad and Tobago",
	"jamacia":  "Jamaica",
	"cook":     "Cook Islands",
	"guadaloupe": "France",
	"hong kong":  "Hong Kong S.A.R.", "hong": "Hong Kong S.A.R.",
	"papua":      "Papua New Guinea",
	"micronesia": "Federated States of Micronesia",
	"marshall":   "Marshall Islands", "marshall islands": "Marshall Islands",

	// single-word typos
	"morroco":  "Morocco",
	"hrvatska": "Croatia",

	// carrier names embedded in the country field
	"brazil loide": "Brazil", "brazil amazonaves": "Brazil", "india pawan": "India",

	// historical states mapped to successor states
	"ussr": "Russia", "ussraeroflot": "Russia",
	"zaire":      "Democratic Republic of the Congo",
	"tanganyika": "United Republic of Tanzania",
	"chechnya":   "Russia",
	"uarmisrair": "Egypt",
	"yugoslavia": "Serbia", "czechoslovakia": "Czechia",

	// not countries at all
	"unknown": "", "at sea": "",
}

// noiseTokens are folded tokens that look like countries but are not
// (directions, adjectives, admin qualifiers). normalizeCountry discards them.
var noiseTokens = map[string]bool{
	"near": true, "off": true, "new": true, "democratic": true, "united": true,
	"south": true, "north": true, "west": true, "east": true,
	"great": true, "british": true, "french": true, "persian": true,
	"isle": true, "mount": true, "prov": true, "province": true,
	"county": true, "state": true, "region": true,
}

// directionalTokens are single-word declared values that need context from
// the record's auxiliary text before they mean anything.
var directionalTokens = map[string]bool{
	"south": true, "north": true, "east": true, "west": true,
	"near": true, "off": true, "new": true, "isle": true,
	"french": true, "united": true, "great": true, "democratic": true,
	"ivory": true, "military": true, "camilitary": true,
}

// operatorHint pairs an operator substring with the country it implies.
// Tokens with surrounding spaces only match as whole words (the haystack is
// padded before scanning). Order matters: first hit wins.
type operatorHint struct {
	token   string
	country string
}

var operatorHints = []operatorHint{
	{"aeroflot", "Russia"},
	{"air france", "France"},
	{"royal air force", "United Kingdom"},
	{" raf ", "United Kingdom"},
	{"usaf", "United States of America"},
	{"u s air force", "United States of America"},
	{"united airlines", "United States of America"},
	{"egyptair", "Egypt"},
	{"air india", "India"},
	{"air canada", "Canada"},
	{"aerolineas argentinas", "Argentina"},
	{"emirates", "United Arab Emirates"},
	{"etihad", "United Arab Emirates"},
	{" uae ", "United Arab Emirates"},
}
