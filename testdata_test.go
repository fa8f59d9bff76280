package geofix

import (
	"fmt"
	"strings"
	"testing"
)

// Test fixture regions. Squares in empty parts of the ocean would be ideal,
// but the reconciler matches on real canonical names, so the fixture borrows
// them: each named square stands in for the country's polygon.
//
// Layout (lon, lat):
//
//	France            [0,10]x[40,50]
//	Spain             [-10,0]x[35,40]
//	Serbia            [19,23]x[42,46]
//	Republic of Korea [126,130]x[34,39]
//	Russia            [30,60]x[50,70]
//	Eswatini          [30,33]x[-28,-25] with hole [31,32]x[-27,-26]
//	Borderia          [8,14]x[40,50]    (overlaps France east edge, tests determinism)
func testGeoJSON() string {
	square := func(name string, lonMin, latMin, lonMax, latMax float64) string {
		return fmt.Sprintf(`{"type":"Feature","properties":{"ADMIN":%q},"geometry":{"type":"Polygon","coordinates":[[[%g,%g],[%g,%g],[%g,%g],[%g,%g],[%g,%g]]]}}`,
			name,
			lonMin, latMin, lonMax, latMin, lonMax, latMax, lonMin, latMax, lonMin, latMin)
	}

	holed := `{"type":"Feature","properties":{"ADMIN":"Eswatini"},"geometry":{"type":"Polygon","coordinates":[` +
		`[[30,-28],[33,-28],[33,-25],[30,-25],[30,-28]],` +
		`[[31,-27],[32,-27],[32,-26],[31,-26],[31,-27]]]}}`

	features := []string{
		square("France", 0, 40, 10, 50),
		square("Spain", -10, 35, 0, 40),
		square("Serbia", 19, 42, 23, 46),
		square("Republic of Korea", 126, 34, 130, 39),
		square("Russia", 30, 50, 60, 70),
		holed,
		square("Borderia", 8, 40, 14, 50),
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

func testIndex(t *testing.T) *PolygonIndex {
	t.Helper()
	idx, err := NewPolygonIndex(strings.NewReader(testGeoJSON()))
	if err != nil {
		t.Fatalf("building test polygon index: %v", err)
	}
	return idx
}

func testMatcher(t *testing.T) *Matcher {
	t.Helper()
	return NewMatcher(testIndex(t).Names())
}

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	return NewNormalizer(testMatcher(t))
}
