package geofix

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// StatusCode is the terminal reconciliation outcome for a record.
type StatusCode string

const (
	// StatusUnresolved is the initial state before reconciliation runs.
	StatusUnresolved StatusCode = ""
	// StatusOK means the original point already lies inside the declared region.
	StatusOK StatusCode = "OK"
	// StatusGeocoded means an external lookup supplied the coordinates.
	StatusGeocoded StatusCode = "GEOCODED"
	// StatusCentroid means the declared region's representative point was used.
	StatusCentroid StatusCode = "CENTROID"
	// StatusAdjusted means the safety pass snapped the point back inside the
	// declared region.
	StatusAdjusted StatusCode = "ADJUSTED"
	// StatusGeocodedAdjusted is StatusAdjusted applied to a geocoded record.
	StatusGeocodedAdjusted StatusCode = "GEOCODED_ADJUSTED"
	// StatusNoCountryMatch means no canonical region could be resolved at all.
	StatusNoCountryMatch StatusCode = "NO_COUNTRY_MATCH"
)

// Coords is an optional latitude/longitude pair in WGS84 degrees.
// Absent coordinates are explicit; they are never represented as (0, 0).
type Coords struct {
	Lat     float64
	Lon     float64
	Present bool
}

// NewCoords returns a present Coords value.
func NewCoords(lat, lon float64) Coords {
	return Coords{Lat: lat, Lon: lon, Present: true}
}

// parseCoord coerces a raw CSV cell to a float, treating empty and
// non-numeric input as absent.
func parseCoord(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Record is one tabular row: a declared country/region, a free-text location,
// optional coordinates, and optional auxiliary text fields that improve
// fallback accuracy when present.
//
// Reconciliation mutates Coords, Status and Resolved in place; everything
// else is carried through unchanged.
type Record struct {
	ID       string
	Country  string // declared country/region, raw
	Location string
	Operator string
	Summary  string
	Route    string
	From     string
	To       string
	Airport  string

	Coords Coords

	// Resolved is the normalized declared country after reconciliation.
	Resolved string
	Status   StatusCode

	// extra preserves input columns the reconciler does not interpret,
	// keyed by header name, so output keeps the input schema.
	extra map[string]string
}

// auxFields returns the auxiliary free-text fields in the fixed priority
// order used by text-based country inference.
func (r *Record) auxFields() []string {
	return []string{r.Location, r.Operator, r.Summary, r.Route, r.From, r.To, r.Airport}
}

// RecordSet is an ordered record collection tied to its input CSV schema.
type RecordSet struct {
	Records []Record
	header  []string
}

// Input column names the reconciler interprets.
const (
	colCountry   = "Country/Region"
	colLocation  = "Location"
	colLatitude  = "Latitude"
	colLongitude = "Longitude"
	colOperator  = "Operator"
	colSummary   = "Summary"
	colRoute     = "Route"
	colFrom      = "From"
	colTo        = "To"
	colAirport   = "Airport"
	colStatus    = "Geo_Status"
	colResolved  = "Resolved_Country"
)

// legacyColumns are status columns from earlier runs, dropped on load so a
// re-run starts clean.
var legacyColumns = map[string]bool{
	"Geo_Status_1":      true,
	"Coord_FixedReason": true,
	"Geo_Issue":         true,
	colStatus:           true,
	colResolved:         true,
}

// LoadRecords reads a CSV record collection. A missing or empty input file is
// a precondition fault and returns an error; per-cell defects (non-numeric
// coordinates, blank fields) are coerced to absent values instead.
func LoadRecords(path string) (*RecordSet, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer fi.Close()

	cr := csv.NewReader(fi)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}
	if len(rows) < 1 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("input %s is empty", path)
	}

	raw := rows[0]
	header := make([]string, 0, len(raw))
	keep := make([]int, 0, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if legacyColumns[h] {
			continue
		}
		header = append(header, h)
		keep = append(keep, i)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	rs := &RecordSet{header: header}
	for n, src := range rows[1:] {
		row := make([]string, len(keep))
		for i, k := range keep {
			if k < len(src) {
				row[i] = src[k]
			}
		}

		rec := Record{
			ID:       strconv.Itoa(n),
			Country:  strings.TrimSpace(cell(row, colCountry)),
			Location: strings.TrimSpace(cell(row, colLocation)),
			Operator: cell(row, colOperator),
			Summary:  cell(row, colSummary),
			Route:    cell(row, colRoute),
			From:     cell(row, colFrom),
			To:       cell(row, colTo),
			Airport:  cell(row, colAirport),
		}
		lat, okLat := parseCoord(cell(row, colLatitude))
		lon, okLon := parseCoord(cell(row, colLongitude))
		if okLat && okLon {
			rec.Coords = NewCoords(lat, lon)
		}

		rec.extra = make(map[string]string)
		for i, h := range header {
			switch h {
			case colCountry, colLocation, colLatitude, colLongitude,
				colOperator, colSummary, colRoute, colFrom, colTo, colAirport:
			default:
				rec.extra[h] = row[i]
			}
		}
		rs.Records = append(rs.Records, rec)
	}
	return rs, nil
}

func formatCoord(v float64, present bool) string {
	if !present {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write stores the record collection at path with the input schema plus the
// status and resolved-country columns. The write is atomic (temp file then
// rename) and retried a bounded number of times; if the target stays
// unwritable, the run's results go to an alternately-named file instead of
// being lost. Returns the path actually written.
func (rs *RecordSet) Write(path string) (string, error) {
	return rs.write(path, 3, time.Second)
}

func (rs *RecordSet) write(path string, attempts int, wait time.Duration) (string, error) {
	data, err := rs.encode()
	if err != nil {
		return "", err
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = atomicWriteFile(path, data); lastErr == nil {
			return path, nil
		}
		time.Sleep(wait)
	}

	alt := strings.TrimSuffix(path, filepath.Ext(path)) +
		"__RUN_" + time.Now().Format("20060102_150405") + ".csv"
	if err := atomicWriteFile(alt, data); err != nil {
		return "", fmt.Errorf("writing output %s: %w", path, lastErr)
	}
	return alt, nil
}

func (rs *RecordSet) encode() ([]byte, error) {
	var sb strings.Builder
	cw := csv.NewWriter(&sb)

	out := append([]string{}, rs.header...)
	out = append(out, colResolved, colStatus)
	if err := cw.Write(out); err != nil {
		return nil, fmt.Errorf("encoding output header: %w", err)
	}

	for i := range rs.Records {
		rec := &rs.Records[i]
		row := make([]string, 0, len(out))
		for _, h := range rs.header {
			switch h {
			case colCountry:
				row = append(row, rec.Country)
			case colLocation:
				row = append(row, rec.Location)
			case colLatitude:
				row = append(row, formatCoord(rec.Coords.Lat, rec.Coords.Present))
			case colLongitude:
				row = append(row, formatCoord(rec.Coords.Lon, rec.Coords.Present))
			case colOperator:
				row = append(row, rec.Operator)
			case colSummary:
				row = append(row, rec.Summary)
			case colRoute:
				row = append(row, rec.Route)
			case colFrom:
				row = append(row, rec.From)
			case colTo:
				row = append(row, rec.To)
			case colAirport:
				row = append(row, rec.Airport)
			default:
				row = append(row, rec.extra[h])
			}
		}
		row = append(row, rec.Resolved, string(rec.Status))
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("encoding output row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	return []byte(sb.String()), nil
}

// atomicWriteFile writes data to a temp file in the target directory and
// renames it into place, so a crash mid-write cannot corrupt an existing file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	success = true
	return nil
}
