package geofix

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is one progress observation, written as JSON to the live file so
// long runs can be watched from outside the process.
type Snapshot struct {
	TS        int64 `json:"ts"`
	OK        int   `json:"ok"`
	Geocoded  int   `json:"geocoded"`
	Centroid  int   `json:"centroid"`
	NoCountry int   `json:"no_country"`
	Pending   int   `json:"pending"`
	Attempted int   `json:"attempted"`
	Total     int   `json:"total"`
}

// Reporter accumulates per-status counts and emits periodic progress
// snapshots. Snapshot writes are best-effort: a reporting failure never
// affects reconciliation.
type Reporter struct {
	log      zerolog.Logger
	livePath string
	every    int

	counts    map[StatusCode]int
	processed int
	attempted int
	total     int
}

// NewReporter returns a reporter logging to log and writing live snapshots
// to livePath ("" disables the file) every `every` geocode attempts.
func NewReporter(log zerolog.Logger, livePath string, every int) *Reporter {
	if every < 1 {
		every = 25
	}
	return &Reporter{
		log:      log,
		livePath: livePath,
		every:    every,
		counts:   make(map[StatusCode]int),
	}
}

// BeginRun resets counters for a run over total records.
func (r *Reporter) BeginRun(total int) {
	r.counts = make(map[StatusCode]int)
	r.processed = 0
	r.attempted = 0
	r.total = total
	r.log.Info().Int("records", total).Msg("reconciliation run started")
}

// Attempt records one geocode attempt and emits progress on cadence.
func (r *Reporter) Attempt() {
	r.attempted++
	if r.attempted%r.every == 0 {
		r.emit()
	}
}

// Observe records a terminal status.
func (r *Reporter) Observe(s StatusCode) {
	r.counts[s]++
	r.processed++
}

// Adjust moves a count from one status to another after the safety pass.
func (r *Reporter) Adjust(from, to StatusCode) {
	if r.counts[from] > 0 {
		r.counts[from]--
	}
	r.counts[to]++
}

// Count returns the number of records observed with the given status.
func (r *Reporter) Count(s StatusCode) int {
	return r.counts[s]
}

func (r *Reporter) snapshot() Snapshot {
	return Snapshot{
		TS:        time.Now().Unix(),
		OK:        r.counts[StatusOK],
		Geocoded:  r.counts[StatusGeocoded] + r.counts[StatusGeocodedAdjusted],
		Centroid:  r.counts[StatusCentroid] + r.counts[StatusAdjusted],
		NoCountry: r.counts[StatusNoCountryMatch],
		Pending:   r.total - r.processed,
		Attempted: r.attempted,
		Total:     r.total,
	}
}

// emit logs progress and writes the live snapshot file.
func (r *Reporter) emit() {
	snap := r.snapshot()
	r.log.Info().
		Int("attempted", snap.Attempted).
		Int("geocoded", snap.Geocoded).
		Int("pending", snap.Pending).
		Msg("geocode progress")

	if r.livePath == "" {
		return
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	if err := atomicWriteFile(r.livePath, data); err != nil {
		r.log.Debug().Err(err).Msg("live snapshot write failed")
	}
}

// Finish emits the final snapshot and a per-status summary.
func (r *Reporter) Finish() {
	r.emit()
	ev := r.log.Info()
	for _, s := range []StatusCode{
		StatusOK, StatusGeocoded, StatusGeocodedAdjusted,
		StatusCentroid, StatusAdjusted, StatusNoCountryMatch,
	} {
		if n := r.counts[s]; n > 0 {
			ev = ev.Int(string(s), n)
		}
	}
	ev.Msg("reconciliation run finished")
}
