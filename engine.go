package geofix

import (
	"context"

	"github.com/rs/zerolog"
)

// EngineConfig holds reconciliation engine settings.
type EngineConfig struct {
	Logger   zerolog.Logger
	Reporter *Reporter
}

// EngineOption configures an Engine.
type EngineOption func(*EngineConfig)

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l zerolog.Logger) EngineOption {
	return func(c *EngineConfig) { c.Logger = l }
}

// WithReporter sets the progress reporter.
func WithReporter(r *Reporter) EngineOption {
	return func(c *EngineConfig) { c.Reporter = r }
}

// Engine reconciles each record's declared country against its coordinates,
// walking the fallback chain until the record reaches a terminal status.
// Records are processed one at a time; no state is shared across records
// beyond the geocode cache owned by the client.
type Engine struct {
	index    *PolygonIndex
	matcher  *Matcher
	norm     *Normalizer
	client   *Client
	reporter *Reporter
	log      zerolog.Logger
}

// NewEngine wires the pipeline over a loaded polygon index and a geocode
// client.
func NewEngine(index *PolygonIndex, client *Client, opts ...EngineOption) *Engine {
	cfg := &EngineConfig{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NewReporter(cfg.Logger, "", 25)
	}

	matcher := NewMatcher(index.Names())
	return &Engine{
		index:    index,
		matcher:  matcher,
		norm:     NewNormalizer(matcher),
		client:   client,
		reporter: cfg.Reporter,
		log:      cfg.Logger,
	}
}

// Normalizer exposes the engine's text normalizer, mainly for callers that
// want to pre-inspect declared values.
func (e *Engine) Normalizer() *Normalizer {
	return e.norm
}

// Reconcile runs the full pipeline over the record set: per-record fallback
// chain, then the safety pass, then cache flush and summary. Every record
// ends with a terminal status; no per-record failure escapes.
func (e *Engine) Reconcile(ctx context.Context, rs *RecordSet) {
	e.reporter.BeginRun(len(rs.Records))

	for i := range rs.Records {
		e.reconcileRecord(ctx, &rs.Records[i])
		e.reporter.Observe(rs.Records[i].Status)
	}

	adjusted := e.safetyPass(rs)
	if adjusted > 0 {
		e.log.Info().Int("adjusted", adjusted).Msg("safety pass snapped points inside declared regions")
	}

	if err := e.client.Close(); err != nil {
		e.log.Warn().Err(err).Msg("geocode cache flush failed")
	}
	e.reporter.Finish()
}

// resolveDeclared normalizes the record's declared country, inferring one
// from auxiliary text, directional context or spatial containment when the
// declaration alone is unusable.
func (e *Engine) resolveDeclared(rec *Record) (declared, containing string) {
	declared = e.norm.NormalizeCountry(rec.Country)

	if declared == "" {
		for _, f := range rec.auxFields() {
			if g := e.matcher.GuessFromText(f); g != "" {
				declared = g
				break
			}
		}
	}

	if directionalTokens[Fold(rec.Country)] {
		if resolved := e.norm.ResolveDirectional(rec); resolved != "" {
			declared = resolved
		}
	}

	if rec.Coords.Present {
		containing, _ = e.index.Contains(rec.Coords.Lat, rec.Coords.Lon)
	}

	// Declared text that matches no known region is replaced by whatever
	// region the point already lies in.
	if containing != "" {
		if _, canonical := e.index.Canonical(declared); !canonical {
			declared = containing
		}
	}
	return declared, containing
}

func (e *Engine) reconcileRecord(ctx context.Context, rec *Record) {
	declared, containing := e.resolveDeclared(rec)

	// Point already inside the declared region: nothing to repair.
	if declared != "" && containing != "" && Fold(declared) == Fold(containing) {
		rec.Resolved = declared
		rec.Status = StatusOK
		return
	}

	// External lookup from location + declared country.
	if !e.client.Offline() {
		if q := BuildQuery(CleanLocation(rec.Location), declared); q != "" {
			e.reporter.Attempt()
			if res, ok := e.client.Geocode(ctx, q); ok {
				rec.Coords = NewCoords(res.Lat, res.Lon)
				if res.Country != "" {
					if nc := e.norm.NormalizeCountry(res.Country); nc != "" {
						declared = nc
					}
				}
				rec.Resolved = declared
				rec.Status = StatusGeocoded
				return
			}
		}
	}

	// Spatial fallbacks: first resolver that names a region with a known
	// representative point wins.
	for _, fr := range e.fallbackChain() {
		name := fr.resolve(rec, declared)
		if name == "" {
			continue
		}
		canon, ok := e.index.Canonical(name)
		if !ok {
			continue
		}
		rep, ok := e.index.RepresentativePoint(canon)
		if !ok {
			continue
		}
		e.log.Debug().Str("id", rec.ID).Str("resolver", fr.name).Str("region", canon).Msg("fallback resolved")
		rec.Coords = rep
		rec.Resolved = canon
		rec.Status = StatusCentroid
		return
	}

	// Nothing resolved anywhere: keep the coordinates as supplied.
	rec.Resolved = declared
	rec.Status = StatusNoCountryMatch
}

// fallbackResolver is one attempt in the ordered fallback chain. It returns
// a region name (any folded-equal spelling) or "".
type fallbackResolver struct {
	name    string
	resolve func(rec *Record, declared string) string
}

// fallbackChain returns the resolution policy as an ordered list, so the
// order stays explicit and each step is independently testable.
func (e *Engine) fallbackChain() []fallbackResolver {
	return []fallbackResolver{
		{"declared-direct", func(_ *Record, declared string) string {
			return declared
		}},
		{"declared-fuzzy", func(_ *Record, declared string) string {
			return e.matcher.FuzzyToCanonical(declared)
		}},
		{"raw-renormalized", func(rec *Record, _ string) string {
			raw := e.norm.NormalizeCountry(rec.Country)
			if cand := e.matcher.FuzzyToCanonical(raw); cand != "" {
				return cand
			}
			return raw
		}},
		{"free-text", func(rec *Record, _ string) string {
			for _, tok := range []string{"near", "off"} {
				if ph := ExtractAfterToken(rec.Location, tok); ph != "" {
					if cand := e.matcher.GuessFromText(ph); cand != "" {
						return cand
					}
					if cand := e.matcher.FuzzyToCanonical(ph); cand != "" {
						return cand
					}
				}
			}
			for _, f := range rec.auxFields() {
				if cand := e.matcher.GuessFromText(f); cand != "" {
					return cand
				}
			}
			return e.norm.CountryFromOperator(rec.Operator)
		}},
		{"nearest-polygon", func(rec *Record, _ string) string {
			if !rec.Coords.Present {
				return ""
			}
			return e.index.Nearest(rec.Coords.Lat, rec.Coords.Lon)
		}},
	}
}

// safetyPass re-checks spatial containment on every reconciled record. A
// point that still sits in a region other than the declared one is snapped
// to the declared region's representative point. Kept as a separate final
// stage so it also catches wrong choices made by the resolvers above.
func (e *Engine) safetyPass(rs *RecordSet) int {
	adjusted := 0
	for i := range rs.Records {
		rec := &rs.Records[i]
		if rec.Status == StatusNoCountryMatch || rec.Status == StatusUnresolved {
			continue
		}
		if !rec.Coords.Present {
			continue
		}

		containing, ok := e.index.Contains(rec.Coords.Lat, rec.Coords.Lon)
		if !ok {
			// Mid-ocean points have no containing region to disagree with.
			continue
		}

		canon, ok := e.index.Canonical(rec.Resolved)
		if !ok {
			canon = e.matcher.FuzzyToCanonical(rec.Resolved)
		}
		if canon == "" || Fold(containing) == Fold(canon) {
			continue
		}

		rep, ok := e.index.RepresentativePoint(canon)
		if !ok {
			continue
		}
		from := rec.Status
		rec.Coords = rep
		rec.Resolved = canon
		if rec.Status == StatusGeocoded {
			rec.Status = StatusGeocodedAdjusted
		} else {
			rec.Status = StatusAdjusted
		}
		e.reporter.Adjust(from, rec.Status)
		adjusted++
	}
	return adjusted
}
