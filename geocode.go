package geofix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GeocodeResult is a forward-geocoding hit. Country is the service-reported
// country of the result when available, "" otherwise (including cache hits,
// which store coordinates only).
type GeocodeResult struct {
	Lat     float64
	Lon     float64
	Country string
}

// ClientConfig holds geocode client settings.
type ClientConfig struct {
	BaseURL      string
	UserAgent    string
	CachePath    string
	MinDelay     time.Duration // minimum pause between network requests
	Timeout      time.Duration // per-request timeout
	ProbeTimeout time.Duration
	Retries      int // additional attempts after the first
	Backoff      time.Duration
	FlushEvery   int // cache flush threshold, in new entries
	Offline      bool
	Logger       zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*ClientConfig)

// WithBaseURL sets the geocoding service endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *ClientConfig) { c.BaseURL = u }
}

// WithCachePath sets the persistent cache file location. Empty disables
// persistence (the in-memory cache still applies).
func WithCachePath(path string) ClientOption {
	return func(c *ClientConfig) { c.CachePath = path }
}

// WithMinDelay sets the minimum inter-request delay.
func WithMinDelay(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.MinDelay = d }
}

// WithRetries sets the retry budget and backoff for transient failures.
func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Retries = n; c.Backoff = backoff }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = d }
}

// WithOffline forces offline mode; no network I/O is ever attempted,
// including the construction probe.
func WithOffline() ClientOption {
	return func(c *ClientConfig) { c.Offline = true }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *ClientConfig) { c.Logger = l }
}

func defaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "https://nominatim.openstreetmap.org",
		UserAgent:    "geofix/1.0 (coordinate reconciliation)",
		MinDelay:     time.Second,
		Timeout:      10 * time.Second,
		ProbeTimeout: 3 * time.Second,
		Retries:      3,
		Backoff:      2 * time.Second,
		FlushEvery:   50,
		Logger:       zerolog.Nop(),
	}
}

// probeQuery is resolved once at construction to decide run mode. Any
// well-known place works; it only has to succeed when the service is up.
const probeQuery = "Montreal, Canada"

// Client wraps an external forward-geocoding service with a persistent
// cache, request rate limiting, bounded retries and offline-mode detection.
//
// Not safe for concurrent use: the rate limit depends on strict request
// serialization, and the whole pipeline processes records one at a time.
type Client struct {
	cfg     *ClientConfig
	http    *http.Client
	cache   *QueryCache
	offline bool
	last    time.Time
	log     zerolog.Logger
}

// NewClient builds a geocode client. The persistent cache is loaded first
// (missing file: fresh start; malformed file: reset with a warning). Unless
// offline mode is forced, a single synchronous probe decides the run mode:
// if the probe fails, every later Geocode call returns absent immediately
// without network I/O.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	cache, err := LoadQueryCache(cfg.CachePath)
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("geocode cache reset")
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		offline: cfg.Offline,
		log:     cfg.Logger,
	}

	if !c.offline {
		probeCtx, cancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout)
		defer cancel()
		if _, err := c.lookup(probeCtx, probeQuery); err != nil {
			c.offline = true
			c.log.Info().Err(err).Msg("geocoder unreachable, running offline")
		} else {
			c.log.Info().Msg("geocoder reachable, running online")
		}
	}
	return c, nil
}

// Offline reports whether the client is in offline mode.
func (c *Client) Offline() bool {
	return c.offline
}

// CacheSize returns the number of cached resolutions.
func (c *Client) CacheSize() int {
	return c.cache.Len()
}

// Close flushes the persistent cache.
func (c *Client) Close() error {
	return c.cache.Flush()
}

// Geocode resolves a query to coordinates. Cache-first: an exact-string hit
// never touches the network. On a miss the external service is queried under
// the rate limit with bounded retries; exhausted retries degrade to an
// absent result, never an error.
func (c *Client) Geocode(ctx context.Context, query string) (GeocodeResult, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return GeocodeResult{}, false
	}

	if hit, ok := c.cache.Get(query); ok {
		return GeocodeResult{Lat: hit.Lat, Lon: hit.Lon}, true
	}
	if c.offline {
		return GeocodeResult{}, false
	}

	var res GeocodeResult
	found := false
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			c.log.Debug().Str("query", query).Int("attempt", attempt).Msg("geocode retry")
			if !sleepCtx(ctx, c.cfg.Backoff) {
				return GeocodeResult{}, false
			}
		}
		c.throttle(ctx)

		r, err := c.lookup(ctx, query)
		if err == nil {
			res, found = r, true
			break
		}
		if _, transient := err.(*transientError); !transient {
			c.log.Debug().Err(err).Str("query", query).Msg("geocode failed")
			return GeocodeResult{}, false
		}
	}
	if !found {
		c.log.Debug().Str("query", query).Msg("geocode retries exhausted")
		return GeocodeResult{}, false
	}

	c.cache.Put(query, CachedPoint{Lat: res.Lat, Lon: res.Lon})
	if c.cache.Dirty() >= c.cfg.FlushEvery {
		if err := c.cache.Flush(); err != nil {
			c.log.Warn().Err(err).Msg("geocode cache flush failed")
		}
	}
	return res, true
}

// throttle enforces the minimum inter-request delay.
func (c *Client) throttle(ctx context.Context) {
	if c.cfg.MinDelay <= 0 {
		return
	}
	if wait := c.cfg.MinDelay - time.Since(c.last); wait > 0 {
		sleepCtx(ctx, wait)
	}
	c.last = time.Now()
}

// transientError marks failures worth retrying: timeouts, connection
// errors, throttling and server-side errors.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// nominatimResult is one entry of a jsonv2 search response.
type nominatimResult struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		Country string `json:"country"`
	} `json:"address"`
}

// lookup issues one search request. A response with no results is a
// permanent "not found"; network and 5xx failures are transient.
func (c *Client) lookup(ctx context.Context, query string) (GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/search?"+q.Encode(), nil)
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return GeocodeResult{}, &transientError{fmt.Errorf("geocode request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return GeocodeResult{}, &transientError{fmt.Errorf("geocode service status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return GeocodeResult{}, fmt.Errorf("geocode service status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return GeocodeResult{}, fmt.Errorf("decoding geocode response: %w", err)
	}
	if len(results) == 0 {
		return GeocodeResult{}, fmt.Errorf("no result for %q", query)
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return GeocodeResult{}, fmt.Errorf("unparseable coordinates in geocode response")
	}
	return GeocodeResult{Lat: lat, Lon: lon, Country: results[0].Address.Country}, nil
}

// sleepCtx sleeps for d unless the context ends first; reports whether the
// full sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
