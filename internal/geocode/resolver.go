// Package geocode resolves US ZIP codes to 2-letter state codes through an
// external postal-lookup service. Lookups are cached, rate limited, and
// deduplicated; the public Resolve boundary never fails, it only reports
// "no region".
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	apperrors "mlpulse/internal/errors"
)

// Config holds configuration options for the Resolver.
type Config struct {
	BaseURL           string        // lookup endpoint, queried as {BaseURL}/{zip}
	Timeout           time.Duration // per-request timeout
	RequestsPerSecond float64       // outbound rate limit
	Burst             int
	MaxRetries        int // retries on transient failures (network, 5xx)
}

// DefaultConfig returns a default configuration for typical use cases.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.zippopotam.us/us",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
		MaxRetries:        1,
	}
}

// Stats counts resolver activity for diagnostics.
type Stats struct {
	Lookups   int64 `json:"lookups"`
	CacheHits int64 `json:"cache_hits"`
	Failures  int64 `json:"failures"`
}

// LookupError is the typed failure returned by the internal Lookup path.
// The public Resolve boundary absorbs it.
type LookupError struct {
	Zip    string
	Reason string
	Cause  error
}

func (e *LookupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("geocode lookup for %q failed: %s: %v", e.Zip, e.Reason, e.Cause)
	}
	return fmt.Sprintf("geocode lookup for %q failed: %s", e.Zip, e.Reason)
}

func (e *LookupError) Unwrap() error { return e.Cause }

// Resolver maps ZIP code strings to 2-letter state codes.
type Resolver struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]string // normalized zip -> state code ("" = known miss)
	stats Stats
}

// NewResolver creates a resolver with the given configuration.
func NewResolver(cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	return &Resolver{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger.With(slog.String("component", "geocode_resolver")),
		cache:   make(map[string]string),
	}
}

// NormalizeZip reduces a raw ZIP string to its 5-digit lookup key: trims
// whitespace, keeps only the part before a ZIP+4 dash, left-pads short
// numeric codes with zeros, and truncates to 5 characters. ok is false for
// empty input.
func NormalizeZip(raw string) (string, bool) {
	z := strings.TrimSpace(raw)
	if z == "" {
		return "", false
	}
	if i := strings.IndexByte(z, '-'); i >= 0 {
		z = z[:i]
	}
	if z == "" {
		return "", false
	}
	for len(z) < 5 {
		z = "0" + z
	}
	return z[:5], true
}

// Resolve maps a raw ZIP code to a state code. ok is false when the code is
// empty, unknown, or the lookup failed; failures never propagate as errors.
func (r *Resolver) Resolve(ctx context.Context, zipCode string) (string, bool) {
	state, err := r.Lookup(ctx, zipCode)
	if err != nil || state == "" {
		return "", false
	}
	return state, true
}

// Lookup is the error-preserving resolution path. Callers that want failure
// detail (diagnostics) use this; everyone else goes through Resolve.
func (r *Resolver) Lookup(ctx context.Context, zipCode string) (string, error) {
	zip, ok := NormalizeZip(zipCode)
	if !ok {
		return "", nil
	}

	r.mu.RLock()
	state, cached := r.cache[zip]
	r.mu.RUnlock()
	if cached {
		r.mu.Lock()
		r.stats.CacheHits++
		r.mu.Unlock()
		return state, nil
	}

	// Collapse concurrent lookups for the same zip into one request.
	v, err, _ := r.group.Do(zip, func() (interface{}, error) {
		return r.fetch(ctx, zip)
	})
	if err != nil {
		r.mu.Lock()
		r.stats.Failures++
		r.mu.Unlock()
		r.logger.DebugContext(ctx, "zip lookup failed",
			slog.String("zip", zip),
			slog.String("error", err.Error()))
		return "", err
	}

	state = v.(string)
	r.mu.Lock()
	r.cache[zip] = state
	r.stats.Lookups++
	r.mu.Unlock()
	return state, nil
}

// Stats returns a snapshot of resolver counters.
func (r *Resolver) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// lookupResponse mirrors the zippopotam.us payload shape.
type lookupResponse struct {
	Places []struct {
		StateAbbreviation string `json:"state abbreviation"`
	} `json:"places"`
}

func (r *Resolver) fetch(ctx context.Context, zip string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", &LookupError{Zip: zip, Reason: "rate limiter wait", Cause: err}
		}

		state, retryable, err := r.fetchOnce(ctx, zip)
		if err == nil {
			return state, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (r *Resolver) fetchOnce(ctx context.Context, zip string) (state string, retryable bool, err error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(r.cfg.BaseURL, "/"), zip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, &LookupError{Zip: zip, Reason: "build request", Cause: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", true, &LookupError{Zip: zip, Reason: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Unknown zip is a definitive miss, cached as "".
		return "", false, nil
	case resp.StatusCode >= 500:
		return "", true, &LookupError{Zip: zip, Reason: fmt.Sprintf("server status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", false, &LookupError{Zip: zip, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, &LookupError{Zip: zip, Reason: "read body", Cause: err}
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, &LookupError{Zip: zip, Reason: "decode body", Cause: apperrors.NewParsingError("malformed lookup response", err)}
	}
	if len(payload.Places) == 0 {
		return "", false, nil
	}
	return strings.TrimSpace(payload.Places[0].StateAbbreviation), false, nil
}
