package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeZip(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"five digits", "02134", "02134", true},
		{"zip plus four", "02134-1234", "02134", true},
		{"missing leading zero", "2134", "02134", true},
		{"whitespace", "  02134 ", "02134", true},
		{"too long", "021345", "02134", true},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"dash only", "-1234", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeZip(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newLookupServer(t *testing.T, states map[string]string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		zip := r.URL.Path[len("/"):]
		state, ok := states[zip]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"post code": %q, "places": [{"place name": "Somewhere", "state abbreviation": %q}]}`, zip, state)
	}))
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000
	return cfg
}

func TestResolver_NormalizationEquivalence(t *testing.T) {
	server := newLookupServer(t, map[string]string{"02134": "MA"}, nil)
	defer server.Close()

	resolver := NewResolver(testConfig(server.URL), slog.Default())
	ctx := context.Background()

	for _, raw := range []string{"02134", "02134-1234", "2134"} {
		state, ok := resolver.Resolve(ctx, raw)
		assert.True(t, ok, "resolve %q", raw)
		assert.Equal(t, "MA", state, "resolve %q", raw)
	}
}

func TestResolver_CachesByNormalizedZip(t *testing.T) {
	var calls atomic.Int64
	server := newLookupServer(t, map[string]string{"02134": "MA"}, &calls)
	defer server.Close()

	resolver := NewResolver(testConfig(server.URL), slog.Default())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = resolver.Resolve(ctx, "02134-1234")
	}

	assert.Equal(t, int64(1), calls.Load())
	stats := resolver.Stats()
	assert.Equal(t, int64(1), stats.Lookups)
	assert.Equal(t, int64(4), stats.CacheHits)
}

func TestResolver_UnknownZipIsMissNotError(t *testing.T) {
	server := newLookupServer(t, map[string]string{}, nil)
	defer server.Close()

	resolver := NewResolver(testConfig(server.URL), slog.Default())

	state, ok := resolver.Resolve(context.Background(), "99999")
	assert.False(t, ok)
	assert.Equal(t, "", state)

	// A definitive miss carries no error on the Lookup path either.
	got, err := resolver.Lookup(context.Background(), "99999")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestResolver_EmptyZip(t *testing.T) {
	resolver := NewResolver(testConfig("http://127.0.0.1:0"), slog.Default())

	state, ok := resolver.Resolve(context.Background(), "   ")
	assert.False(t, ok)
	assert.Equal(t, "", state)
}

func TestResolver_FailureAbsorbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := NewResolver(testConfig(server.URL), slog.Default())

	state, ok := resolver.Resolve(context.Background(), "02134")
	assert.False(t, ok)
	assert.Equal(t, "", state)
	assert.Equal(t, int64(1), resolver.Stats().Failures)

	// The error-preserving path reports the failure detail.
	_, err := resolver.Lookup(context.Background(), "02134")
	require.Error(t, err)
	var lookupErr *LookupError
	assert.ErrorAs(t, err, &lookupErr)
}

func TestResolver_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"places": [{"state abbreviation": "MA"}]}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 1
	resolver := NewResolver(cfg, slog.Default())

	state, ok := resolver.Resolve(context.Background(), "02134")
	assert.True(t, ok)
	assert.Equal(t, "MA", state)
	assert.Equal(t, int64(2), calls.Load())
}

func TestResolver_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	resolver := NewResolver(testConfig(server.URL), slog.Default())

	_, ok := resolver.Resolve(context.Background(), "02134")
	assert.False(t, ok)
}
