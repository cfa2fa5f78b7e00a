package reflection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{
		APIURL:          url,
		Model:           "test-model",
		APIKey:          "test-key",
		Temperature:     0.8,
		MaxOutputTokens: 200,
		MaxRetries:      3,
		BackoffBase:     time.Second,
	}
}

// newTestGenerator returns a generator with deterministic sleep/pick
// and a recorder for backoff waits.
func newTestGenerator(cfg Config) (*Generator, *[]time.Duration) {
	waits := &[]time.Duration{}
	g := New(cfg)
	g.sleep = func(d time.Duration) { *waits = append(*waits, d) }
	g.pick = func(int) int { return 0 }
	return g, waits
}

func TestGenerateSuccessReturnsExtractedText(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  A quiet poem for a loud day.  "}]}}]}`))
	}))
	defer srv.Close()

	g, waits := newTestGenerator(testConfig(srv.URL))
	got := g.Generate(context.Background(), "today was loud")

	assert.Equal(t, "A quiet poem for a loud day.", got)
	assert.Equal(t, 1, calls, "success must not retry")
	assert.Empty(t, *waits, "success must not back off")
}

// failingTransport simulates transport-level errors for the first n
// requests, then delegates to base.
type failingTransport struct {
	failures int
	calls    int
	base     http.RoundTripper
}

func (f *failingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	if f.base == nil {
		return nil, errors.New("connection refused")
	}
	return f.base.RoundTrip(r)
}

func TestGenerateFallsBackAfterTransportRetries(t *testing.T) {
	tr := &failingTransport{failures: 4}
	g, waits := newTestGenerator(testConfig("http://journal.invalid"))
	g.client = &http.Client{Transport: tr}

	got := g.Generate(context.Background(), "hello")

	// Four attempts total: the first plus three retries.
	assert.Equal(t, 4, tr.calls)
	// Exponential waits of 2, 4 and 8 base units before each retry.
	require.Len(t, *waits, 3)
	assert.Equal(t, 2*time.Second, (*waits)[0])
	assert.Equal(t, 4*time.Second, (*waits)[1])
	assert.Equal(t, 8*time.Second, (*waits)[2])
	// The result is still usable text from the fallback pool.
	assert.Contains(t, fallbacks, got)
}

func TestGenerateRecoversWhenRetrySucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"third time lucky"}]}}]}`))
	}))
	defer srv.Close()

	tr := &failingTransport{failures: 2, base: http.DefaultTransport}
	g, waits := newTestGenerator(testConfig(srv.URL))
	g.client = &http.Client{Transport: tr}

	got := g.Generate(context.Background(), "hello")

	assert.Equal(t, "third time lucky", got)
	assert.Equal(t, 3, tr.calls)
	assert.Len(t, *waits, 2)
}

func TestGenerateDoesNotRetryServiceRejection(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, waits := newTestGenerator(testConfig(srv.URL))
	got := g.Generate(context.Background(), "hello")

	assert.Equal(t, 1, calls, "HTTP-status failures must not be retried")
	assert.Empty(t, *waits)
	assert.Contains(t, fallbacks, got)
}

func TestGenerateFallsBackOnMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"no candidates", `{"candidates":[]}`},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`},
		{"blank text", `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			g, waits := newTestGenerator(testConfig(srv.URL))
			got := g.Generate(context.Background(), "hello")

			assert.Equal(t, 1, calls)
			assert.Empty(t, *waits)
			assert.Contains(t, fallbacks, got)
		})
	}
}

func TestFallbackSelectionIsSeedable(t *testing.T) {
	g, _ := newTestGenerator(testConfig("http://journal.invalid"))
	for i := range fallbacks {
		g.pick = func(int) int { return i }
		assert.Equal(t, fallbacks[i], g.fallback())
	}
	assert.GreaterOrEqual(t, len(fallbacks), 4)
	for _, f := range fallbacks {
		assert.NotEmpty(t, f)
	}
}
