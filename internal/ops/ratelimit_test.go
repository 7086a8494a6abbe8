package ops

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, remoteAddr, path string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_BurstExhaustionRejects(t *testing.T) {
	t.Parallel()

	rl := NewRateLimitMiddleware(slog.Default())
	defer rl.Stop()
	h := rl.Wrap(okHandler())

	rejected := 0
	for i := 0; i < defaultBurst+5; i++ {
		if serve(h, "10.0.0.1:1234", "/ops/v1/status") == http.StatusTooManyRequests {
			rejected++
		}
	}
	assert.Positive(t, rejected)
}

func TestRateLimit_MetricsPathExempt(t *testing.T) {
	t.Parallel()

	rl := NewRateLimitMiddleware(slog.Default())
	defer rl.Stop()
	h := rl.Wrap(okHandler())

	for i := 0; i < defaultBurst*3; i++ {
		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2:1234", "/metrics"))
	}
	assert.Zero(t, rl.LimiterCount())
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	t.Parallel()

	rl := NewRateLimitMiddleware(slog.Default())
	defer rl.Stop()
	h := rl.Wrap(okHandler())

	for i := 0; i < defaultBurst+5; i++ {
		serve(h, "10.0.0.3:1234", "/healthz")
	}
	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.4:1234", "/healthz"),
		"a throttled client must not affect others")
	assert.Equal(t, 2, rl.LimiterCount())
}

func TestRateLimit_EvictsStaleLimiters(t *testing.T) {
	t.Parallel()

	rl := NewRateLimitMiddleware(slog.Default())
	defer rl.Stop()
	h := rl.Wrap(okHandler())

	serve(h, "10.0.0.5:1234", "/healthz")
	assert.Equal(t, 1, rl.LimiterCount())

	rl.nowFunc = func() time.Time { return time.Now().Add(staleLimiterTTL + time.Minute) }
	rl.evictStale()
	assert.Zero(t, rl.LimiterCount())
}

func TestExtractClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:5000", want: "192.0.2.1"},
		{name: "x-forwarded-for single", remoteAddr: "10.0.0.1:80", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "203.0.113.7"},
		{name: "x-forwarded-for chain takes first", remoteAddr: "10.0.0.1:80", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, want: "203.0.113.7"},
		{name: "x-real-ip", remoteAddr: "10.0.0.1:80", headers: map[string]string{"X-Real-IP": "198.51.100.9"}, want: "198.51.100.9"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractClientIP(req))
		})
	}
}
