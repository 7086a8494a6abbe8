package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := NewServer(slog.Default())
	rec := doRequest(t, s, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReadyz_AllChecksPass(t *testing.T) {
	t.Parallel()

	s := NewServer(slog.Default(),
		WithReadinessCheck("postgres", func(context.Context) error { return nil }),
		WithReadinessCheck("tokens", func(context.Context) error { return nil }),
	)
	rec := doRequest(t, s, http.MethodGet, "/readyz")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "ok", resp.Checks["tokens"])
}

func TestReadyz_FailingCheckReportsNotReady(t *testing.T) {
	t.Parallel()

	s := NewServer(slog.Default(),
		WithReadinessCheck("postgres", func(context.Context) error { return nil }),
		WithReadinessCheck("tokens", func(context.Context) error { return errors.New("snapshot empty") }),
	)
	rec := doRequest(t, s, http.MethodGet, "/readyz")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "snapshot empty", resp.Checks["tokens"])
}

func TestStatus(t *testing.T) {
	t.Parallel()

	s := NewServer(slog.Default(), WithStatus(func() any {
		return []map[string]string{{"address": "0xabc"}}
	}))
	rec := doRequest(t, s, http.MethodGet, "/ops/v1/status")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0xabc")
	assert.Contains(t, rec.Body.String(), "server_time")
}

func TestStatus_NoProvider(t *testing.T) {
	t.Parallel()

	s := NewServer(slog.Default())
	rec := doRequest(t, s, http.MethodGet, "/ops/v1/status")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
