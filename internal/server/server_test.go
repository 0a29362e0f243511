package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/srql/internal/apikey"
	"github.com/carverauto/srql/internal/config"
	"github.com/carverauto/srql/internal/query"
	"github.com/carverauto/srql/internal/ratelimit"
)

type stubExecutor struct {
	rows  []map[string]any
	calls int
}

func (s *stubExecutor) Query(_ context.Context, _ string, _ []query.BindParam) ([]map[string]any, error) {
	s.calls++
	return s.rows, nil
}

type fixture struct {
	server *httptest.Server
	exec   *stubExecutor
	keys   *apikey.Store
}

func newFixture(t *testing.T, apiKey string) *fixture {
	t.Helper()

	cfg := &config.AppConfig{
		DefaultLimit:         100,
		MaxLimit:             500,
		RequestTimeout:       5 * time.Second,
		RateLimitMaxRequests: 100,
		RateLimitWindow:      time.Second,
	}

	exec := &stubExecutor{}
	engine := query.NewEngine(exec, query.Limits{Default: cfg.DefaultLimit, Max: cfg.MaxLimit})
	keys := apikey.NewStore(apiKey)
	limiter := ratelimit.NewFixedWindow(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	t.Cleanup(limiter.Close)

	srv := New(cfg, engine, keys, limiter, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &fixture{server: ts, exec: exec, keys: keys}
}

func (f *fixture) post(t *testing.T, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	resp, err := http.Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestQuery_HappyPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "secret")
	f.exec.rows = []map[string]any{
		{"hostname": "prod-a"},
		{"hostname": "prod-b"},
	}

	resp, body := f.post(t, "/api/query", map[string]any{
		"query": `in:devices is_available:true hostname:~"prod-%" order:last_seen.desc`,
		"limit": 2,
	}, map[string]string{"x-api-key": "secret"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	results := body["results"].([]any)
	assert.Len(t, results, 2)

	pagination := body["pagination"].(map[string]any)
	assert.NotEmpty(t, pagination["next_cursor"], "full page must expose a next cursor")
	assert.Equal(t, 1, f.exec.calls)
}

func TestQuery_AuthFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "secret")

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"wrong key", map[string]string{"x-api-key": "wrong"}},
		{"missing key", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.post(t, "/api/query", map[string]any{"query": "in:devices"}, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}

	assert.Zero(t, f.exec.calls, "no SQL may execute on auth failure")
}

func TestQuery_TrimmedKeyMatches(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "secret")
	resp, _ := f.post(t, "/api/query", map[string]any{"query": "in:devices"},
		map[string]string{"x-api-key": "  secret  "})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuery_HotKeySwap(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "old")

	next := "new"
	f.keys.Set(&next)

	resp, _ := f.post(t, "/api/query", map[string]any{"query": "in:devices"},
		map[string]string{"x-api-key": "old"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.post(t, "/api/query", map[string]any{"query": "in:devices"},
		map[string]string{"x-api-key": "new"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuery_InvalidCursor(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	resp, body := f.post(t, "/api/query", map[string]any{
		"query":  "in:logs",
		"cursor": "!!!not-base64!!!",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid cursor")
	assert.Zero(t, f.exec.calls)
}

func TestQuery_CypherWriteRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	resp, body := f.post(t, "/api/query", map[string]any{
		"query": `in:graph_cypher cypher:"CREATE (n:X)"`,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "read-only")
	assert.Zero(t, f.exec.calls, "CREATE must never reach the database")
}

func TestQuery_MalformedBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/query", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	resp, body := f.post(t, "/translate", map[string]any{
		"query": `in:devices hostname:~"prod-%" order:last_seen.desc limit:2`,
	}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	sql := body["sql"].(string)
	assert.Contains(t, sql, "unified_devices")
	assert.Contains(t, sql, "ILIKE")
	assert.Contains(t, sql, "ORDER BY last_seen DESC")
	assert.Contains(t, sql, "LIMIT 2")
	assert.Empty(t, body["params"])
	assert.Zero(t, f.exec.calls, "translate never executes SQL")
}

func TestTranslate_RequiresAuthWhenConfigured(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "secret")
	resp, _ := f.post(t, "/translate", map[string]any{"query": "in:devices"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestQuery_UnknownEntity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	resp, body := f.post(t, "/api/query", map[string]any{"query": "in:widgets"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "unknown entity")
}

func TestRateLimit_PermitReturnedBetweenRequests(t *testing.T) {
	t.Parallel()

	cfg := &config.AppConfig{
		DefaultLimit:         100,
		MaxLimit:             500,
		RequestTimeout:       5 * time.Second,
		RateLimitMaxRequests: 1,
		RateLimitWindow:      50 * time.Millisecond,
	}
	exec := &stubExecutor{}
	engine := query.NewEngine(exec, query.Limits{Default: 100, Max: 500})
	limiter := ratelimit.NewFixedWindow(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	t.Cleanup(limiter.Close)

	ts := httptest.NewServer(New(cfg, engine, apikey.NewStore(""), limiter, nil).Router())
	t.Cleanup(ts.Close)

	// Two sequential requests both succeed: the first permit is returned
	// on completion and the window refills besides.
	for i := 0; i < 2; i++ {
		resp, err := http.Post(ts.URL+"/api/query", "application/json",
			bytes.NewReader([]byte(`{"query":"in:devices"}`)))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}
