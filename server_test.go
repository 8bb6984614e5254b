package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Six nodes one unit apart on the X axis in two clusters, plus an unbound
// island at X=20.
const testLevel = `{
  "visibilityRadius": 1.5,
  "nodes": [
    {"id": 0, "position": {"x": 0, "y": 0, "z": 0}},
    {"id": 1, "position": {"x": 1, "y": 0, "z": 0}},
    {"id": 2, "position": {"x": 2, "y": 0, "z": 0}},
    {"id": 3, "position": {"x": 3, "y": 0, "z": 0}},
    {"id": 4, "position": {"x": 4, "y": 0, "z": 0}},
    {"id": 5, "position": {"x": 5, "y": 0, "z": 0}},
    {"id": 6, "position": {"x": 20, "y": 0, "z": 0}}
  ],
  "clusters": [
    {"id": 0, "name": "west", "nodes": [0, 1, 2], "neighbors": [1]},
    {"id": 1, "name": "east", "nodes": [3, 4, 5], "neighbors": [0]}
  ]
}`

func testConfig(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, os.WriteFile(path, []byte(testLevel), 0o644))
	cfg := DefaultConfig()
	cfg.Level.Path = path
	cfg.Search.TableWorkers = 2
	return cfg
}

// newTestServer returns a server, loaded unless loaded is false, and its
// handler.
func newTestServer(t *testing.T, loaded bool) (*server, http.Handler) {
	t.Helper()
	cfg := testConfig(t)
	logger := zaptest.NewLogger(t)
	srv := newServer(cfg, logger, func(ctx context.Context) (*planner, error) {
		return loadPlanner(ctx, cfg, logger)
	})
	if loaded {
		p, err := loadPlanner(context.Background(), cfg, logger)
		require.NoError(t, err)
		srv.swap(p)
	}
	return srv, srv.handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func pathIDs(resp RouteResponse) []int {
	ids := make([]int, len(resp.Path))
	for i, w := range resp.Path {
		ids[i] = w.ID
	}
	return ids
}

func TestHandleRoute(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodPost, "/route", `{"from": {"x": 0.1, "y": 0, "z": 0}, "goal": 5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[RouteResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "heuristic", resp.Algorithm)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, pathIDs(resp))
	assert.InDelta(t, 5.0, resp.Cost, 1e-9)
	assert.Positive(t, resp.Expanded)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), resp.RequestID)
}

func TestHandleRoute_Algorithms(t *testing.T) {
	_, h := newTestServer(t, true)

	for _, algo := range []string{"uniform-cost", "heuristic", "hierarchical"} {
		t.Run(algo, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/route", `{"start": 5, "goal": 0, "algorithm": "`+algo+`"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[RouteResponse](t, rec)
			assert.True(t, resp.Success)
			assert.Equal(t, algo, resp.Algorithm)
			assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, pathIDs(resp))
		})
	}
}

func TestHandleRoute_Unreachable(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodPost, "/route", `{"start": 0, "goal": 6, "algorithm": "uniform-cost"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RouteResponse](t, rec)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, resp.Path)
}

func TestHandleRoute_BadRequests(t *testing.T) {
	_, h := newTestServer(t, true)

	cases := map[string]string{
		"not json":          `{"goal":`,
		"missing goal":      `{"from": {"x": 0, "y": 0, "z": 0}}`,
		"negative goal":     `{"start": 0, "goal": -1}`,
		"no start or from":  `{"goal": 3}`,
		"unknown algorithm": `{"start": 0, "goal": 3, "algorithm": "bfs"}`,
		"unknown goal":      `{"start": 0, "goal": 99}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/route", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleRoute_NoLevel(t *testing.T) {
	_, h := newTestServer(t, false)

	rec := do(t, h, http.MethodPost, "/route", `{"start": 0, "goal": 3}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleReload(t *testing.T) {
	srv, h := newTestServer(t, false)

	rec := do(t, h, http.MethodPost, "/reload", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 7.0, body["nodes"])
	assert.Equal(t, 2.0, body["clusters"])
	first := srv.current()
	require.NotNil(t, first)

	rec = do(t, h, http.MethodPost, "/reload", `{"force": false}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Same(t, first, srv.current())

	rec = do(t, h, http.MethodPost, "/reload", `{"force": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotSame(t, first, srv.current())
}

func TestHandleReload_LoadFailureKeepsPlanner(t *testing.T) {
	srv, _ := newTestServer(t, true)
	before := srv.current()
	srv.load = func(context.Context) (*planner, error) {
		return nil, errors.New("level file vanished")
	}

	rec := do(t, srv.handler(), http.MethodPost, "/reload", `{"force": true}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Same(t, before, srv.current())
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t, false)
	body := decode[map[string]any](t, do(t, h, http.MethodGet, "/health", ""))
	assert.Equal(t, false, body["loaded"])

	_, h = newTestServer(t, true)
	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[map[string]any](t, rec)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, 7.0, body["nodes"])
	assert.Equal(t, 2.0, body["clusters"])
	assert.Equal(t, 0.0, body["obstacles"])
}

func TestHandleClusters(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/clusters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Clusters []clusterView `json:"clusters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Clusters, 2)

	west, east := body.Clusters[0], body.Clusters[1]
	assert.Equal(t, "west", west.Name)
	assert.Equal(t, []int{0, 1, 2}, west.Nodes)
	assert.Equal(t, map[int]int{1: 2}, west.ExitNodes)
	assert.Equal(t, 1, west.Routes)
	assert.Equal(t, map[int]int{0: 3}, east.ExitNodes)
}

func TestHandleGraphLines(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/graph/lines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, 7.0, body["numNodes"])
	assert.Equal(t, 5.0, body["numEdges"])
}

func TestMetricsAndRequestID(t *testing.T) {
	_, h := newTestServer(t, true)
	do(t, h, http.MethodPost, "/route", `{"start": 0, "goal": 5}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pathfinding_")

	const id = "5f0c4a4e-8f5e-4b7a-9a55-3c2d8a0e6b11"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
