package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/liberator/pkg/circuitbreaker"
	"github.com/speedrun-hq/liberator/pkg/clusters"
	"github.com/speedrun-hq/liberator/pkg/models"
)

type fakeMigrator struct {
	mu       sync.Mutex
	running  bool
	starts   int
	release  chan struct{}
	snapshot models.Snapshot
}

func (f *fakeMigrator) Start(ctx context.Context) (models.Snapshot, error) {
	f.mu.Lock()
	f.running = true
	f.starts++
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return f.snapshot, nil
}

func (f *fakeMigrator) Current() models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeMigrator) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeMigrator) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func newTestServer(apiKey string, m Migrator, cb *circuitbreaker.CircuitBreaker) http.Handler {
	return NewServer("0", apiKey, m, cb, clusters.Devnet, "dest", nil).Handler()
}

func serve(handler http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker("rpc", true, 1, time.Minute, time.Hour, nil)
	handler := newTestServer("", &fakeMigrator{}, cb)

	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/ready", "").Code)

	cb.RecordFailure()
	assert.Equal(t, http.StatusServiceUnavailable, serve(handler, http.MethodGet, "/ready", "").Code)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(handler, http.MethodGet, "/circuit/reset", "").Code)
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodPost, "/circuit/reset", "").Code)
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/ready", "").Code)
}

func TestStatus(t *testing.T) {
	m := &fakeMigrator{snapshot: models.Snapshot{
		ID:      "run-1",
		Status:  models.StatusCompleted,
		Message: "Migration finished. 1 successful, 0 failed or skipped.",
		Results: []models.AssetResult{models.SuccessResult(models.NewNativeAsset(5), "sig", 1)},
	}}
	cb := circuitbreaker.NewCircuitBreaker("rpc", true, 5, time.Minute, time.Minute, nil)
	rec := serve(newTestServer("", m, cb), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Running bool `json:"running"`
		Run     struct {
			Status    string `json:"status"`
			Successes int    `json:"successes"`
			Results   []struct {
				ExplorerURL string `json:"explorer_url"`
			} `json:"results"`
		} `json:"run"`
		Circuit struct {
			Threshold int `json:"threshold"`
		} `json:"circuit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Running)
	assert.Equal(t, "completed", body.Run.Status)
	assert.Equal(t, 1, body.Run.Successes)
	require.Len(t, body.Run.Results, 1)
	assert.Equal(t, "https://explorer.solana.com/tx/sig?cluster=devnet", body.Run.Results[0].ExplorerURL)
	assert.Equal(t, 5, body.Circuit.Threshold)
}

func TestMigrateRejectsConcurrentRuns(t *testing.T) {
	m := &fakeMigrator{release: make(chan struct{})}
	handler := newTestServer("", m, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(handler, http.MethodGet, "/migrate", "").Code)
	assert.Equal(t, http.StatusAccepted, serve(handler, http.MethodPost, "/migrate", "").Code)
	assert.Equal(t, http.StatusConflict, serve(handler, http.MethodPost, "/migrate", "").Code)

	close(m.release)
	assert.Eventually(t, func() bool { return !m.Running() }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, m.startCount())
}

func TestAuthMiddleware(t *testing.T) {
	handler := newTestServer("secret", &fakeMigrator{}, nil)

	assert.Equal(t, http.StatusUnauthorized, serve(handler, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(handler, http.MethodGet, "/metrics", "wrong").Code)
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/metrics", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(handler, http.MethodPost, "/migrate", "").Code)

	// Health stays public
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/health", "").Code)
}
