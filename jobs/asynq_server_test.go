package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWarmups struct {
	payloads []ReportWarmupPayload
	err      error
}

func (m *mockWarmups) EnqueueReportWarmup(ctx context.Context, payload ReportWarmupPayload) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.payloads = append(m.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(warmups WarmupEnqueuer) http.Handler {
	h := NewHandler(nil, warmups, slog.Default())
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestTriggerWarmupQueuesTask(t *testing.T) {
	warmups := &mockWarmups{}
	router := newJobsRouter(warmups)

	req := httptest.NewRequest(http.MethodPost, "/jobs/report-warmup", strings.NewReader(`{"date":"2025-03-01"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, warmups.payloads, 1)
	assert.Equal(t, "2025-03-01", warmups.payloads[0].Date)

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "task-1", body.Data["taskId"])
}

func TestTriggerWarmupDefaultsToYesterday(t *testing.T) {
	warmups := &mockWarmups{}
	router := newJobsRouter(warmups)

	req := httptest.NewRequest(http.MethodPost, "/jobs/report-warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, warmups.payloads, 1)
	assert.Empty(t, warmups.payloads[0].Date)
}

func TestTriggerWarmupRejectsBadDate(t *testing.T) {
	warmups := &mockWarmups{}
	router := newJobsRouter(warmups)

	req := httptest.NewRequest(http.MethodPost, "/jobs/report-warmup", strings.NewReader(`{"date":"March 1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, warmups.payloads)
}

func TestTriggerWarmupQueueUnavailable(t *testing.T) {
	router := newJobsRouter(&mockWarmups{err: errors.New("redis down")})

	req := httptest.NewRequest(http.MethodPost, "/jobs/report-warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
