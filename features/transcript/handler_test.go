package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusJobs struct {
	memJobs
	status string
	err    error
}

func (j *statusJobs) StatusFor(ctx context.Context, jobID string) (string, error) {
	if j.err != nil {
		return "", j.err
	}
	return j.status, nil
}

func newTestMux(svc *Service) *http.ServeMux {
	h := NewHandler(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /submit", h.Submit)
	mux.HandleFunc("GET /status/{job_id}", h.Status)
	return mux
}

func TestHandlerSubmit(t *testing.T) {
	svc := NewService(newMemRepo(), newMemJobs(), &recordingWorker{})
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"youtube_url":"https://youtu.be/abc123"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	svc.Wait()

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["job_id"])
}

func TestHandlerSubmit_MissingURL(t *testing.T) {
	svc := NewService(newMemRepo(), newMemJobs(), &recordingWorker{})
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandlerSubmit_UnrecognizedURL(t *testing.T) {
	svc := NewService(newMemRepo(), newMemJobs(), &recordingWorker{})
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"youtube_url":"https://vimeo.com/1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a recognized video URL")
}

func TestHandlerSubmit_MalformedBody(t *testing.T) {
	svc := NewService(newMemRepo(), newMemJobs(), &recordingWorker{})
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerStatus(t *testing.T) {
	jobs := &statusJobs{status: StatusInProgress}
	svc := NewService(newMemRepo(), jobs, &recordingWorker{})
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/status/job-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusInProgress, resp["status"])
}

func TestHandlerStatus_UnknownJob(t *testing.T) {
	jobs := &statusJobs{err: sql.ErrNoRows}
	svc := NewService(newMemRepo(), jobs, &recordingWorker{})
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/status/missing", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
