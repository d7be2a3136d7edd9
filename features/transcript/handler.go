package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tubetalk/internal/middleware"
	"tubetalk/internal/videoid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit accepts a video URL and returns a job id for polling. The pipeline
// runs in the background; the response never waits for it.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		YoutubeURL string `json:"youtube_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.YoutubeURL == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "youtube_url is required", http.StatusBadRequest)
		return
	}

	jobID, err := h.service.Submit(r.Context(), req.YoutubeURL)
	if err != nil {
		if errors.Is(err, videoid.ErrUnrecognizedURL) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "not a recognized video URL", http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "submit failed", "error", err, "url", req.YoutubeURL)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"job_id": jobID}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// Status is the read-only polling endpoint keyed by job id.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	status, err := h.service.StatusByJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Job not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "status lookup failed", "error", err, "job_id", jobID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
