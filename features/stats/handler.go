package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"tubetalk/internal/middleware"
)

type TranscriptRepo interface {
	Count(ctx context.Context) (int, error)
}

type JobRepo interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	transcriptRepo TranscriptRepo
	jobRepo        JobRepo
}

func NewHandler(t TranscriptRepo, j JobRepo) *Handler {
	return &Handler{transcriptRepo: t, jobRepo: j}
}

type StatsResponse struct {
	Videos int `json:"videos"`
	Jobs   int `json:"jobs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vCount, err := h.transcriptRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count videos", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count videos", http.StatusInternalServerError)
		return
	}

	jCount, err := h.jobRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count jobs", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count jobs", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{Videos: vCount, Jobs: jCount}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
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
