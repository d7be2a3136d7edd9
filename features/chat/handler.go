package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tubetalk/features/job"
	"tubetalk/internal/adapter/ollama"
	"tubetalk/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		JobID   string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.JobID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "job_id is required", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "message is required", http.StatusBadRequest)
		return
	}

	reply, err := h.service.Reply(r.Context(), req.JobID, req.Message)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Job not found", http.StatusNotFound)
			return
		}

		var statusErr *ollama.StatusError
		if errors.As(err, &statusErr) || errors.Is(err, ollama.ErrMalformedFragment) {
			slog.ErrorContext(r.Context(), "completion call failed", "error", err, "job_id", req.JobID)
			h.writeError(r.Context(), w, "LLM_ERROR", "language model request failed", http.StatusBadGateway)
			return
		}

		slog.ErrorContext(r.Context(), "chat failed", "error", err, "job_id", req.JobID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"reply": reply}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	entries, err := h.service.History(r.Context(), jobID)
	if err != nil {
		slog.ErrorContext(r.Context(), "history lookup failed", "error", err, "job_id", jobID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []job.ContextEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": entries,
		"meta": map[string]int{"count": len(entries)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
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
