package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"tubetalk/features/chat"
	"tubetalk/features/job"
	"tubetalk/features/stats"
	"tubetalk/features/transcript"
	"tubetalk/internal/adapter/ollama"
	"tubetalk/internal/adapter/whisper"
	"tubetalk/internal/adapter/ytdlp"
	"tubetalk/internal/config"
	"tubetalk/internal/middleware"
)

// EventPublisher matches *nsq.Producer; an interface here keeps wiring
// testable without a broker.
type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler           http.Handler
	TranscriptService *transcript.Service

	port int
}

func New(cfg *config.Config, db *sql.DB, pub EventPublisher) (*App, error) {
	// Repositories
	transcriptRepo := transcript.NewPostgresRepo(db)
	jobRepo := job.NewPostgresRepo(db)

	// Collaborators
	extractor := ytdlp.NewExtractor(cfg.YtdlpPath, cfg.AudioDir)
	transcriber := whisper.NewClient(cfg.WhisperURL, cfg.WhisperModel)
	llm := ollama.NewClient(cfg.OllamaAPI, cfg.OllamaModel)

	// Feature: Transcript (pipeline + dispatcher)
	pipeline := transcript.NewPipeline(transcriptRepo, jobRepo, &extractorAdapter{ex: extractor}, transcriber, pub)
	transcriptService := transcript.NewService(transcriptRepo, jobRepo, pipeline)
	transcriptHandler := transcript.NewHandler(transcriptService)

	// Feature: Chat
	chatService := chat.NewService(jobRepo, transcriptRepo, llm, cfg.ChunkBudget, cfg.ChunkOverlap)
	chatHandler := chat.NewHandler(chatService)

	// Feature: Stats
	statsHandler := stats.NewHandler(transcriptRepo, jobRepo)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()

	mux.Handle("POST /submit", middleware.CorrelationID(enableCORS(transcriptHandler.Submit)))
	mux.Handle("GET /status/{job_id}", middleware.CorrelationID(enableCORS(transcriptHandler.Status)))

	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Chat)))
	mux.Handle("GET /chat/{job_id}/history", middleware.CorrelationID(enableCORS(chatHandler.History)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:           mux,
		TranscriptService: transcriptService,
		port:              cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		// Let launched pipelines write their terminal status before exit.
		a.TranscriptService.Wait()
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// extractorAdapter bridges the ytdlp client to the pipeline's Extractor
// interface.
type extractorAdapter struct {
	ex *ytdlp.Extractor
}

func (a *extractorAdapter) Extract(ctx context.Context, url string) (string, string, string, error) {
	m, err := a.ex.Extract(ctx, url)
	if err != nil {
		return "", "", "", err
	}
	return m.Path, m.Title, m.VideoID, nil
}
