package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"tubetalk/internal/videoid"
)

// Worker is the unit of background work the dispatcher launches.
type Worker interface {
	Run(ctx context.Context, jobID, url, videoID string) error
}

// Service is the job dispatcher: it decides whether a submission starts a new
// pipeline or attaches to existing work for the same video id.
type Service struct {
	repo   Repository
	jobs   JobRegistry
	worker Worker

	inflight sync.WaitGroup
}

func NewService(repo Repository, jobs JobRegistry, worker Worker) *Service {
	return &Service{repo: repo, jobs: jobs, worker: worker}
}

// Submit resolves the canonical video id, claims it if unseen, and returns a
// fresh job id immediately; it never blocks on pipeline completion. The claim
// is atomic at the storage layer, so concurrent submissions for the same URL
// launch exactly one pipeline and the rest attach.
func (s *Service) Submit(ctx context.Context, url string) (string, error) {
	jobID := uuid.New().String()

	videoID, err := videoid.Extract(url)
	if err != nil {
		return "", err
	}

	claimed, err := s.repo.ClaimInit(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("claiming video id: %w", err)
	}

	if claimed {
		// Register the mapping before launching so status polling and chat
		// resolve this job id while the pipeline is still running. The
		// pipeline re-ensures it on completion, so a failure here only
		// degrades polling until then.
		if err := s.jobs.Ensure(ctx, jobID, videoID); err != nil {
			slog.WarnContext(ctx, "failed to register job mapping", "video_id", videoID, "job_id", jobID, "error", err)
		}
		slog.InfoContext(ctx, "launching transcript pipeline", "video_id", videoID, "job_id", jobID)
		s.launch(jobID, url, videoID)
		return jobID, nil
	}

	// A record exists in some state; attach to it regardless of status and
	// reuse whatever pipeline already ran or is running.
	if err := s.jobs.Ensure(ctx, jobID, videoID); err != nil {
		return "", fmt.Errorf("attaching job: %w", err)
	}
	slog.InfoContext(ctx, "attached job to existing video record", "video_id", videoID, "job_id", jobID)
	return jobID, nil
}

// launch runs the worker on its own goroutine, decoupled from the request
// lifecycle. The returned error is observed and logged rather than dropped;
// the worker itself persists FAILED before returning.
func (s *Service) launch(jobID, url, videoID string) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.worker.Run(context.Background(), jobID, url, videoID); err != nil {
			slog.Error("transcript pipeline failed", "video_id", videoID, "job_id", jobID, "error", err)
		}
	}()
}

// StatusByJob resolves through the job→video mapping.
func (s *Service) StatusByJob(ctx context.Context, jobID string) (string, error) {
	return s.jobs.StatusFor(ctx, jobID)
}

// Wait blocks until all launched pipelines have finished. Used on shutdown
// and in tests.
func (s *Service) Wait() {
	s.inflight.Wait()
}
