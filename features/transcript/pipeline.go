package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"tubetalk/internal/config"
)

// Pipeline runs the acquire→transcribe→persist sequence for one video id,
// driving the status state machine. Exactly one pipeline is active per video
// id; the dispatcher's claim guarantees it.
type Pipeline struct {
	repo        Repository
	jobs        JobRegistry
	extractor   Extractor
	transcriber Transcriber
	pub         EventPublisher
}

func NewPipeline(repo Repository, jobs JobRegistry, ex Extractor, tr Transcriber, pub EventPublisher) *Pipeline {
	return &Pipeline{
		repo:        repo,
		jobs:        jobs,
		extractor:   ex,
		transcriber: tr,
		pub:         pub,
	}
}

// Run executes the full pipeline. The INIT record was already written by the
// dispatcher's claim. Every failure path persists FAILED before returning,
// so status polling always observes a terminal state.
func (p *Pipeline) Run(ctx context.Context, jobID, url, videoID string) error {
	p.publishStatus(ctx, videoID, StatusInit)

	audioPath, title, extractedID, err := p.extractor.Extract(ctx, url)
	if err != nil {
		p.fail(ctx, videoID, err)
		return fmt.Errorf("extracting audio: %w", err)
	}
	if extractedID != "" && extractedID != videoID {
		// The extractor's id is authoritative for where the artifact landed,
		// but the claim key stays the resolver's id.
		slog.WarnContext(ctx, "extractor reported different video id", "resolved", videoID, "extracted", extractedID)
	}
	slog.InfoContext(ctx, "audio extracted", "video_id", videoID, "title", title, "path", audioPath)

	status := StatusInProgress
	if err := p.repo.Upsert(ctx, videoID, nil, &status); err != nil {
		p.fail(ctx, videoID, err)
		return fmt.Errorf("marking in progress: %w", err)
	}
	p.publishStatus(ctx, videoID, StatusInProgress)

	text, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		p.fail(ctx, videoID, err)
		return fmt.Errorf("transcribing audio: %w", err)
	}

	// Transcript and COMPLETE land in one upsert so the invariant
	// "transcript non-empty iff COMPLETE" holds at every point in time.
	complete := StatusComplete
	if err := p.repo.Upsert(ctx, videoID, &text, &complete); err != nil {
		p.fail(ctx, videoID, err)
		return fmt.Errorf("persisting transcript: %w", err)
	}
	p.publishStatus(ctx, videoID, StatusComplete)

	// The dispatcher already registered the mapping; this is the idempotent
	// backstop in case that write was lost.
	if err := p.jobs.Ensure(ctx, jobID, videoID); err != nil {
		return fmt.Errorf("registering job: %w", err)
	}

	slog.InfoContext(ctx, "transcript pipeline complete", "video_id", videoID, "job_id", jobID)
	return nil
}

func (p *Pipeline) fail(ctx context.Context, videoID string, cause error) {
	status := StatusFailed
	if err := p.repo.Upsert(ctx, videoID, nil, &status); err != nil {
		slog.ErrorContext(ctx, "failed to persist FAILED status", "video_id", videoID, "error", err, "cause", cause)
		return
	}
	p.publishStatus(ctx, videoID, StatusFailed)
}

func (p *Pipeline) publishStatus(ctx context.Context, videoID, status string) {
	if p.pub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"video_id": videoID,
		"status":   status,
	})
	if err := p.pub.Publish(config.TopicTranscriptStatus, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish status event", "video_id", videoID, "status", status, "error", err)
	}
}
