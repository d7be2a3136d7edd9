package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tubetalk/features/job"
	"tubetalk/features/transcript"
	"tubetalk/internal/text"
)

// ProcessingReply is the interim answer returned while the transcript
// pipeline is still running. It is a normal reply, not an error, and it is
// not recorded in the chat history.
const ProcessingReply = "Sorry, the video transcript is still processing."

var ErrJobNotFound = errors.New("job not found")

type TranscriptStore interface {
	Get(ctx context.Context, videoID string) (*transcript.VideoRecord, error)
}

type JobStore interface {
	VideoFor(ctx context.Context, jobID string) (string, error)
	AppendReply(ctx context.Context, jobID, videoID, reply string) error
	History(ctx context.Context, jobID string) ([]job.ContextEntry, error)
}

// Completer is the language-model collaborator.
type Completer interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Service answers a user message against a job's transcript by querying the
// model once per transcript segment and compacting the partial answers into
// one reply.
type Service struct {
	jobs        JobStore
	transcripts TranscriptStore
	llm         Completer
	budget      int
	overlap     int
}

func NewService(jobs JobStore, transcripts TranscriptStore, llm Completer, budget, overlap int) *Service {
	return &Service{
		jobs:        jobs,
		transcripts: transcripts,
		llm:         llm,
		budget:      budget,
		overlap:     overlap,
	}
}

func (s *Service) Reply(ctx context.Context, jobID, message string) (string, error) {
	videoID, err := s.jobs.VideoFor(ctx, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrJobNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving job: %w", err)
	}

	rec, err := s.transcripts.Get(ctx, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return ProcessingReply, nil
	}
	if err != nil {
		return "", fmt.Errorf("loading transcript: %w", err)
	}
	if rec.Transcript == "" {
		return ProcessingReply, nil
	}

	segments := text.Segment(rec.Transcript, s.budget, s.overlap)
	slog.InfoContext(ctx, "answering over transcript", "job_id", jobID, "video_id", videoID, "segments", len(segments))

	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		answer, err := s.llm.Chat(ctx, segmentPrompt(seg), message)
		if err != nil {
			return "", fmt.Errorf("querying segment %d of %d: %w", i+1, len(segments), err)
		}
		parts = append(parts, answer)
	}
	running := strings.Join(parts, " ")

	// Second pass: the concatenated partial answers become the grounding
	// context, producing one compacted reply.
	final, err := s.llm.Chat(ctx, running, message)
	if err != nil {
		return "", fmt.Errorf("compacting answer: %w", err)
	}

	if err := s.jobs.AppendReply(ctx, jobID, videoID, final); err != nil {
		return "", fmt.Errorf("recording reply: %w", err)
	}

	return final, nil
}

func (s *Service) History(ctx context.Context, jobID string) ([]job.ContextEntry, error) {
	return s.jobs.History(ctx, jobID)
}

func segmentPrompt(segment string) string {
	return "You are a helpful assistant who answers questions based on the following transcript. " +
		"Be attentive and answer based on the provided context. Here's the transcript:\n" + segment
}
