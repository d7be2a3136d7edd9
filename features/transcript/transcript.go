package transcript

import (
	"context"
	"errors"
)

// Pipeline status values for a video record. Happy path is
// INIT → IN_PROGRESS → COMPLETE; any stage may end in FAILED.
const (
	StatusInit       = "INIT"
	StatusInProgress = "IN_PROGRESS"
	StatusComplete   = "COMPLETE"
	StatusFailed     = "FAILED"
)

var ErrNoFieldsToUpdate = errors.New("at least one of transcript or status must be provided")

// VideoRecord is the durable state for one video id. Transcript is non-empty
// exactly when Status is COMPLETE. Only the pipeline worker mutates it.
type VideoRecord struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript,omitempty"`
	Status     string `json:"status"`
}

type Repository interface {
	Get(ctx context.Context, videoID string) (*VideoRecord, error)
	// Upsert inserts or partially updates a record; nil fields are left
	// untouched. Runs as a single statement.
	Upsert(ctx context.Context, videoID string, transcript, status *string) error
	// ClaimInit atomically inserts an INIT record for a never-seen video id.
	// Exactly one concurrent caller wins; losers attach to existing work.
	ClaimInit(ctx context.Context, videoID string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// JobRegistry is the slice of the job store the pipeline and dispatcher need.
type JobRegistry interface {
	Ensure(ctx context.Context, jobID, videoID string) error
	StatusFor(ctx context.Context, jobID string) (string, error)
}

// Extractor acquires the audio artifact for a URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (audioPath, title, videoID string, err error)
}

// Transcriber turns an audio artifact into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
