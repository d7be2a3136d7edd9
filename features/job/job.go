package job

import "time"

// Job associates a client-facing submission token with a video id and an
// append-only chat history. Many jobs may share one video id; the mapping is
// set at creation and never reassigned.
type Job struct {
	ID      string         `json:"job_id"`
	VideoID string         `json:"video_id"`
	Context []ContextEntry `json:"context"`
}

// ContextEntry is one recorded chat exchange.
type ContextEntry struct {
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}
