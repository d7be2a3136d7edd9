package config

const (
	// TopicTranscriptStatus is the NSQ topic carrying pipeline status
	// transitions (INIT, IN_PROGRESS, COMPLETE, FAILED) per video.
	TopicTranscriptStatus = "transcript.status"
)
