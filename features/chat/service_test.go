package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubetalk/features/job"
	"tubetalk/features/transcript"
)

type fakeJobs struct {
	mu       sync.Mutex
	mappings map[string]string
	history  map[string][]job.ContextEntry
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		mappings: map[string]string{},
		history:  map[string][]job.ContextEntry{},
	}
}

func (j *fakeJobs) VideoFor(ctx context.Context, jobID string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	videoID, ok := j.mappings[jobID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return videoID, nil
}

func (j *fakeJobs) AppendReply(ctx context.Context, jobID, videoID, reply string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.history[jobID] = append(j.history[jobID], job.ContextEntry{Context: reply, Timestamp: time.Now()})
	return nil
}

func (j *fakeJobs) History(ctx context.Context, jobID string) ([]job.ContextEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.history[jobID], nil
}

type fakeTranscripts struct {
	records map[string]*transcript.VideoRecord
}

func (t *fakeTranscripts) Get(ctx context.Context, videoID string) (*transcript.VideoRecord, error) {
	rec, ok := t.records[videoID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rec, nil
}

// scriptedLLM answers "answer-N" per call and records every (system, user) pair.
type scriptedLLM struct {
	mu    sync.Mutex
	calls []struct{ system, user string }
	err   error
}

func (l *scriptedLLM) Chat(ctx context.Context, system, user string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	l.calls = append(l.calls, struct{ system, user string }{system, user})
	return fmt.Sprintf("answer-%d", len(l.calls)), nil
}

func completeRecord(videoID, text string) *fakeTranscripts {
	return &fakeTranscripts{records: map[string]*transcript.VideoRecord{
		videoID: {VideoID: videoID, Transcript: text, Status: transcript.StatusComplete},
	}}
}

func TestReply_AggregatesSegmentsInOrder(t *testing.T) {
	jobs := newFakeJobs()
	jobs.mappings["job-1"] = "abc123"

	// Budget 10, overlap 2 -> stride 8: three segments of this 20-char text.
	transcripts := completeRecord("abc123", "01234567890123456789")
	llm := &scriptedLLM{}
	svc := NewService(jobs, transcripts, llm, 10, 2)

	reply, err := svc.Reply(context.Background(), "job-1", "what is this about?")
	require.NoError(t, err)

	// 3 segment calls plus one reduction call.
	require.Len(t, llm.calls, 4)

	// Each segment call embeds its segment, in order, with the user message.
	assert.Contains(t, llm.calls[0].system, "0123456789")
	assert.Contains(t, llm.calls[1].system, "8901234567")
	assert.Contains(t, llm.calls[2].system, "6789")
	for _, c := range llm.calls {
		assert.Equal(t, "what is this about?", c.user)
	}

	// The reduction call's grounding is the space-joined partial answers.
	assert.Equal(t, "answer-1 answer-2 answer-3", llm.calls[3].system)

	// The final reply is the reduction answer, and it is recorded.
	assert.Equal(t, "answer-4", reply)
	history, _ := jobs.History(context.Background(), "job-1")
	require.Len(t, history, 1)
	assert.Equal(t, "answer-4", history[0].Context)
}

func TestReply_SingleSegmentTranscript(t *testing.T) {
	jobs := newFakeJobs()
	jobs.mappings["job-1"] = "abc123"
	transcripts := completeRecord("abc123", "short transcript")
	llm := &scriptedLLM{}
	svc := NewService(jobs, transcripts, llm, 6000, 1)

	reply, err := svc.Reply(context.Background(), "job-1", "question")
	require.NoError(t, err)

	// One segment call plus the reduction call.
	require.Len(t, llm.calls, 2)
	assert.Equal(t, "answer-2", reply)
}

func TestReply_StillProcessing(t *testing.T) {
	jobs := newFakeJobs()
	jobs.mappings["job-1"] = "abc123"
	transcripts := &fakeTranscripts{records: map[string]*transcript.VideoRecord{
		"abc123": {VideoID: "abc123", Status: transcript.StatusInProgress},
	}}
	llm := &scriptedLLM{}
	svc := NewService(jobs, transcripts, llm, 6000, 1)

	reply, err := svc.Reply(context.Background(), "job-1", "question")
	require.NoError(t, err)

	assert.Equal(t, ProcessingReply, reply)
	assert.Empty(t, llm.calls, "no completion call while processing")
	history, _ := jobs.History(context.Background(), "job-1")
	assert.Empty(t, history, "interim reply is not recorded")
}

func TestReply_JobNotFound(t *testing.T) {
	svc := NewService(newFakeJobs(), &fakeTranscripts{records: map[string]*transcript.VideoRecord{}}, &scriptedLLM{}, 6000, 1)

	_, err := svc.Reply(context.Background(), "missing", "question")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestReply_LLMFailurePropagates(t *testing.T) {
	jobs := newFakeJobs()
	jobs.mappings["job-1"] = "abc123"
	transcripts := completeRecord("abc123", "some transcript")
	llm := &scriptedLLM{err: errors.New("model unavailable")}
	svc := NewService(jobs, transcripts, llm, 6000, 1)

	_, err := svc.Reply(context.Background(), "job-1", "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")

	history, _ := jobs.History(context.Background(), "job-1")
	assert.Empty(t, history, "failed exchange is not recorded")
}

func TestReply_SequentialExchangesAccumulate(t *testing.T) {
	jobs := newFakeJobs()
	jobs.mappings["job-1"] = "abc123"
	transcripts := completeRecord("abc123", "some transcript")
	llm := &scriptedLLM{}
	svc := NewService(jobs, transcripts, llm, 6000, 1)

	const n = 5
	var replies []string
	for i := 0; i < n; i++ {
		reply, err := svc.Reply(context.Background(), "job-1", "question")
		require.NoError(t, err)
		replies = append(replies, reply)
	}

	history, err := jobs.History(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, history, n)
	for i, entry := range history {
		assert.Equal(t, replies[i], entry.Context, "history preserves call order")
	}
	assert.True(t, strings.HasPrefix(history[0].Context, "answer-"))
}
