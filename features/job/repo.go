package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type Repository interface {
	// Ensure creates the job→video mapping with an empty history. It is
	// idempotent; an existing mapping is left untouched.
	Ensure(ctx context.Context, jobID, videoID string) error
	// AppendReply records one chat exchange. The append happens in a single
	// statement so concurrent appends to the same job cannot lose entries.
	AppendReply(ctx context.Context, jobID, videoID, reply string) error
	History(ctx context.Context, jobID string) ([]ContextEntry, error)
	VideoFor(ctx context.Context, jobID string) (string, error)
	StatusFor(ctx context.Context, jobID string) (string, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Ensure(ctx context.Context, jobID, videoID string) error {
	query := `INSERT INTO job_chat_context (job_id, video_id, context)
		VALUES ($1, $2, '[]'::jsonb)
		ON CONFLICT (job_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, jobID, videoID)
	return err
}

func (r *PostgresRepo) AppendReply(ctx context.Context, jobID, videoID, reply string) error {
	query := `INSERT INTO job_chat_context (job_id, video_id, context)
		VALUES ($1, $2, jsonb_build_array(jsonb_build_object('context', $3::text, 'timestamp', NOW())))
		ON CONFLICT (job_id) DO UPDATE
		SET context = job_chat_context.context || jsonb_build_array(
			jsonb_build_object('context', $3::text, 'timestamp', NOW())
		)`
	_, err := r.db.ExecContext(ctx, query, jobID, videoID, reply)
	return err
}

func (r *PostgresRepo) History(ctx context.Context, jobID string) ([]ContextEntry, error) {
	var raw []byte
	query := `SELECT context FROM job_chat_context WHERE job_id = $1`
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(&raw)
	if err == sql.ErrNoRows {
		return []ContextEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	entries := []ContextEntry{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decoding context history: %w", err)
		}
	}
	return entries, nil
}

func (r *PostgresRepo) VideoFor(ctx context.Context, jobID string) (string, error) {
	var videoID string
	query := `SELECT video_id FROM job_chat_context WHERE job_id = $1`
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(&videoID)
	return videoID, err
}

func (r *PostgresRepo) StatusFor(ctx context.Context, jobID string) (string, error) {
	var status string
	query := `SELECT vtm.status
		FROM job_chat_context jcc
		INNER JOIN video_transcript_mapping vtm ON jcc.video_id = vtm.video_id
		WHERE jcc.job_id = $1`
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(&status)
	return status, err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_chat_context`).Scan(&count)
	return count, err
}
