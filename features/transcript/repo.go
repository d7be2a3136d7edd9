package transcript

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context, videoID string) (*VideoRecord, error) {
	rec := &VideoRecord{}
	var transcript sql.NullString
	query := `SELECT video_id, transcript, status FROM video_transcript_mapping WHERE video_id = $1`
	err := r.db.QueryRowContext(ctx, query, videoID).Scan(&rec.VideoID, &transcript, &rec.Status)
	if err != nil {
		return nil, err
	}
	rec.Transcript = transcript.String
	return rec, nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, videoID string, transcript, status *string) error {
	if transcript == nil && status == nil {
		return ErrNoFieldsToUpdate
	}

	var t, s sql.NullString
	if transcript != nil {
		t = sql.NullString{String: *transcript, Valid: true}
	}
	if status != nil {
		s = sql.NullString{String: *status, Valid: true}
	}

	// COALESCE keeps columns omitted by the caller untouched on update.
	query := `INSERT INTO video_transcript_mapping (video_id, transcript, status)
		VALUES ($1, $2, COALESCE($3, 'INIT'))
		ON CONFLICT (video_id) DO UPDATE SET
			transcript = COALESCE($2, video_transcript_mapping.transcript),
			status     = COALESCE($3, video_transcript_mapping.status)`
	_, err := r.db.ExecContext(ctx, query, videoID, t, s)
	return err
}

func (r *PostgresRepo) ClaimInit(ctx context.Context, videoID string) (bool, error) {
	query := `INSERT INTO video_transcript_mapping (video_id, status)
		VALUES ($1, 'INIT')
		ON CONFLICT (video_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, videoID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM video_transcript_mapping`).Scan(&count)
	return count, err
}
