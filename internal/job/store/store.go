package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmorgal/bankfeed/internal/job"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectJobColumns = `
	id, template_id, file_name, status, transaction_count, error_message, created_at, updated_at
`

func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	query := `
		INSERT INTO ingest_jobs (template_id, file_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		j.TemplateID,
		j.FileName,
		j.Status,
	).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating job: %w", err)
	}

	return nil
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	query := `SELECT ` + selectJobColumns + ` FROM ingest_jobs WHERE id = $1`

	var (
		j         job.Job
		statusStr string
		errMsg    sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.TemplateID, &j.FileName, &statusStr, &j.TransactionCount, &errMsg,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job %s not found", id)
		}

		return nil, fmt.Errorf("getting job: %w", err)
	}

	j.Status = job.Status(statusStr)
	j.ErrorMessage = errMsg.String

	return &j, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status job.Status) error {
	query := `UPDATE ingest_jobs SET status = $2, updated_at = NOW() WHERE id = $1`

	if _, err := s.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("updating job status: %w", err)
	}

	return nil
}

func (s *Store) MarkParsed(ctx context.Context, id uuid.UUID, transactionCount int) error {
	query := `
		UPDATE ingest_jobs
		SET status = $2, transaction_count = $3, error_message = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id, job.StatusParsed, transactionCount); err != nil {
		return fmt.Errorf("marking job parsed: %w", err)
	}

	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE ingest_jobs
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id, job.StatusFailed, message); err != nil {
		return fmt.Errorf("marking job failed: %w", err)
	}

	return nil
}
