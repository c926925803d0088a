// Package job owns the server side of the ingestion pipeline: accepted
// submissions become persisted jobs, a background worker parses them, and
// the status endpoint reads the result back out.
package job

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmorgal/bankfeed/internal/catalog"
)

// Status is the server-side lifecycle of a submission. Clients treat
// anything other than parsed or failed as still pending.
type Status string

const (
	StatusReceived Status = "received"
	StatusParsing  Status = "parsing"
	StatusParsed   Status = "parsed"
	StatusFailed   Status = "failed"
)

// Job records one submitted statement file and its parse outcome.
type Job struct {
	ID               uuid.UUID
	TemplateID       string
	FileName         string
	Status           Status
	TransactionCount int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Repository interface {
	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	MarkParsed(ctx context.Context, id uuid.UUID, transactionCount int) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

// Parser turns file content into a transaction count.
type Parser interface {
	Parse(tmpl catalog.Template, r io.Reader) (int, error)
}

// parseTimeout bounds one background parse run.
const parseTimeout = 2 * time.Minute

type Service struct {
	repo    Repository
	catalog *catalog.Catalog
	parser  Parser
}

func NewService(repo Repository, cat *catalog.Catalog, parser Parser) *Service {
	return &Service{
		repo:    repo,
		catalog: cat,
		parser:  parser,
	}
}

// Submit validates the template, reads the uploaded content, persists a new
// job and kicks off parsing in the background. The returned job is in the
// received state; callers observe progress through Status.
func (s *Service) Submit(ctx context.Context, templateID, fileName string, r io.Reader) (*Job, error) {
	tmpl, ok := s.catalog.TemplateByID(templateID)
	if !ok {
		return nil, fmt.Errorf("unknown template %q", templateID)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	j := &Job{
		TemplateID: templateID,
		FileName:   fileName,
		Status:     StatusReceived,
	}

	if err := s.repo.CreateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	go s.parse(j.ID, tmpl, content)

	return j, nil
}

// Status returns the current state of a job.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

// parse runs on its own goroutine with a fresh context; the submission
// request has usually completed by the time parsing finishes.
func (s *Service) parse(id uuid.UUID, tmpl catalog.Template, content []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
	defer cancel()

	if err := s.repo.UpdateStatus(ctx, id, StatusParsing); err != nil {
		slog.Error("failed to mark job parsing", "job_id", id, "error", err)
		return
	}

	count, err := s.parser.Parse(tmpl, bytes.NewReader(content))
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, id, err.Error()); markErr != nil {
			slog.Error("failed to mark job failed", "job_id", id, "error", markErr)
		}

		return
	}

	if err := s.repo.MarkParsed(ctx, id, count); err != nil {
		slog.Error("failed to mark job parsed", "job_id", id, "error", err)
		return
	}

	slog.Info("statement parsed", "job_id", id, "template_id", tmpl.ID, "transactions", count)
}
