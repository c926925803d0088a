// Package ingest drives queued files through their full lifecycle: upload to
// the ingestion API, then status polling until the server reports a terminal
// parse result.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmorgal/bankfeed/internal/intake"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=ingest
type Uploader interface {
	// Upload submits the payload against a template and returns the
	// server-assigned job id. onProgress receives monotonically
	// non-decreasing percentages from 0 to 100 as bytes go out.
	Upload(ctx context.Context, payload intake.Payload, templateID string, onProgress func(pct int)) (string, error)
}

type StatusChecker interface {
	// Poll watches a job until the server reports a terminal state or the
	// attempt budget runs out. Parse failures and exhausted budgets are
	// returned as *ParseError and *TimeoutError respectively.
	Poll(ctx context.Context, jobID string) (Outcome, error)
}

// Outcome is the terminal result of a successfully parsed job.
type Outcome struct {
	TransactionCount int
}

// Summary aggregates the terminal outcomes currently in the queue.
type Summary struct {
	Succeeded    int
	Transactions int
}

// Service orchestrates uploads for a single intake queue. A file's
// uploading -> processing -> terminal sequence is fully linear; failures are
// funneled into that file's error state and never abort other files.
type Service struct {
	queue    *intake.Queue
	uploader Uploader
	checker  StatusChecker
}

func NewService(queue *intake.Queue, uploader Uploader, checker StatusChecker) *Service {
	return &Service{
		queue:    queue,
		uploader: uploader,
		checker:  checker,
	}
}

// UploadOne runs the full upload-and-poll cycle for the file at index i.
// It is a no-op unless the file is idle. The file ends in processing's
// terminal outcome, or in error with a message describing what went wrong.
func (s *Service) UploadOne(ctx context.Context, i int) {
	snap, ok := s.queue.File(i)
	if !ok {
		return
	}

	if !s.queue.StartUpload(i) {
		return
	}

	jobID, err := s.uploader.Upload(ctx, snap.Payload, snap.TemplateID, func(pct int) {
		s.queue.SetProgress(i, pct)
	})
	if err != nil {
		s.queue.Fail(i, failureMessage(err))
		return
	}

	s.queue.StartProcessing(i, jobID)

	outcome, err := s.checker.Poll(ctx, jobID)
	if err != nil {
		s.queue.Fail(i, failureMessage(err))
		return
	}

	s.queue.Complete(i, outcome.TransactionCount)
}

// UploadAll drives UploadOne for every idle file, strictly sequentially in
// queue order: one file's full cycle, including its poll window, completes
// before the next begins. This bounds concurrent load on the ingestion
// endpoint at the cost of wall-clock time for large batches.
func (s *Service) UploadAll(ctx context.Context) {
	for i, snap := range s.queue.Files() {
		if snap.Status != intake.StatusIdle {
			continue
		}

		s.UploadOne(ctx, i)
	}
}

// Summary recomputes the success count and summed transaction count from the
// current queue contents.
func (s *Service) Summary() Summary {
	var sum Summary

	for _, snap := range s.queue.Files() {
		if snap.Status == intake.StatusSuccess {
			sum.Succeeded++
			sum.Transactions += snap.TransactionCount
		}
	}

	return sum
}

// failureMessage extracts the message recorded on a failed file. Transport
// and parse errors carry the server's own wording; it is preserved verbatim.
func failureMessage(err error) string {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Message
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Message
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return fmt.Sprintf("parsing did not finish after %d status checks", timeoutErr.Attempts)
	}

	return err.Error()
}
