// Package intake holds the in-memory queue of files submitted for ingestion
// and the per-file state machine that tracks each one from idle through
// upload and parsing to a terminal state.
package intake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jmorgal/bankfeed/internal/catalog"
)

var (
	// ErrNoActiveTemplate is returned when files are added before the
	// selection cascade resolves a template.
	ErrNoActiveTemplate = errors.New("no active template selected")

	// ErrNotRemovable is returned when removing a file that is mid-upload or
	// mid-processing. Such files always run to a terminal state so the
	// server-side job is never orphaned without a client handle.
	ErrNotRemovable = errors.New("file is being uploaded or processed")
)

type file struct {
	payload          Payload
	templateID       string
	status           Status
	progress         int
	errorMessage     string
	jobID            string
	transactionCount int
}

// Snapshot is a read-only copy of one queue entry.
type Snapshot struct {
	Payload          Payload
	TemplateID       string
	Status           Status
	Progress         int
	ErrorMessage     string
	JobID            string
	TransactionCount int
}

// Queue is an ordered collection of submitted files. All mutation goes
// through its methods; every status change is checked against the state
// machine in status.go.
type Queue struct {
	mu    sync.Mutex
	files []*file
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add validates payloads against the active template and appends an idle
// entry for each one whose file extension matches the template's format
// (case-insensitive), preserving the caller's ordering. It returns the names
// of payloads rejected for a format mismatch so the caller can report them.
// A nil template rejects the whole submission with ErrNoActiveTemplate.
func (q *Queue) Add(tmpl *catalog.Template, payloads ...Payload) ([]string, error) {
	if tmpl == nil {
		return nil, ErrNoActiveTemplate
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var rejected []string

	for _, p := range payloads {
		if !tmpl.Format.Matches(p.Name()) {
			rejected = append(rejected, p.Name())
			continue
		}

		q.files = append(q.files, &file{
			payload:    p,
			templateID: tmpl.ID,
			status:     StatusIdle,
		})
	}

	return rejected, nil
}

// Remove deletes the entry at i. Only idle and error entries are removable.
func (q *Queue) Remove(i int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil {
		return err
	}

	if f.status != StatusIdle && f.status != StatusError {
		return ErrNotRemovable
	}

	q.files = append(q.files[:i], q.files[i+1:]...)

	return nil
}

// Retry reopens an error entry: progress, error message and job id are
// cleared and the file returns to idle with its original payload intact.
// Invoking it on any other status is a no-op.
func (q *Queue) Retry(i int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil {
		return err
	}

	if !f.status.CanTransitionTo(StatusIdle) {
		return nil
	}

	f.status = StatusIdle
	f.progress = 0
	f.errorMessage = ""
	f.jobID = ""
	f.transactionCount = 0

	return nil
}

// StartUpload transitions the entry at i from idle to uploading. It returns
// false when the entry does not exist or is not idle, making it safe to call
// without checking status first.
func (q *Queue) StartUpload(i int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil || !f.status.CanTransitionTo(StatusUploading) {
		return false
	}

	f.status = StatusUploading
	f.progress = 0

	return true
}

// SetProgress records upload progress for the entry at i. Progress is only
// meaningful while uploading and never decreases.
func (q *Queue) SetProgress(i int, pct int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil || f.status != StatusUploading {
		return
	}

	if pct < f.progress {
		return
	}

	if pct > 100 {
		pct = 100
	}

	f.progress = pct
}

// StartProcessing transitions the entry at i from uploading to processing
// and records the server-assigned job id.
func (q *Queue) StartProcessing(i int, jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil || !f.status.CanTransitionTo(StatusProcessing) {
		return
	}

	f.status = StatusProcessing
	f.jobID = jobID
}

// Complete transitions the entry at i from processing to success with the
// number of transactions the parser produced.
func (q *Queue) Complete(i int, transactionCount int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil || f.status != StatusProcessing {
		return
	}

	f.status = StatusSuccess
	f.transactionCount = transactionCount
}

// Fail transitions the entry at i to error with the given message. It is
// valid from uploading (transport failure) and processing (parse failure or
// poll timeout).
func (q *Queue) Fail(i int, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil || !f.status.CanTransitionTo(StatusError) {
		return
	}

	f.status = StatusError
	f.errorMessage = message
}

// Len returns the number of queued files.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.files)
}

// File returns a snapshot of the entry at i.
func (q *Queue) File(i int) (Snapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.file(i)
	if err != nil {
		return Snapshot{}, false
	}

	return snapshot(f), true
}

// Files returns snapshots of all entries in queue order.
func (q *Queue) Files() []Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Snapshot, len(q.files))
	for i, f := range q.files {
		out[i] = snapshot(f)
	}

	return out
}

func (q *Queue) file(i int) (*file, error) {
	if i < 0 || i >= len(q.files) {
		return nil, fmt.Errorf("no file at index %d", i)
	}

	return q.files[i], nil
}

func snapshot(f *file) Snapshot {
	return Snapshot{
		Payload:          f.payload,
		TemplateID:       f.templateID,
		Status:           f.status,
		Progress:         f.progress,
		ErrorMessage:     f.errorMessage,
		JobID:            f.jobID,
		TransactionCount: f.transactionCount,
	}
}
