// Package client talks to the ingestion API over HTTP: multipart statement
// submission with byte-level progress, and bounded job status polling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jmorgal/bankfeed/internal/ingest"
	"github.com/jmorgal/bankfeed/internal/intake"
)

const (
	defaultPollInterval = time.Second
	defaultPollAttempts = 60
	defaultTimeout      = 2 * time.Minute
)

// Options tunes the client. Zero values fall back to the defaults: a 1
// second poll interval, 60 poll attempts, and a 2 minute request timeout.
type Options struct {
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollAttempts int
}

// Client implements ingest.Uploader and ingest.StatusChecker against the
// ingestion API. It performs no retries of its own; retry is a
// user-initiated, queue-level action.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
	pollAttempts int
}

// New creates a client for the given API base URL.
func New(baseURL string, opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         opts.HTTPClient,
		pollInterval: opts.PollInterval,
		pollAttempts: opts.PollAttempts,
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}

	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}

	if c.pollAttempts <= 0 {
		c.pollAttempts = defaultPollAttempts
	}

	return c
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Upload submits the payload and template id as a multipart POST and returns
// the server-assigned job id. onProgress receives percentages from 0 to 100
// as the request body is transmitted; values never decrease.
func (c *Client) Upload(ctx context.Context, payload intake.Payload, templateID string, onProgress func(pct int)) (string, error) {
	body, contentType, err := encodeSubmission(payload, templateID)
	if err != nil {
		return "", err
	}

	reader := &progressReader{
		r:          bytes.NewReader(body),
		total:      int64(len(body)),
		onProgress: onProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/statements", reader)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &ingest.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ingest.TransportError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(resp),
		}
	}

	var created submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || created.JobID == "" {
		return "", &ingest.TransportError{
			StatusCode: resp.StatusCode,
			Message:    "server accepted the upload but returned no job id",
		}
	}

	return created.JobID, nil
}

func encodeSubmission(payload intake.Payload, templateID string) ([]byte, string, error) {
	f, err := payload.Open()
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", payload.Name(), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", payload.Name())
	if err != nil {
		return nil, "", fmt.Errorf("encoding form: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", payload.Name(), err)
	}

	if err := mw.WriteField("template_id", templateID); err != nil {
		return nil, "", fmt.Errorf("encoding form: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("encoding form: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

// extractErrorMessage pulls the message out of a structured error body,
// falling back to a generic description of the status.
func extractErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var structured errorResponse
		if json.Unmarshal(body, &structured) == nil && structured.Error != "" {
			return structured.Error
		}
	}

	return fmt.Sprintf("upload rejected with status %d", resp.StatusCode)
}

// JobStatus is one status probe result, mirroring the status endpoint body.
type JobStatus struct {
	Status           string `json:"status"`
	TransactionCount int    `json:"transaction_count"`
	Error            string `json:"error"`
}

// Terminal external states. Anything else means the job is still pending.
const (
	statusParsed = "parsed"
	statusFailed = "failed"
)

// Poll watches the job until the server reports a terminal state, waiting
// one interval before each probe. A transient request failure consumes one
// attempt and polling continues, so intermittent network blips never reset
// the overall ceiling. When the attempt budget runs out without a terminal
// state, Poll returns *ingest.TimeoutError.
func (c *Client) Poll(ctx context.Context, jobID string) (ingest.Outcome, error) {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if attempt > 0 {
			timer.Reset(c.pollInterval)
		}

		select {
		case <-ctx.Done():
			return ingest.Outcome{}, ctx.Err()
		case <-timer.C:
		}

		status, err := c.CheckStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return ingest.Outcome{}, ctx.Err()
			}

			continue
		}

		switch status.Status {
		case statusParsed:
			return ingest.Outcome{TransactionCount: status.TransactionCount}, nil
		case statusFailed:
			message := status.Error
			if message == "" {
				message = "the server could not parse this file"
			}

			return ingest.Outcome{}, &ingest.ParseError{Message: message}
		}
	}

	return ingest.Outcome{}, &ingest.TimeoutError{Attempts: c.pollAttempts}
}

// CheckStatus performs a single status probe for a job.
func (c *Client) CheckStatus(ctx context.Context, jobID string) (JobStatus, error) {
	url := c.baseURL + "/api/v1/statements/jobs/" + jobID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("checking job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, fmt.Errorf("unexpected status code %d for job %s", resp.StatusCode, jobID)
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return JobStatus{}, fmt.Errorf("decoding job status: %w", err)
	}

	return status, nil
}

// progressReader reports cumulative read progress as a percentage of total.
// Reported values never decrease.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.onProgress != nil {
		pct := 100
		if p.total > 0 {
			pct = int(p.read * 100 / p.total)
		}

		if pct > p.last {
			p.last = pct
			p.onProgress(pct)
		}
	}

	return n, err
}
