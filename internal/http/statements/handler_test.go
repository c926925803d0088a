package statements_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorgal/bankfeed/internal/http/statements"
	"github.com/jmorgal/bankfeed/internal/job"
)

type stubService struct {
	submit func(ctx context.Context, templateID, fileName string, r io.Reader) (*job.Job, error)
	status func(ctx context.Context, id uuid.UUID) (*job.Job, error)
}

func (s *stubService) Submit(ctx context.Context, templateID, fileName string, r io.Reader) (*job.Job, error) {
	return s.submit(ctx, templateID, fileName, r)
}

func (s *stubService) Status(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	return s.status(ctx, id)
}

func newServer(t *testing.T, svc statements.Service) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/api/v1/statements", statements.NewHandler(svc).Routes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func multipartBody(t *testing.T, templateID, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, w.WriteField("template_id", templateID))
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body
}

func TestHandler_Submit(t *testing.T) {
	jobID := uuid.New()

	svc := &stubService{
		submit: func(_ context.Context, templateID, fileName string, r io.Reader) (*job.Job, error) {
			assert.Equal(t, "abc-savings-csv", templateID)
			assert.Equal(t, "jan.csv", fileName)

			content, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "Date,Amount\n", string(content))

			return &job.Job{ID: jobID, Status: job.StatusReceived}, nil
		},
	}

	srv := newServer(t, svc)

	body, contentType := multipartBody(t, "abc-savings-csv", "jan.csv", "Date,Amount\n")
	resp, err := http.Post(srv.URL+"/api/v1/statements", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decodeBody(t, resp)
	assert.Equal(t, jobID.String(), got["job_id"])
	assert.Equal(t, "received", got["status"])
}

func TestHandler_Submit_MissingTemplateID(t *testing.T) {
	svc := &stubService{
		submit: func(context.Context, string, string, io.Reader) (*job.Job, error) {
			t.Fatal("submit should not be called")
			return nil, nil
		},
	}

	srv := newServer(t, svc)

	body, contentType := multipartBody(t, "", "jan.csv", "x")
	resp, err := http.Post(srv.URL+"/api/v1/statements", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "template_id field is required", decodeBody(t, resp)["error"])
}

func TestHandler_Submit_MissingFile(t *testing.T) {
	svc := &stubService{
		submit: func(context.Context, string, string, io.Reader) (*job.Job, error) {
			t.Fatal("submit should not be called")
			return nil, nil
		},
	}

	srv := newServer(t, svc)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("template_id", "abc-savings-csv"))
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/v1/statements", w.FormDataContentType(), &buf)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "file field is required", decodeBody(t, resp)["error"])
}

func TestHandler_Submit_UnknownTemplate(t *testing.T) {
	svc := &stubService{
		submit: func(context.Context, string, string, io.Reader) (*job.Job, error) {
			return nil, errors.New(`unknown template "nope"`)
		},
	}

	srv := newServer(t, svc)

	body, contentType := multipartBody(t, "nope", "jan.csv", "x")
	resp, err := http.Post(srv.URL+"/api/v1/statements", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `unknown template "nope"`, decodeBody(t, resp)["error"])
}

func TestHandler_Status(t *testing.T) {
	jobID := uuid.New()

	svc := &stubService{
		status: func(_ context.Context, id uuid.UUID) (*job.Job, error) {
			assert.Equal(t, jobID, id)

			return &job.Job{
				ID:               jobID,
				Status:           job.StatusParsed,
				TransactionCount: 17,
			}, nil
		},
	}

	srv := newServer(t, svc)

	resp, err := http.Get(srv.URL + "/api/v1/statements/jobs/" + jobID.String())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody(t, resp)
	assert.Equal(t, "parsed", got["status"])
	assert.Equal(t, float64(17), got["transaction_count"])
}

func TestHandler_Status_Failed(t *testing.T) {
	jobID := uuid.New()

	svc := &stubService{
		status: func(context.Context, uuid.UUID) (*job.Job, error) {
			return &job.Job{
				ID:           jobID,
				Status:       job.StatusFailed,
				ErrorMessage: "statement contains no transactions",
			}, nil
		},
	}

	srv := newServer(t, svc)

	resp, err := http.Get(srv.URL + "/api/v1/statements/jobs/" + jobID.String())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody(t, resp)
	assert.Equal(t, "failed", got["status"])
	assert.Equal(t, "statement contains no transactions", got["error"])
}

func TestHandler_Status_InvalidID(t *testing.T) {
	svc := &stubService{
		status: func(context.Context, uuid.UUID) (*job.Job, error) {
			t.Fatal("status should not be called")
			return nil, nil
		},
	}

	srv := newServer(t, svc)

	resp, err := http.Get(srv.URL + "/api/v1/statements/jobs/not-a-uuid")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid job id", decodeBody(t, resp)["error"])
}

func TestHandler_Status_NotFound(t *testing.T) {
	svc := &stubService{
		status: func(context.Context, uuid.UUID) (*job.Job, error) {
			return nil, errors.New("job not found")
		},
	}

	srv := newServer(t, svc)

	resp, err := http.Get(srv.URL + "/api/v1/statements/jobs/" + uuid.NewString())
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "job not found", decodeBody(t, resp)["error"])
}
