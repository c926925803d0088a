package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorgal/bankfeed/internal/ingest"
	"github.com/jmorgal/bankfeed/internal/ingest/client"
	"github.com/jmorgal/bankfeed/internal/intake"
)

func fastOptions() client.Options {
	return client.Options{PollInterval: time.Millisecond, PollAttempts: 60}
}

func TestClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/statements", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "abc-sav-csv", r.FormValue("template_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "data.csv", header.Filename)

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "date,amount\n2024-01-02,10.00\n", string(content))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "42", "status": "received"})
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	var reported []int

	jobID, err := c.Upload(context.Background(),
		payload("data.csv", "date,amount\n2024-01-02,10.00\n"),
		"abc-sav-csv",
		func(pct int) { reported = append(reported, pct) },
	)
	require.NoError(t, err)
	assert.Equal(t, "42", jobID)

	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1])

	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i], reported[i-1], "progress never decreases")
	}
}

func TestClient_Upload_StructuredError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "too large"})
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	_, err := c.Upload(context.Background(), payload("data.csv", "x"), "tmpl", nil)

	var transportErr *ingest.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	assert.Equal(t, "too large", transportErr.Message)
}

func TestClient_Upload_UnstructuredError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	_, err := c.Upload(context.Background(), payload("data.csv", "x"), "tmpl", nil)

	var transportErr *ingest.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "upload rejected with status 502", transportErr.Message)
}

func TestClient_Upload_MissingJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status": "received"}`))
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	_, err := c.Upload(context.Background(), payload("data.csv", "x"), "tmpl", nil)

	var transportErr *ingest.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, transportErr.Message, "no job id")
}

func TestClient_Poll_ParsedAfterN(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/statements/jobs/42", r.URL.Path)

		if calls.Add(1) < 3 {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "parsing"})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "parsed", "transaction_count": 17})
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	outcome, err := c.Poll(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 17, outcome.TransactionCount)
	assert.Equal(t, int64(3), calls.Load(), "polling stops at the first terminal status")
}

func TestClient_Poll_Failed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "error": "no statement header found"})
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	_, err := c.Poll(context.Background(), "42")

	var parseErr *ingest.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "no statement header found", parseErr.Message)
}

func TestClient_Poll_FailedWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed"})
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	_, err := c.Poll(context.Background(), "42")

	var parseErr *ingest.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "the server could not parse this file", parseErr.Message)
}

func TestClient_Poll_TimesOutAfterBudget(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "parsing"})
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	_, err := c.Poll(context.Background(), "42")

	var timeoutErr *ingest.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 60, timeoutErr.Attempts)
	assert.Equal(t, int64(60), calls.Load(), "the budget is exactly 60 attempts")
}

func TestClient_Poll_TransientFailuresConsumeAttempts(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Two dropped requests, then a terminal answer.
		if calls.Add(1) < 3 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "parsed", "transaction_count": 4})
	}))
	defer server.Close()

	c := client.New(server.URL, fastOptions())

	outcome, err := c.Poll(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 4, outcome.TransactionCount)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClient_Poll_NeverRecoversWithinBudget(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	c := client.New(server.URL, client.Options{PollInterval: time.Millisecond, PollAttempts: 5})

	_, err := c.Poll(context.Background(), "42")

	var timeoutErr *ingest.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, int64(5), calls.Load(), "request failures consume the attempt budget")
}

func TestClient_Poll_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "parsing"})
	}))
	defer server.Close()

	c := client.New(server.URL, client.Options{PollInterval: 50 * time.Millisecond, PollAttempts: 60})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	_, err := c.Poll(ctx, "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func payload(name, content string) intake.Payload {
	return intake.FromBytes(name, []byte(content))
}
