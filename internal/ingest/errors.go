package ingest

import "fmt"

// TransportError reports a failed upload: a network error, a non-2xx
// response, or a success response missing the job id. Message is
// human-readable, taken from the response body when the server sent a
// structured error.
type TransportError struct {
	StatusCode int // 0 when the request never completed
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload failed (status %d): %s", e.StatusCode, e.Message)
	}

	return "upload failed: " + e.Message
}

// ParseError reports that the server finished parsing the file and declared
// it failed.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "parsing failed: " + e.Message
}

// TimeoutError reports that the status poll budget was exhausted without the
// job reaching a terminal state. The server-side job may still complete
// later; the client has stopped observing it.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no parse result after %d status checks", e.Attempts)
}
