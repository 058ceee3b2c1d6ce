package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Predefined errors
var (
	// ErrNotSignedIn is returned when an operation requires a prior SignIn
	ErrNotSignedIn = errors.New("server: not signed in")

	// ErrProjectNotFound is returned when no project matches the requested name
	ErrProjectNotFound = errors.New("server: project not found")

	// ErrJobFailed is returned when a server job finishes unsuccessfully
	ErrJobFailed = errors.New("server: job failed")
)

// APIError is an error response decoded from the server's JSON error body.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Summary    string `json:"summary"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server: %d %s: %s (%s)", e.StatusCode, e.Code, e.Summary, e.Detail)
}

// errorBody is the envelope the server wraps error payloads in.
type errorBody struct {
	Error APIError `json:"error"`
}

func checkStatusCodeOK(resp *http.Response) error {
	return checkStatusCode(resp, http.StatusOK)
}

// checkStatusCode verifies the response status and decodes the JSON error
// body on mismatch. An undecodable body falls back to the raw text.
func checkStatusCode(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("server: %d: failed to read error body: %w", resp.StatusCode, err)
	}
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Code == "" {
		return fmt.Errorf("server: %d: %s", resp.StatusCode, string(data))
	}
	body.Error.StatusCode = resp.StatusCode
	return &body.Error
}

// sneakyBodyClose closes the body and ignores the error.
func sneakyBodyClose(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
