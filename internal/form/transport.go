// internal/form/transport.go
//
// Adept Sign-in – Forms subsystem: submission transports.
//
// Context
//   Once the fields validate, the controller hands a Credentials value to a
//   Submitter.  Two strategies exist and the choice is made once, when the
//   controller is built:
//
//     •  a caller-supplied handler (HandlerFunc or any Submitter), or
//     •  HTTPSubmitter, which POSTs JSON to /api/auth/login.
//
//   A Submitter reports failure by returning an error whose Error() text is
//   the message shown to the user.
//
// Notes
//   •  The HTTP body on failure is optional JSON {"message": "..."}.  A
//      missing, empty, or unparseable body maps to “Login failed”.
//   •  No timeout is applied here.  Callers bound the call through ctx or the
//      http.Client they pass in.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// LoginPath is the fixed authentication endpoint.
const LoginPath = "/api/auth/login"

// MsgLoginFailed is used when a non-2xx response carries no usable message.
const MsgLoginFailed = "Login failed"

// maxErrorBody caps how much of a failure response we read.
const maxErrorBody = 64 << 10

// Submitter dispatches one sign-in attempt.
type Submitter interface {
	Submit(ctx context.Context, c Credentials) error
}

// HandlerFunc adapts an ordinary function to Submitter.
type HandlerFunc func(ctx context.Context, c Credentials) error

// Submit calls f(ctx, c).
func (f HandlerFunc) Submit(ctx context.Context, c Credentials) error { return f(ctx, c) }

// -----------------------------------------------------------------------------
// HTTP strategy
// -----------------------------------------------------------------------------

// HTTPSubmitter posts Credentials as JSON to a login endpoint.
type HTTPSubmitter struct {
	client *http.Client
	url    string
}

// NewHTTPSubmitter builds a submitter for baseURL + LoginPath.  A nil client
// means http.DefaultClient.
func NewHTTPSubmitter(baseURL string, client *http.Client) *HTTPSubmitter {
	return NewHTTPSubmitterURL(strings.TrimRight(baseURL, "/")+LoginPath, client)
}

// NewHTTPSubmitterURL builds a submitter for an absolute endpoint URL.
func NewHTTPSubmitterURL(url string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSubmitter{client: client, url: url}
}

// URL returns the endpoint the submitter posts to.
func (s *HTTPSubmitter) URL() string { return s.url }

// Submit implements Submitter.
func (s *HTTPSubmitter) Submit(ctx context.Context, c Credentials) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, res.Body) // drain for keep-alive reuse
		return nil
	}

	return &TransportError{
		Status:  res.StatusCode,
		Message: failureMessage(res.Body),
	}
}

// failureMessage extracts {"message": "..."} or falls back to MsgLoginFailed.
func failureMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return MsgLoginFailed
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Message == "" {
		return MsgLoginFailed
	}
	return out.Message
}

// -----------------------------------------------------------------------------
// Error type
// -----------------------------------------------------------------------------

// TransportError is a non-2xx response from the login endpoint.
type TransportError struct {
	Status  int    // HTTP status code
	Message string // user-facing message
}

func (te *TransportError) Error() string { return te.Message }

// IsTransportError reports whether err is (or wraps) a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
