// internal/middleware/middleware_test.go
//
// Unit-tests for the endpoint middleware: security headers, HTTPS redirect,
// and per-client rate limiting.

package middleware

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurity_SetsHeadersBeforeWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	Security(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestForceHTTPS(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		host     string
		tls      bool
		wantCode int
	}{
		{"disabled", false, "auth.example.com", false, http.StatusOK},
		{"remote plain http", true, "auth.example.com", false, http.StatusPermanentRedirect},
		{"already tls", true, "auth.example.com", true, http.StatusOK},
		{"localhost", true, "localhost:8080", false, http.StatusOK},
		{"loopback ip", true, "127.0.0.1:8080", false, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.Host = tt.host
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			rr := httptest.NewRecorder()
			ForceHTTPS(tt.enabled)(ok).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantCode == http.StatusPermanentRedirect {
				assert.Equal(t, "https://auth.example.com/api/auth/login", rr.Header().Get("Location"))
			}
		})
	}
}

func TestRateLimiter_PerClientBudget(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, 16)
	h := rl.Middleware(ok)

	hit := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:2222").Code)

	rr := hit("10.0.0.1:3333")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, MsgTooManyAttempts, body["message"])

	// Another address has its own bucket.
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1111").Code)
}
