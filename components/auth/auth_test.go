// components/auth/auth_test.go
//
// Tests for the development login endpoint.
//
// Context
// -------
// The component is mounted on a chi router inside an httptest server.  The
// handler tests post raw JSON; the end-to-end tests drive a form.Controller
// through its HTTP strategy, so the request and error contracts are checked
// from both sides.

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/adept-signin/internal/config"
	"github.com/yanizio/adept-signin/internal/form"
	"github.com/yanizio/adept-signin/internal/session"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "correct horse"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newServerWithLog(t, nil)
}

func newServerWithLog(t *testing.T, log *zap.SugaredLogger) *httptest.Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.MinCost)
	require.NoError(t, err)

	comp, err := New([]config.Account{{Email: demoEmail, PasswordHash: string(hash)}}, session.NewStore(), log)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/api/auth", comp.Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, client *http.Client, url, contentType, body string) (*http.Response, map[string]any) {
	t.Helper()
	res, err := client.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func TestLogin_Responses(t *testing.T) {
	srv := newServer(t)
	url := srv.URL + form.LoginPath

	tests := []struct {
		name     string
		ctype    string
		body     string
		wantCode int
		wantMsg  string
	}{
		{"success", "application/json", `{"email":"demo@example.com","password":"correct horse"}`, http.StatusOK, ""},
		{"email case-insensitive", "application/json; charset=utf-8", `{"email":"Demo@Example.com","password":"correct horse"}`, http.StatusOK, ""},
		{"wrong password", "application/json", `{"email":"demo@example.com","password":"wrong horse"}`, http.StatusUnauthorized, MsgBadCredentials},
		{"unknown email", "application/json", `{"email":"who@example.com","password":"correct horse"}`, http.StatusUnauthorized, MsgBadCredentials},
		{"invalid email shape", "application/json", `{"email":"nope","password":"correct horse"}`, http.StatusUnprocessableEntity, form.MsgEmailInvalid},
		{"short password", "application/json", `{"email":"demo@example.com","password":"abc"}`, http.StatusUnprocessableEntity, form.MsgPasswordTooShort},
		{"not json", "application/json", `email=demo`, http.StatusBadRequest, MsgMalformed},
		{"form encoded", "application/x-www-form-urlencoded", `email=demo`, http.StatusUnsupportedMediaType, MsgUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := post(t, srv.Client(), url, tt.ctype, tt.body)
			assert.Equal(t, tt.wantCode, res.StatusCode)
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["message"])
			}
		})
	}
}

func TestLogin_SessionRoundTrip(t *testing.T) {
	srv := newServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := srv.Client()
	client.Jar = jar

	res, _ := post(t, client, srv.URL+"/api/auth/login", "application/json",
		`{"email":"demo@example.com","password":"correct horse","remember":true}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Positive(t, cookie.MaxAge, "remember=true must yield a persistent cookie")

	got, err := client.Get(srv.URL + "/api/auth/session")
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(got.Body).Decode(&body))
	got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, demoEmail, body["email"])

	out, _ := post(t, client, srv.URL+"/api/auth/logout", "application/json", "")
	assert.Equal(t, http.StatusNoContent, out.StatusCode)

	after, err := client.Get(srv.URL + "/api/auth/session")
	require.NoError(t, err)
	after.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, after.StatusCode)
}

func TestController_AgainstEndpoint(t *testing.T) {
	srv := newServer(t)

	t.Run("success", func(t *testing.T) {
		c := form.NewController(form.WithHTTP(srv.URL, srv.Client()))
		c.SetEmail(demoEmail)
		c.SetPassword(demoPassword)

		res := c.Submit(context.Background())
		assert.Equal(t, form.OutcomeSuccess, res.Outcome)
		assert.Empty(t, c.Snapshot().ServerError)
	})

	t.Run("bad password surfaces server message", func(t *testing.T) {
		c := form.NewController(form.WithHTTP(srv.URL, srv.Client()))
		c.SetEmail(demoEmail)
		c.SetPassword("wrong horse")

		res := c.Submit(context.Background())
		assert.Equal(t, form.OutcomeTransportFailure, res.Outcome)
		st := c.Snapshot()
		assert.False(t, st.InFlight)
		assert.Equal(t, MsgBadCredentials, st.ServerError)
	})
}

func TestLogin_AuditLinesCarryUserAgent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv := newServerWithLog(t, zap.New(core).Sugar())

	const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0.6422.60 Safari/537.36"

	for _, pw := range []string{"wrong horse", demoPassword} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+form.LoginPath,
			strings.NewReader(`{"email":"demo@example.com","password":"`+pw+`"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", chromeMac)

		res, err := srv.Client().Do(req)
		require.NoError(t, err)
		res.Body.Close()
	}

	for _, msg := range []string{"login rejected", "login accepted"} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)

		fields := entries[0].ContextMap()
		assert.Equal(t, "Chrome", fields["browser"], msg)
		assert.Equal(t, "Desktop", fields["device"], msg)
		assert.Contains(t, fields, "os", msg)
		assert.Contains(t, fields, "remote", msg)
		assert.NotContains(t, fields, "password", msg)
	}
}
