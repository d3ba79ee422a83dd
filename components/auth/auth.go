// components/auth/auth.go
//
// Adept Sign-in authentication component – development login endpoint.
//
// Context
//   The sign-in client's HTTP strategy posts JSON credentials to
//   /api/auth/login.  This component implements that contract so the client
//   can be run and tested end to end without a real identity service.
//
// Routes (mounted at /api/auth)
//   POST /login    – 200 {"email","remember"} and a session cookie, or a
//                    {"message"} body with 400, 401, 415, or 422.
//   POST /logout   – 204, clears the session.
//   GET  /session  – 200 {"email"} for a live session, else 401.
//
// Notes
//   •  The endpoint re-runs form.Validate, so client and server agree on
//      field rules.
//   •  Unknown emails are checked against a dummy bcrypt hash so response
//      time does not reveal which addresses exist.
//   •  Credentials are never logged.  Audit lines carry the remote address
//      and a User-Agent summary (browser, os, device).
//
//------------------------------------------------------------------------------

package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/adept-signin/internal/config"
	"github.com/yanizio/adept-signin/internal/form"
	"github.com/yanizio/adept-signin/internal/metrics"
	"github.com/yanizio/adept-signin/internal/session"
	"github.com/yanizio/adept-signin/internal/ua"
)

// Endpoint messages.
const (
	MsgMalformed      = "Malformed request"
	MsgUnsupported    = "Content-Type must be application/json"
	MsgBadCredentials = "Invalid email or password"
	MsgNoSession      = "Not signed in"
)

// maxBody caps the login request body.
const maxBody = 1 << 20

// Component serves the login endpoint.
type Component struct {
	accounts  map[string][]byte // lower-cased email → bcrypt hash
	dummyHash []byte
	sessions  *session.Store
	log       *zap.SugaredLogger
}

// New builds the component from configured accounts.
func New(accounts []config.Account, sessions *session.Store, log *zap.SugaredLogger) (*Component, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c := &Component{
		accounts:  make(map[string][]byte, len(accounts)),
		dummyHash: dummy,
		sessions:  sessions,
		log:       log,
	}
	for _, a := range accounts {
		c.accounts[strings.ToLower(strings.TrimSpace(a.Email))] = []byte(a.PasswordHash)
	}
	return c, nil
}

/*────────────────────────────── routing ────────────────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Routes builds and returns the router mounted at “/api/auth”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", c.handleLoginPOST)
	r.Post("/logout", c.handleLogoutPOST)
	r.Get("/session", c.handleSessionGET)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, message(MsgUnsupported))
		return
	}

	var creds form.Credentials
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, message(MsgMalformed))
		return
	}

	if errs := form.Validate(creds.Email, creds.Password); !errs.Valid() {
		first, _ := errs.First()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": first,
			"errors":  errs,
		})
		return
	}

	if !c.checkCredentials(creds.Email, creds.Password) {
		c.requestLog(r).Infow("login rejected")
		writeJSON(w, http.StatusUnauthorized, message(MsgBadCredentials))
		return
	}

	if err := c.sessions.LoginUser(w, r, creds.Email, creds.Remember); err != nil {
		c.log.Errorw("session create failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, message(http.StatusText(http.StatusInternalServerError)))
		return
	}

	c.requestLog(r).Infow("login accepted", "remember", creds.Remember)
	writeJSON(w, http.StatusOK, map[string]any{
		"email":    creds.Email,
		"remember": creds.Remember,
	})
}

func (c *Component) handleLogoutPOST(w http.ResponseWriter, r *http.Request) {
	c.sessions.LogoutUser(w, r)
	metrics.EndpointRequestsTotal.WithLabelValues(strconv.Itoa(http.StatusNoContent)).Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (c *Component) handleSessionGET(w http.ResponseWriter, r *http.Request) {
	email, ok := c.sessions.CurrentEmail(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, message(MsgNoSession))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

/*──────────────────────── Credential check ────────────────────────────────*/

// checkCredentials compares password with the account's bcrypt hash.
func (c *Component) checkCredentials(email, password string) bool {
	hash, ok := c.accounts[strings.ToLower(email)]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(c.dummyHash, []byte(password))
		return false
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		c.log.Warnw("stored hash unusable", "err", err)
	}
	return err == nil
}

/*────────────────────────────── helpers ────────────────────────────────────*/

// requestLog scopes the logger to the caller.
func (c *Component) requestLog(r *http.Request) *zap.SugaredLogger {
	return c.log.With("remote", r.RemoteAddr).With(ua.Parse(r.UserAgent()).LogFields()...)
}

func message(msg string) map[string]string { return map[string]string{"message": msg} }

func writeJSON(w http.ResponseWriter, code int, body any) {
	metrics.EndpointRequestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
