// internal/session/session.go
//
// Adept Sign-in – in-memory session store for the development endpoint.
//
// Context
//   A successful POST /api/auth/login sets a cookie named “signin_session”
//   holding a random, opaque token.  The token maps to the signed-in email in
//   this process-local store.  It is NOT meant for production: sessions
//   vanish on restart and are not shared between instances.
//
//   The remember flag from the login payload picks the cookie lifetime:
//
//     •  remember=true  → persistent cookie, RememberFor (14 days).
//     •  remember=false → browser-session cookie (no Expires / Max-Age),
//        held server-side for BrowserSessionFor (12 hours).
//
//   Every entry carries a server-side expiry.  Expired entries are dropped
//   on lookup and swept on each new login, so the store stays bounded by
//   the logins of the last RememberFor.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"time"
)

const (
	// CookieName is the session cookie key.
	CookieName = "signin_session"
	// RememberFor is the lifetime of a remembered session.
	RememberFor = 14 * 24 * time.Hour
	// BrowserSessionFor is the server-side lifetime of a non-remembered
	// session.  The cookie itself has no expiry.
	BrowserSessionFor = 12 * time.Hour
	tokenBytes  = 32
)

type entry struct {
	email   string
	expires time.Time
}

// Store maps session tokens to emails.  Safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{m: make(map[string]entry), now: time.Now}
}

// LoginUser creates a session for email and sets the cookie on w.
//
// Callers invoke this after credential verification succeeds.
func (s *Store) LoginUser(w http.ResponseWriter, r *http.Request, email string, remember bool) error {
	tok, err := newToken()
	if err != nil {
		return err
	}

	c := &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
	}
	now := s.now()
	e := entry{email: email, expires: now.Add(BrowserSessionFor)}
	if remember {
		e.expires = now.Add(RememberFor)
		c.Expires = e.expires
		c.MaxAge = int(RememberFor / time.Second)
	}

	s.mu.Lock()
	s.sweepLocked(now)
	s.m[tok] = e
	s.mu.Unlock()

	http.SetCookie(w, c)
	return nil
}

// LogoutUser drops the session, if any, and clears the cookie.
func (s *Store) LogoutUser(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		s.mu.Lock()
		delete(s.m, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// CurrentEmail returns the email bound to the request's session cookie.
//
// ok == false when the cookie is missing, unknown, or expired.
func (s *Store) CurrentEmail(r *http.Request) (email string, ok bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	s.mu.RLock()
	e, hit := s.m[c.Value]
	s.mu.RUnlock()
	if !hit {
		return "", false
	}
	if s.now().After(e.expires) {
		s.mu.Lock()
		delete(s.m, c.Value)
		s.mu.Unlock()
		return "", false
	}
	return e.email, true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// sweepLocked drops expired entries.  Caller holds mu.
func (s *Store) sweepLocked(now time.Time) {
	for tok, e := range s.m {
		if now.After(e.expires) {
			delete(s.m, tok)
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
