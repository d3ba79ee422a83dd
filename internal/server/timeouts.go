// internal/server/timeouts.go
//
// HTTP server helper with bounded timeouts.
//
//   • ReadTimeout   – abort slow-loris headers and bodies
//   • WriteTimeout  – cap total response time
//   • IdleTimeout   – close keep-alives on idle clients
//
// Values come from the `http` config block, which defaults to 10 s, 15 s,
// and 60 s.  This helper keeps cmd/web free of that boilerplate.

package server

import (
	"net/http"

	"github.com/yanizio/adept-signin/internal/config"
)

// New constructs an *http.Server for the login endpoint.
func New(cfg config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
