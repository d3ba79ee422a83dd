// cmd/web/main.go
//
// Adept Sign-in – development login endpoint.
//
// Start-up
// --------
//
//  1. Load config (`--config` path or discovered conf/global.yaml, then
//     SIGNIN_ env overrides).
//
//  2. Start the daily rotating logger (tees to stderr in a TTY).
//
//  3. Build the auth component from the configured accounts.
//
//  4. Router:
//
//     • /metrics              – Prometheus
//     • /api/auth/*           – rate limit → auth component
//     • everything            – security headers, optional HTTPS redirect
//
//  5. Serve until SIGINT/SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
