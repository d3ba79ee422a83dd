package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/adept-signin/components/auth"
	"github.com/yanizio/adept-signin/internal/config"
	"github.com/yanizio/adept-signin/internal/logger"
	"github.com/yanizio/adept-signin/internal/middleware"
	"github.com/yanizio/adept-signin/internal/server"
	"github.com/yanizio/adept-signin/internal/session"
)

const shutdownGrace = 10 * time.Second

// serveOptions holds the command's flag values.
type serveOptions struct {
	configFile string
	listenAddr string
	debug      bool
}

// NewRootCmd creates the root command for the development endpoint.
func NewRootCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "signin-web",
		Short: "Serve the development login endpoint",
		Long: `signin-web serves POST /api/auth/login, POST /api/auth/logout and
GET /api/auth/session for the accounts listed under auth.accounts, plus
Prometheus metrics on /metrics.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "config file path")
	f.StringVar(&opts.listenAddr, "listen", "", "listen address (overrides http.listen_addr)")
	f.BoolVar(&opts.debug, "debug", false, "debug-level logging")

	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.listenAddr != "" {
		cfg.HTTP.ListenAddr = opts.listenAddr
	}

	logOpts := logger.Options{Dir: cfg.Log.Dir, Debug: opts.debug || cfg.Log.Debug}
	if logger.RunningInTTY(os.Stderr) {
		logOpts.Tee = os.Stderr
	}
	log, err := logger.New(logOpts)
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	h, err := newRouter(cfg, log)
	if err != nil {
		log.Errorw("build router", "err", err)
		return err
	}
	if err := serve(ctx, server.New(cfg.HTTP, h), log); err != nil {
		log.Errorw("http server", "err", err)
		return err
	}
	return nil
}

// newRouter wires middleware, metrics and the auth component.
func newRouter(cfg *config.Config, log *zap.SugaredLogger) (http.Handler, error) {
	comp, err := auth.New(cfg.Auth.Accounts, session.NewStore(), log)
	if err != nil {
		return nil, fmt.Errorf("build auth component: %w", err)
	}
	if len(cfg.Auth.Accounts) == 0 {
		log.Warnw("no accounts configured, every login will be rejected")
	}

	limiter := middleware.NewRateLimiter(cfg.Auth.RatePerS, cfg.Auth.RateBurst, cfg.Auth.MaxIPs)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS), middleware.Security)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/"+comp.Name(), func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Mount("/", comp.Routes())
	})
	return r, nil
}

// serve runs srv until ctx is done, then shuts it down within shutdownGrace.
func serve(ctx context.Context, srv *http.Server, log *zap.SugaredLogger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		log.Infow("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
