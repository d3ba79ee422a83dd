package main

import (
	"context"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/yanizio/adept-signin/internal/config"
	"github.com/yanizio/adept-signin/internal/console"
	"github.com/yanizio/adept-signin/internal/form"
	"github.com/yanizio/adept-signin/internal/logger"
)

// loginOptions holds the command's flag values.
type loginOptions struct {
	configFile   string
	endpoint     string
	email        string
	remember     bool
	showPassword bool
	attempts     int
	debug        bool
}

// NewRootCmd creates the root command for the sign-in client.
func NewRootCmd() *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to an Adept login endpoint from the terminal",
		Long: `signin prompts for an email and password, validates them locally,
and posts them as JSON to <endpoint>/api/auth/login.

At the password prompt, type /show or /hide to toggle visibility.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			askRemember := !cmd.Flags().Changed("remember")
			return runLogin(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts, askRemember)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "config file path")
	f.StringVar(&opts.endpoint, "endpoint", "", "base URL of the login endpoint (overrides client.base_url)")
	f.StringVar(&opts.email, "email", "", "prefill the email address")
	f.BoolVar(&opts.remember, "remember", false, "ask the server to remember this sign-in")
	f.BoolVar(&opts.showPassword, "show-password", false, "echo the password while typing")
	f.IntVar(&opts.attempts, "attempts", 3, "maximum sign-in attempts")
	f.BoolVar(&opts.debug, "debug", false, "debug-level logging")

	return cmd
}

func runLogin(ctx context.Context, in io.Reader, out io.Writer, opts *loginOptions, askRemember bool) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Dir: cfg.Log.Dir, Debug: opts.debug || cfg.Log.Debug})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	baseURL := cfg.Client.BaseURL
	if opts.endpoint != "" {
		baseURL = opts.endpoint
	}

	view := console.New(in, out)
	ctrl := form.NewController(
		form.WithHTTP(baseURL, &http.Client{Timeout: cfg.Client.Timeout}),
		form.WithLogger(log),
		form.WithObserver(view.Render),
	)
	if opts.email != "" {
		ctrl.SetEmail(opts.email)
	}
	ctrl.SetRemember(opts.remember)
	if opts.showPassword {
		ctrl.ToggleShowPassword()
	}

	_, err = view.Run(ctx, ctrl, console.RunOptions{
		Attempts:    opts.attempts,
		AskRemember: askRemember,
	})
	return err
}
