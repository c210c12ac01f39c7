package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tensorpool/tp/internal/client"
	"github.com/tensorpool/tp/internal/cliconfig"
	"github.com/tensorpool/tp/internal/ops"
	"github.com/tensorpool/tp/internal/stream"
	"github.com/tensorpool/tp/internal/ui"
)

// version is stamped at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath  string
	contextName string
	engineURL   string
	timeout     time.Duration
	noInput     bool
	verbose     bool

	conn   *cliconfig.Connection
	logger *slog.Logger
}

// prepare resolves the connection, runs the login flow when no API key
// is available, and verifies the key against the engine. Every command
// goes through here before its RunE.
func (r *rootOptions) prepare() error {
	level := slog.LevelWarn
	if r.verbose {
		level = slog.LevelDebug
	}
	r.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conn, err := cliconfig.ResolveConnection(r.configPath, r.contextName, r.engineURL, r.timeout)
	if err != nil {
		return err
	}
	r.conn = conn

	if r.conn.APIKey == "" {
		key, err := loginFlow(r.noInput)
		if err != nil {
			return err
		}
		r.conn.APIKey = key
	}
	return r.healthCheck()
}

// loginFlow prompts for an API key and offers to persist it in .env,
// the way the engine's dashboard instructions describe.
func loginFlow(noInput bool) (string, error) {
	fmt.Println("No API key found. Generate one at https://tensorpool.dev/dashboard")
	key, err := ui.Input("Enter your TensorPool API key: ", "", noInput)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("no API key provided")
	}
	answer := ui.Confirm("Would you like to save it to .env? [Y/n] ", noInput, "y")
	if answer == "y" || answer == "Y" || answer == "yes" {
		if err := cliconfig.SaveAPIKey(key); err != nil {
			return "", err
		}
		fmt.Println("API key saved to .env")
	}
	return key, nil
}

func (r *rootOptions) healthCheck() error {
	spin := ui.NewSpinner("Authenticating...")
	spin.Start()
	ctx, cancel := r.ctx()
	defer cancel()
	msg, err := r.api().HealthCheck(ctx)
	spin.Stop()
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Println(msg)
	}
	return nil
}

func (r *rootOptions) api() *client.Client {
	c := client.New(r.conn.EngineURL, r.conn.APIKey, version)
	c.HTTPClient.Timeout = r.conn.Timeout
	return c
}

func (r *rootOptions) ops() ops.Env {
	return ops.Env{
		EngineURL: r.conn.EngineURL,
		APIKey:    r.conn.APIKey,
		NoInput:   r.noInput,
		Logger:    r.logger,
	}
}

func (r *rootOptions) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.conn.Timeout)
}

// finish prints an operation outcome and converts failure into a
// nonzero exit. Sessions never surface Go errors; the message is the
// whole story.
func finish(out stream.Outcome) error {
	if out.Message != "" {
		fmt.Println(out.Message)
	}
	if !out.Success {
		os.Exit(1)
	}
	return nil
}

// printResult handles the plain HTTP commands: server message on
// success, error otherwise.
func printResult(msg string, err error) error {
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Println(msg)
	}
	return nil
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "tp",
		Short:         "CLI for the TensorPool GPU compute engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	defaultConfig := os.Getenv("TENSORPOOL_CONFIG")
	if defaultConfig == "" {
		defaultConfig = cliconfig.DefaultConfigPath()
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "path to tp config file (default $HOME/.tensorpool/config)")
	rootCmd.PersistentFlags().StringVar(&opts.contextName, "context", "", "context name within the config (overrides currentContext)")
	rootCmd.PersistentFlags().StringVar(&opts.engineURL, "engine", "", "engine base URL (overrides config and TENSORPOOL_ENGINE)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "HTTP client timeout; defaults to config or 30s")
	rootCmd.PersistentFlags().BoolVar(&opts.noInput, "no-input", false, "never prompt; engine-side questions use their defaults")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		switch cmd.Name() {
		// login replaces whatever key is currently configured, so it
		// must not fail on a stale one.
		case "login", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return nil
		}
		return opts.prepare()
	}

	rootCmd.AddCommand(newJobCmd(opts))
	rootCmd.AddCommand(newClusterCmd(opts))
	rootCmd.AddCommand(newNFSCmd(opts))
	rootCmd.AddCommand(newSSHCmd(opts))
	rootCmd.AddCommand(newMeCmd(opts))
	rootCmd.AddCommand(newDashboardCmd(opts))
	rootCmd.AddCommand(newLoginCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newMeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().Me(ctx))
		},
	}
}

func newDashboardCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print a link to the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().Dashboard(ctx))
		},
	}
}

func newLoginCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store a TensorPool API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// login skips the usual prepare step, so resolve the
			// connection here without touching the stored key.
			conn, err := cliconfig.ResolveConnection(root.configPath, root.contextName, root.engineURL, root.timeout)
			if err != nil {
				return err
			}
			root.conn = conn
			root.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			key, err := ui.Input("Enter your TensorPool API key: ", "", root.noInput)
			if err != nil {
				return err
			}
			if key == "" {
				return fmt.Errorf("no API key provided")
			}
			root.conn.APIKey = key
			if err := root.healthCheck(); err != nil {
				return err
			}
			if err := cliconfig.SaveAPIKey(key); err != nil {
				return err
			}
			fmt.Println("API key saved to .env")
			return nil
		},
	}
}
