// ABOUTME: Entry point for the edi-chat terminal client
// ABOUTME: Builds the cobra command tree, loads .env and config, and configures logging

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/2389/edi-chat/internal/config"
	"github.com/2389/edi-chat/internal/widget"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	endpoint   string
	logLevel   string
}

func main() {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: loading .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "edi-chat",
		Short: "Ask the MSc EDI programme assistant from your terminal",
		Long: `edi-chat is a terminal chat client for a question-answering endpoint.

It keeps an anonymous session id on disk, sends one question at a time,
and shows follow-up suggestions returned with each answer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatCmd(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/edi-chat/widget.yaml)")
	flags.StringVar(&opts.endpoint, "endpoint", "", "question endpoint URL (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newSessionCmd(opts),
		newVersionCmd(),
	)

	return root
}

// load reads configuration, applies flag overrides, and builds the logger.
// An explicit --config must exist; the default location may be absent.
func (o *rootOptions) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadOrDefault(config.Path())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if o.endpoint != "" {
		cfg.Widget.EndpointURL = o.endpoint
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid options: %w", err)
	}

	return cfg, setupLogger(cfg.Logging, stderr), nil
}

// openWidget loads config and builds the widget for a command.
func (o *rootOptions) openWidget(cmd *cobra.Command) (*widget.Widget, error) {
	cfg, logger, err := o.load(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return widget.New(cmd.Context(), cfg, logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "edi-chat %s\n", widget.Version)
		},
	}
}
