package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser editor (foreground)",
	Long: `Start the browser editor.

Configuration comes from the file named by PORTFOLIO_CONFIG_PATH and the
PORTFOLIO_* environment variables; --addr overrides the listen address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return runServer(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
}

func runServer(parent context.Context, addr string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(server.WithConfig(cfg), server.WithLogger(logger))
	if err != nil {
		return err
	}

	printStep("portfolio %s", version)
	printStatus("Editor", "http://%s/", cfg.Server.Addr)
	printStatus("Theme", "%s/%s", cfg.Theme.Name, cfg.Theme.Variant)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	printSuccess("editor stopped")
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
}
