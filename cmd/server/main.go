package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arandaschimpf/claude-review/internal/wire"
)

func main() {
	if err := run(); err != nil {
		slog.Error("claude-review failed", "error", err)
		os.Exit(1)
	}
}

// run serves until SIGINT or SIGTERM arrives or the listener fails, then
// drains the HTTP server and any running review agents.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Start()
	}()

	var startErr error
	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	case startErr = <-serveErr:
		if startErr == nil {
			slog.Info("HTTP server closed, shutting down")
		}
	}
	stop()

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return startErr
}
