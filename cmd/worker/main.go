package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lending-backoffice/internal/app"
	"lending-backoffice/internal/config"
	"lending-backoffice/internal/domain/debit"
)

const promoteLimit = 500

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateWorker(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker started", "interval", cfg.Sweep.Interval)
	ticker := time.NewTicker(cfg.Sweep.Interval)
	defer ticker.Stop()

	for {
		if err := tick(ctx, a); errors.Is(err, debit.ErrProviderNotConfigured) {
			slog.Error("stopping worker", "error", err)
			return
		}
		select {
		case <-ctx.Done():
			slog.Info("worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// tick promotes matured loans, releases stale claims and runs one sweep.
func tick(ctx context.Context, a *app.App) error {
	if res, err := a.Loans.PromoteMatured(ctx, promoteLimit); err != nil {
		slog.Error("promote matured loans failed", "error", err)
	} else if res.Selected > 0 {
		slog.Info("promoted matured loans", "selected", res.Selected, "promoted", res.Promoted, "errors", res.Errors)
	}

	if _, err := a.Sweeper.RecoverStale(ctx); err != nil {
		slog.Error("recover stale items failed", "error", err)
	}

	if _, err := a.Sweeper.Run(ctx); err != nil {
		slog.Error("sweep failed", "error", err)
		return err
	}
	return nil
}
