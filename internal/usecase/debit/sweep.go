package debit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lending-backoffice/internal/domain/debit"

	"golang.org/x/sync/errgroup"
)

const sweepLockKey = "debit:sweep:lock"

// Locker is a cross-process mutex. ok is false when another holder has key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type SweepConfig struct {
	BatchSize   int
	Concurrency int
	StaleAfter  time.Duration
	LockTTL     time.Duration
}

type Sweeper struct {
	uc     *Usecase
	cfg    SweepConfig
	locker Locker
}

// NewSweeper: locker may be nil for a single worker.
func NewSweeper(uc *Usecase, cfg SweepConfig, locker Locker) *Sweeper {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Sweeper{uc: uc, cfg: cfg, locker: locker}
}

// Run executes one batch of due items: pending items due today or earlier
// and failed items whose retry time has passed, oldest due date first.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.cfg.LockTTL)
		if err != nil {
			return res, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			res.LockHeld = true
			slog.Info("sweep skipped, lock held elsewhere")
			return res, nil
		}
		defer release()
	}

	items, err := s.uc.repos.Items.ListDue(ctx, s.uc.now(), s.cfg.BatchSize)
	if err != nil {
		return res, fmt.Errorf("select due items: %w", err)
	}
	res.Selected = len(items)

	// A missing provider config stops new charges. In-flight ones keep ctx and
	// release their own claims instead of recording a failed attempt.
	var (
		mu    sync.Mutex
		abort error
	)
	aborted := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return abort != nil
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, it := range items {
		if ctx.Err() != nil || aborted() {
			break
		}
		g.Go(func() error {
			got, err := s.uc.ExecuteItem(ctx, it.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, debit.ErrProviderNotConfigured):
				if abort == nil {
					abort = err
				}
			case errors.Is(err, debit.ErrItemNotClaimable):
				res.Skipped++
			case err != nil:
				res.Errors++
				slog.Error("execute debit item failed", "item_id", it.ID, "error", err)
			case got.Status == debit.ItemPaid:
				res.Paid++
			default:
				res.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()
	if abort != nil {
		return res, abort
	}

	slog.Info("sweep finished",
		"selected", res.Selected,
		"paid", res.Paid,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"errors", res.Errors,
	)
	return res, nil
}

// RecoverStale puts items stuck in processing for longer than StaleAfter
// back to pending. Their idempotency keys are kept, so a charge that did
// reach the provider is deduplicated on the next attempt.
func (s *Sweeper) RecoverStale(ctx context.Context) (int64, error) {
	if s.cfg.StaleAfter <= 0 {
		return 0, nil
	}
	n, err := s.uc.repos.Items.ReleaseStale(ctx, s.uc.now().Add(-s.cfg.StaleAfter))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Warn("released stale debit items", "count", n)
	}
	return n, nil
}
