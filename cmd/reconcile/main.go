// Command reconcile recounts every derived counter and rebuilds XP totals.
// A Redis lock keeps two runs from overlapping.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fellowship/internal/bootstrap"
	"fellowship/internal/config"
	"fellowship/internal/lock"
	"fellowship/internal/middleware"
	"fellowship/internal/observability"

	"github.com/google/uuid"
)

const lockName = "reconcile"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.DevSeed = false

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithCorrelationID(ctx, "reconcile-"+uuid.NewString())

	if rdb == nil {
		middleware.Logger.Warn("Redis unavailable, reconciling without a lock")
	} else {
		ttl := time.Duration(cfg.ReconcileLockTTLSeconds) * time.Second
		l, err := lock.Acquire(ctx, rdb, lockName, ttl)
		if errors.Is(err, lock.ErrNotAcquired) {
			return errors.New("another reconcile run holds the lock")
		}
		if err != nil {
			return fmt.Errorf("acquire reconcile lock: %w", err)
		}
		defer func() {
			if err := l.Release(context.Background()); err != nil {
				middleware.Logger.Warn("Failed to release reconcile lock", "error", err)
			}
		}()

		var stopHold context.CancelFunc
		ctx, stopHold = l.KeepAlive(ctx, ttl, ttl/3)
		defer stopHold()
	}

	report, err := bootstrap.NewEngine(cfg, db).Reconcile(ctx)
	if err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, lock.ErrNotHeld) {
			return fmt.Errorf("reconcile lock lost mid-run: %w", cause)
		}
		return fmt.Errorf("reconcile: %w", err)
	}
	log.Printf("posts checked=%d repaired=%d, prayers checked=%d repaired=%d, xp users=%d",
		report.PostsChecked, report.PostsRepaired,
		report.PrayersChecked, report.PrayersRepaired,
		report.XpUsersRecomputed)
	return nil
}
