package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// StartPoller launches a background goroutine that keeps the cached plan fresh. It
// refreshes only when the cache is older than the interval and backs off exponentially
// while the backend keeps failing. It returns immediately.
func StartPoller(ctx context.Context, plans *state.Store, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger = logging.OrDiscard(logger).With("component", "poller")

	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			timer.Reset(poll(ctx, plans, interval, logger))
		}
	}()
}

// poll refreshes the plan when it is due and returns the wait before the next poll.
func poll(ctx context.Context, plans *state.Store, interval time.Duration, logger *log.Logger) time.Duration {
	if age := plans.Age(); age >= 0 && age < interval {
		return interval - age
	}
	<-plans.RefreshAsync(ctx, nil)

	snap := plans.Snapshot()
	if snap.ConsecutiveFailures > 0 {
		wait := calculateBackoff(snap.ConsecutiveFailures, interval)
		logger.Warn("plan refresh failed", "failures", snap.ConsecutiveFailures, "retry_in", wait, "error", snap.LastError)
		return wait
	}
	return interval
}

// calculateBackoff doubles the interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
