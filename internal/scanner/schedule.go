package scanner

import (
	"context"
	"time"

	"oisentry/logger"
)

// alignToPeriod floors t to the most recent period boundary on the wall-clock
// grid (for a 5m period: :00, :05, :10, ...), in UTC with seconds zeroed.
func alignToPeriod(t time.Time, period time.Duration) time.Time {
	return t.UTC().Truncate(period)
}

// nextPeriodStart returns the smallest boundary strictly greater than t. A
// timestamp exactly on a boundary rolls to the following one.
func nextPeriodStart(t time.Time, period time.Duration) time.Time {
	return alignToPeriod(t, period).Add(period)
}

// waitForNextPeriod sleeps until the next period boundary or until the context
// is cancelled. Because the wait is recomputed from the clock on every call,
// a cycle that overruns its period causes the loop to skip to the next future
// boundary instead of queueing missed runs.
func waitForNextPeriod(ctx context.Context, period time.Duration, log *logger.Entry) error {
	wait := time.Until(nextPeriodStart(time.Now(), period))
	if wait <= 0 {
		return ctx.Err()
	}

	log.WithFields(logger.Fields{"wait": wait.Round(time.Millisecond).String()}).Info("waiting for next period boundary")

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
