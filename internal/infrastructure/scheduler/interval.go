package scheduler

import (
	"context"
	"fmt"
	"time"

	"FeedSignals/internal/ports"
)

// IntervalDriver runs a job, then waits a fixed interval, until its context ends.
// Cycles never overlap: the wait starts after the job returns.
type IntervalDriver struct {
	interval time.Duration
	wait     func(ctx context.Context, d time.Duration) error
}

var _ ports.Scheduler = (*IntervalDriver)(nil)

// NewIntervalDriver builds a driver with the given wait between cycles.
func NewIntervalDriver(interval time.Duration) *IntervalDriver {
	return &IntervalDriver{interval: interval, wait: sleep}
}

// Run blocks until ctx is cancelled and returns ctx.Err().
func (d *IntervalDriver) Run(ctx context.Context, job func(ctx context.Context, trigger time.Time)) error {
	if job == nil {
		return fmt.Errorf("interval driver: nil job")
	}
	if d.interval <= 0 {
		return fmt.Errorf("interval driver: interval must be positive, got %s", d.interval)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		job(ctx, time.Now())
		if err := d.wait(ctx, d.interval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
