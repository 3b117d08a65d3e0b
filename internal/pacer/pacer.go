// Package pacer holds a loop to a target cadence. It is a ceiling: a cycle
// that overruns the interval is followed immediately by the next one, with
// no catch-up.
package pacer

import (
	"context"
	"time"
)

// Pacer computes and performs the per-cycle sleep
type Pacer struct {
	interval time.Duration
}

// New creates a Pacer for the given target cycle interval
func New(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Interval returns the target cycle interval
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// SleepFor returns how long to sleep after a cycle that took elapsed,
// never negative
func (p *Pacer) SleepFor(elapsed time.Duration) time.Duration {
	if d := p.interval - elapsed; d > 0 {
		return d
	}
	return 0
}

// Wait sleeps for SleepFor(elapsed) or until ctx is done, in which case it
// returns ctx.Err()
func (p *Pacer) Wait(ctx context.Context, elapsed time.Duration) error {
	d := p.SleepFor(elapsed)
	if d == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
