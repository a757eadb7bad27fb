package main

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// pacer spaces out polls. Consecutive failures double the wait up to
// maxBackoff; any success resets it.
type pacer struct {
	base    time.Duration
	current time.Duration
	jitter  func(time.Duration) time.Duration
}

func newPacer(base time.Duration) *pacer {
	return &pacer{
		base:    base,
		current: base,
		jitter: func(d time.Duration) time.Duration {
			return d + rand.N(jitterWindow)
		},
	}
}

func (p *pacer) reset() { p.current = p.base }

func (p *pacer) idle() time.Duration {
	p.reset()
	return p.jitter(p.base)
}

func (p *pacer) failed() time.Duration {
	p.current = min(p.current*2, maxBackoff)
	return p.jitter(p.current)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
