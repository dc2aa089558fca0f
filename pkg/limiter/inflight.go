// Package limiter caps how many calls may be outstanding against one upstream at once.
package limiter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"keyword-volume-go/pkg/logger"
)

// InFlight is a counting limiter built on compare-and-swap. Callers that cannot get a
// permit within the acquire timeout fail instead of queueing behind a rate limited API.
type InFlight struct {
	name           string
	maxConcurrent  int64
	current        int64
	acquireTimeout time.Duration
	log            *logger.Logger

	totalAcquires   int64
	totalReleases   int64
	timeoutFailures int64
}

func NewInFlight(name string, maxConcurrent int, acquireTimeout time.Duration) *InFlight {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 2 * time.Second
	}

	return &InFlight{
		name:           name,
		maxConcurrent:  int64(maxConcurrent),
		acquireTimeout: acquireTimeout,
		log:            logger.GetLogger().WithComponent("inflight_limiter").WithField("upstream", name),
	}
}

// Acquire blocks until a permit is free, the context ends or the acquire timeout passes.
func (l *InFlight) Acquire(ctx context.Context) error {
	atomic.AddInt64(&l.totalAcquires, 1)

	if l.tryAcquire() {
		return nil
	}

	deadline := time.Now().Add(l.acquireTimeout)
	attempt := 0
	for time.Now().Before(deadline) {
		attempt++
		delay := time.Duration(attempt) * 5 * time.Millisecond
		if delay > 50*time.Millisecond {
			delay = 50 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			atomic.AddInt64(&l.timeoutFailures, 1)
			return ctx.Err()
		case <-time.After(delay):
		}

		if l.tryAcquire() {
			return nil
		}
	}

	atomic.AddInt64(&l.timeoutFailures, 1)
	current := atomic.LoadInt64(&l.current)
	l.log.WithFields(map[string]interface{}{
		"current": current,
		"max":     l.maxConcurrent,
	}).Warn("No in-flight permit within timeout")

	return fmt.Errorf("%s: no in-flight permit within %v (current: %d, max: %d)",
		l.name, l.acquireTimeout, current, l.maxConcurrent)
}

func (l *InFlight) tryAcquire() bool {
	for {
		current := atomic.LoadInt64(&l.current)
		if current >= l.maxConcurrent {
			return false
		}
		if atomic.CompareAndSwapInt64(&l.current, current, current+1) {
			return true
		}
	}
}

// Release returns a permit taken by a successful Acquire.
func (l *InFlight) Release() {
	atomic.AddInt64(&l.totalReleases, 1)

	for {
		current := atomic.LoadInt64(&l.current)
		if current <= 0 {
			l.log.Warn("Release without a held permit")
			return
		}
		if atomic.CompareAndSwapInt64(&l.current, current, current-1) {
			return
		}
	}
}

// Stats is a point-in-time view reported by /healthz.
type Stats struct {
	Upstream        string `json:"upstream"`
	MaxConcurrent   int    `json:"max_concurrent"`
	CurrentActive   int    `json:"current_active"`
	TotalAcquires   int64  `json:"total_acquires"`
	TotalReleases   int64  `json:"total_releases"`
	TimeoutFailures int64  `json:"timeout_failures"`
}

func (l *InFlight) Stats() Stats {
	return Stats{
		Upstream:        l.name,
		MaxConcurrent:   int(l.maxConcurrent),
		CurrentActive:   int(atomic.LoadInt64(&l.current)),
		TotalAcquires:   atomic.LoadInt64(&l.totalAcquires),
		TotalReleases:   atomic.LoadInt64(&l.totalReleases),
		TimeoutFailures: atomic.LoadInt64(&l.timeoutFailures),
	}
}
