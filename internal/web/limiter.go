package web

// limiter.go bounds the number of uploads and pipeline runs processed at
// once. When every slot is taken a request waits up to maxWait and then
// fails with ErrBusy. WaitForDrain lets shutdown block until in-flight work
// finishes.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when no processing slot frees up in time.
var ErrBusy = errors.New("server busy: too many concurrent operations, please try again later")

const (
	defaultMaxConcurrent = 5
	defaultMaxWait       = 30 * time.Second
)

// Limiter restricts concurrent heavy operations.
type Limiter struct {
	sem     *semaphore.Weighted
	max     int64
	maxWait time.Duration
	active  atomic.Int64
}

// NewLimiter allows at most maxConcurrent operations at once.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &Limiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must call Release when done.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot only if one is free right now.
func (l *Limiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// Status returns the number of active operations and the limit.
func (l *Limiter) Status() (active, limit int) {
	return int(l.active.Load()), int(l.max)
}

// WaitForDrain blocks until every slot is free or ctx is done. Slots stay
// held afterwards, so no new work starts once draining succeeds.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	return l.sem.Acquire(ctx, l.max)
}
