package rate_limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type APILimiter struct {
	Name string

	// underlying rate limiter
	limiter *rate.Limiter
	// semaphore to control concurrency
	sem        *semaphore.Weighted
	definition *Definition
}

func NewAPILimiter(l *Definition) *APILimiter {
	res := &APILimiter{
		Name:       l.Name,
		definition: l,
	}
	if l.FillRate != 0 {
		res.limiter = rate.NewLimiter(l.FillRate, int(l.BucketSize))
	}
	if l.MaxConcurrency != 0 {
		res.sem = semaphore.NewWeighted(l.MaxConcurrency)
	}
	return res
}

func (l *APILimiter) String() string {
	return l.definition.String()
}

func (l *APILimiter) acquireSemaphore(ctx context.Context) error {
	if l.sem == nil {
		return nil
	}
	return l.sem.Acquire(ctx, 1)
}

// Wait blocks until a call is allowed. If it returns nil, Release must be called once the call completes
func (l *APILimiter) Wait(ctx context.Context) error {
	if err := l.acquireSemaphore(ctx); err != nil {
		return err
	}
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			l.Release()
			return err
		}
	}
	return nil
}

func (l *APILimiter) Release() {
	if l.sem == nil {
		return
	}
	l.sem.Release(1)
}

// Do waits for the limiter then calls f
func (l *APILimiter) Do(ctx context.Context, f func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	defer l.Release()
	return f(ctx)
}
