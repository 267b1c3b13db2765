// Package ratelimit implements a token bucket limiter. Evaluation
// generation calls into an external generator, so the command layer takes
// an injected limiter to keep a burst of generation requests from
// exhausting the generator quota.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// Limiter implements the token bucket algorithm.
type Limiter struct {
	mu sync.Mutex

	maxTokens   float64       // Maximum tokens in the bucket
	refillRate  float64       // Tokens added per second
	tokens      float64       // Current token count
	lastRefill  time.Time     // Last time tokens were added
	minInterval time.Duration // Minimum interval between acquisitions
	lastAcquire time.Time     // Time of last acquisition
	waitTimeout time.Duration // Maximum time to wait for a token
}

// Config contains configuration for the limiter.
type Config struct {
	// RequestsPerSecond is the maximum sustained acquisition rate.
	RequestsPerSecond float64

	// BurstSize is the maximum number of acquisitions in a burst.
	BurstSize int

	// MinInterval is the minimum time between acquisitions (even with
	// tokens available).
	MinInterval time.Duration

	// WaitTimeout is the maximum time Allow blocks for a token.
	WaitTimeout time.Duration
}

// DefaultConfig returns conservative defaults for evaluation generation.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 1.0,
		BurstSize:         3,
		MinInterval:       250 * time.Millisecond,
		WaitTimeout:       10 * time.Second,
	}
}

// New creates a Limiter with the given configuration.
func New(config Config) *Limiter {
	now := time.Now()
	return &Limiter{
		maxTokens:   float64(config.BurstSize),
		refillRate:  config.RequestsPerSecond,
		tokens:      float64(config.BurstSize), // Start with full bucket
		lastRefill:  now,
		minInterval: config.MinInterval,
		lastAcquire: now.Add(-config.MinInterval), // Allow immediate first acquisition
		waitTimeout: config.WaitTimeout,
	}
}

// Allow blocks until an acquisition is permitted or the wait timeout
// elapses. Returns a shared.ErrRateLimited domain error on timeout.
func (l *Limiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(l.waitTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		waitTime, ok := l.tryAcquire()
		if ok {
			return nil
		}

		if time.Now().Add(waitTime).After(deadline) {
			return shared.NewDomainError("ratelimit", "Allow", shared.ErrRateLimited,
				"rate limit exceeded, retry after "+waitTime.String())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// TryAllow attempts an acquisition without blocking.
func (l *Limiter) TryAllow() bool {
	_, ok := l.tryAcquire()
	return ok
}

// tryAcquire attempts to acquire a token without blocking.
// Returns (waitTime, success). If success is false, waitTime indicates
// how long to wait before retrying.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	sinceLast := time.Since(l.lastAcquire)
	if sinceLast < l.minInterval {
		return l.minInterval - sinceLast, false
	}

	if l.tokens < 1.0 {
		tokensNeeded := 1.0 - l.tokens
		return time.Duration(tokensNeeded / l.refillRate * float64(time.Second)), false
	}

	l.tokens--
	l.lastAcquire = time.Now()
	return 0, true
}

// refill adds tokens based on time elapsed since last refill.
// Must be called with lock held.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()

	if elapsed > 0 {
		l.tokens += elapsed * l.refillRate
		if l.tokens > l.maxTokens {
			l.tokens = l.maxTokens
		}
		l.lastRefill = now
	}
}

// Reset restores the limiter to a full bucket.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.maxTokens
	l.lastRefill = time.Now()
	l.lastAcquire = time.Now().Add(-l.minInterval)
}
