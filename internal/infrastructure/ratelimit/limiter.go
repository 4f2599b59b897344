// Package ratelimit enforces the commerce API call budget: a sustained
// per-second rate and a hard daily cap that resets at UTC midnight.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimitExceededError is returned when the daily budget is exhausted.
// RetryAfter tells the caller how long until the budget resets.
type LimitExceededError struct {
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("ratelimit: daily budget exhausted, retry in %s", e.RetryAfter.Round(time.Second))
}

// Limiter coordinates all outbound commerce API calls. Safe for concurrent use.
type Limiter struct {
	perSecond *rate.Limiter

	mu        sync.Mutex
	dailyCap  int
	usedToday int
	// windowStart is the UTC midnight opening the current daily window.
	windowStart time.Time

	now func() time.Time
}

// New creates a limiter allowing perSecond calls per second and dailyCap
// calls per UTC day.
func New(perSecond, dailyCap int) *Limiter {
	return newWithClock(perSecond, dailyCap, time.Now)
}

func newWithClock(perSecond, dailyCap int, now func() time.Time) *Limiter {
	return &Limiter{
		perSecond:   rate.NewLimiter(rate.Limit(perSecond), perSecond),
		dailyCap:    dailyCap,
		windowStart: midnightUTC(now()),
		now:         now,
	}
}

// Acquire blocks until both budgets admit one call. An exhausted daily budget
// fails immediately with *LimitExceededError rather than blocking until
// midnight; callers decide whether to wait that long. Context cancellation
// releases the reserved daily slot.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.reserveDaily(); err != nil {
		return err
	}
	if err := l.perSecond.Wait(ctx); err != nil {
		l.releaseDaily()
		return err
	}
	return nil
}

// Remaining returns how many calls are left in the current daily window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(l.now())
	return l.dailyCap - l.usedToday
}

func (l *Limiter) reserveDaily() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.roll(now)

	if l.usedToday >= l.dailyCap {
		return &LimitExceededError{RetryAfter: l.windowStart.Add(24 * time.Hour).Sub(now)}
	}
	l.usedToday++
	return nil
}

func (l *Limiter) releaseDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.usedToday > 0 {
		l.usedToday--
	}
}

// roll resets the counter when the clock has crossed UTC midnight.
func (l *Limiter) roll(now time.Time) {
	if day := midnightUTC(now); day.After(l.windowStart) {
		l.windowStart = day
		l.usedToday = 0
	}
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
