package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/internal/instrumentation"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"golang.org/x/time/rate"
)

// Budget is the rate-limit state Okta reported for one bucket.
type Budget struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// BudgetFromHeaders reads the X-Rate-Limit-* headers. It reports false unless
// both the remaining count and the reset time are present.
func BudgetFromHeaders(header http.Header) (Budget, bool) {
	if header == nil {
		return Budget{}, false
	}

	remaining, err := strconv.Atoi(strings.TrimSpace(header.Get(okta.HeaderRateLimitRemaining)))
	if err != nil || remaining < 0 {
		return Budget{}, false
	}

	resetAt, ok := okta.ParseRateLimitReset(header)
	if !ok {
		return Budget{}, false
	}

	limit, _ := strconv.Atoi(strings.TrimSpace(header.Get(okta.HeaderRateLimitLimit)))

	return Budget{Limit: limit, Remaining: remaining, ResetAt: resetAt}, true
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithCeiling caps each bucket at perMinute requests per minute on top of the
// budget reported by the server. Zero or less disables the cap.
func WithCeiling(perMinute int) Option {
	return func(l *Limiter) {
		l.ceiling = perMinute
	}
}

// WithResetBuffer sets how long past reset_at an exhausted bucket stays closed.
func WithResetBuffer(buffer time.Duration) Option {
	return func(l *Limiter) {
		if buffer >= 0 {
			l.resetBuffer = buffer
		}
	}
}

// WithMetrics records waits and reported budgets.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger okta.Logger) Option {
	return func(l *Limiter) {
		l.logger = logging.OrNop(logger)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

type bucket struct {
	mu       sync.Mutex
	budget   Budget
	observed bool
	ceiling  *rate.Limiter
}

// Limiter admits requests per bucket. State is owned by the instance, so two
// clients never share budgets.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	ceiling     int
	resetBuffer time.Duration
	metrics     *instrumentation.Metrics
	logger      okta.Logger
	now         func() time.Time
}

// New creates a new Limiter.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		buckets:     make(map[string]*bucket),
		ceiling:     constants.DefaultRateLimitCeiling,
		resetBuffer: constants.DefaultRateLimitResetBuffer,
		logger:      logging.Nop{},
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Limiter) bucket(key string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		if l.ceiling > 0 {
			b.ceiling = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.ceiling)), l.ceiling)
		}

		l.buckets[key] = b
	}

	return b
}

// Acquire blocks until a request to key may be sent. An exhausted bucket
// stays closed until its reset time plus the reset buffer. Cancellation of ctx
// returns a KindTimeout error.
func (l *Limiter) Acquire(ctx context.Context, key string) error {
	b := l.bucket(key)

	if b.ceiling != nil {
		started := l.now()

		err := b.ceiling.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return okta.MapTransportError(ctx.Err())
			}

			// The limiter refuses waits that would outlive the deadline, and
			// a retry under the same deadline would be refused again.
			return okta.MapTransportError(fmt.Errorf("%w: %w: %w", okta.ErrWaitExceedsDeadline, context.DeadlineExceeded, err))
		}

		if waited := l.now().Sub(started); waited > time.Millisecond {
			l.metrics.RecordRateLimitWait(ctx, key, waited)
		}
	}

	for {
		wait, ok := l.reserve(b)
		if ok {
			return nil
		}

		l.logger.Warn("Rate limit budget exhausted, waiting for reset", map[string]interface{}{
			logging.KeyBucket: key,
			logging.KeyDelay:  wait.String(),
		})

		err := l.sleep(ctx, wait)
		if err != nil {
			return err
		}

		l.metrics.RecordRateLimitWait(ctx, key, wait)
	}
}

// reserve takes one unit of b's budget, or returns how long to wait.
func (l *Limiter) reserve(b *bucket) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.observed {
		return 0, true
	}

	if b.budget.Remaining > 0 {
		b.budget.Remaining--

		return 0, true
	}

	now := l.now()
	opensAt := b.budget.ResetAt.Add(l.resetBuffer)

	if b.budget.ResetAt.IsZero() || !now.Before(opensAt) {
		// The window has rolled over; the budget is unknown until the next response.
		b.observed = false

		return 0, true
	}

	return opensAt.Sub(now), false
}

func (l *Limiter) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return okta.MapTransportError(ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Observe records the budget reported for key.
func (l *Limiter) Observe(key string, budget Budget) {
	b := l.bucket(key)

	b.mu.Lock()
	b.budget = budget
	b.observed = true
	b.mu.Unlock()

	l.metrics.RecordRateLimitRemaining(context.Background(), key, budget.Remaining)
}

// ObserveResponse updates key from a response. A 429 closes the bucket until
// the later of the reported reset and the Retry-After hint, or for the default
// penalty when the server gave neither.
func (l *Limiter) ObserveResponse(key string, status int, header http.Header) {
	budget, ok := BudgetFromHeaders(header)

	if status == http.StatusTooManyRequests {
		now := l.now()

		if delay, found := okta.ParseRetryAfter(header, now); found {
			if resetAt := now.Add(delay); resetAt.After(budget.ResetAt) {
				budget.ResetAt = resetAt
			}
		}

		if !budget.ResetAt.After(now) {
			budget.ResetAt = now.Add(constants.DefaultRateLimitRetryAfter)
		}

		budget.Remaining = 0
		ok = true

		l.logger.Warn("Rate limited by server", map[string]interface{}{
			logging.KeyBucket:  key,
			logging.KeyResetAt: budget.ResetAt.Format(time.RFC3339),
		})
	}

	if ok {
		l.Observe(key, budget)
	}
}

// Snapshot returns the last budget observed for key.
func (l *Limiter) Snapshot(key string) (Budget, bool) {
	b := l.bucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.budget, b.observed
}
