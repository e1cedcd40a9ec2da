package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mcp-okta-support/okta-go/internal/constants"
	"github.com/mcp-okta-support/okta-go/internal/instrumentation"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
)

// Policy bounds the retries of one logical request.
type Policy struct {
	// MaxAttempts counts the first attempt; 1 disables retries.
	MaxAttempts int
	WaitMin     time.Duration
	WaitMax     time.Duration
	// Jitter is the fraction of the base delay added at random, in [0, 1].
	Jitter float64
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: constants.DefaultRetryMax,
		WaitMin:     constants.DefaultRetryWaitMin,
		WaitMax:     constants.DefaultRetryWaitMax,
		Jitter:      constants.DefaultRetryJitter,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()

	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	if p.WaitMin <= 0 {
		p.WaitMin = def.WaitMin
	}

	if p.WaitMax < p.WaitMin {
		p.WaitMax = p.WaitMin
	}

	p.Jitter = min(max(p.Jitter, 0), 1)

	return p
}

// Backoff returns the delay after the given failed attempt (1-based). The base
// delay doubles per attempt and is capped at WaitMax; jitter never pushes it
// past the cap, so delays never decrease from one attempt to the next.
func (p Policy) Backoff(attempt int, random float64) time.Duration {
	base := retryablehttp.DefaultBackoff(p.WaitMin, p.WaitMax, attempt-1, nil)
	delay := base + time.Duration(float64(base)*p.Jitter*random)

	return min(delay, p.WaitMax)
}

// SendFunc performs one attempt. attempt starts at 1.
type SendFunc func(ctx context.Context, attempt int) (*okta.RawResponse, error)

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger okta.Logger) Option {
	return func(e *Executor) {
		e.logger = logging.OrNop(logger)
	}
}

// WithMetrics records retries.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(e *Executor) {
		e.metrics = metrics
	}
}

// WithRandom overrides the jitter source, which must return values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(e *Executor) {
		if random != nil {
			e.random = random
		}
	}
}

// WithObserver is called with every delay before the executor waits.
func WithObserver(observe func(attempt int, delay time.Duration)) Option {
	return func(e *Executor) {
		e.observe = observe
	}
}

// Executor runs a logical request with bounded retries.
type Executor struct {
	policy  Policy
	logger  okta.Logger
	metrics *instrumentation.Metrics
	random  func() float64
	observe func(attempt int, delay time.Duration)
}

// New creates a new Executor.
func New(policy Policy, opts ...Option) *Executor {
	e := &Executor{
		policy: policy.normalized(),
		logger: logging.Nop{},
		random: rand.Float64,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Policy returns the effective policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute calls send until it yields a 2xx response, a terminal error, or the
// attempts run out. Only retryable kinds on idempotent requests are retried.
// The last error is returned unchanged, along with the number of attempts made.
func (e *Executor) Execute(ctx context.Context, spec okta.RequestSpec, send SendFunc) (*okta.RawResponse, int, error) {
	for attempt := 1; ; attempt++ {
		raw, err := send(ctx, attempt)
		if err == nil {
			err = okta.CheckResponse(raw)
		}

		if err == nil {
			return raw, attempt, nil
		}

		if !e.shouldRetry(ctx, spec, attempt, err) {
			return nil, attempt, err
		}

		delay := e.delay(attempt, err)
		kind := okta.KindOf(err).String()

		e.logger.Warn("Retrying request", map[string]interface{}{
			logging.KeyMethod:    spec.Method,
			logging.KeyURL:       spec.Path,
			logging.KeyAttempt:   attempt,
			logging.KeyDelay:     delay.String(),
			logging.KeyErrorKind: kind,
			logging.KeyError:     logging.Err(err),
		})
		e.metrics.RecordRetry(ctx, spec.Bucket, kind)

		if e.observe != nil {
			e.observe(attempt, delay)
		}

		sleepErr := sleep(ctx, delay)
		if sleepErr != nil {
			return nil, attempt, sleepErr
		}
	}
}

func (e *Executor) shouldRetry(ctx context.Context, spec okta.RequestSpec, attempt int, err error) bool {
	if attempt >= e.policy.MaxAttempts || !spec.Idempotent || ctx.Err() != nil {
		return false
	}

	if errors.Is(err, okta.ErrWaitExceedsDeadline) {
		return false
	}

	return okta.KindOf(err).Retryable()
}

// delay prefers the server's Retry-After hint over the computed backoff.
func (e *Executor) delay(attempt int, err error) time.Duration {
	if hint, ok := okta.RetryAfterOf(err); ok {
		return hint
	}

	return e.policy.Backoff(attempt, e.random())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return okta.MapTransportError(ctx.Err())
	case <-timer.C:
		return nil
	}
}
