package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RetryPolicy bounds how often a transient completion failure is retried.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts including the first
	BaseBackoff time.Duration // Delay before the second attempt; doubles afterwards
	MaxBackoff  time.Duration // Upper bound on a single delay
}

// DefaultRetryPolicy returns 3 attempts with exponential backoff starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

// Backoff returns the delay before the given attempt (1-based). Attempt 1 has no delay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 || p.BaseBackoff <= 0 {
		return 0
	}
	backoff := p.BaseBackoff * time.Duration(1<<(attempt-2))
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		return p.MaxBackoff
	}
	return backoff
}

// AttemptObserver is notified after every attempt with outcome success, transient, or fatal.
type AttemptObserver func(role, outcome string, attempt int, err error)

// RetryingService retries transient failures of the wrapped service and throttles outgoing calls.
type RetryingService struct {
	next     CompletionService
	policy   RetryPolicy
	limiter  *rate.Limiter
	observer AttemptObserver
}

// RetryOption configures a RetryingService.
type RetryOption func(*RetryingService)

// WithRateLimit throttles calls to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) RetryOption {
	return func(s *RetryingService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithAttemptObserver registers a callback invoked after every attempt.
func WithAttemptObserver(observer AttemptObserver) RetryOption {
	return func(s *RetryingService) {
		s.observer = observer
	}
}

// NewRetryingService wraps next with the retry policy.
func NewRetryingService(next CompletionService, policy RetryPolicy, opts ...RetryOption) *RetryingService {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	s := &RetryingService{next: next, policy: policy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Complete calls the wrapped service, retrying transient errors with exponential backoff.
// Fatal errors and context cancellation end the loop immediately.
func (s *RetryingService) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		if backoff := s.policy.Backoff(attempt); backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return "", &FatalError{Message: "retry canceled", Cause: ctx.Err()}
			}
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return "", &FatalError{Message: "rate limiter wait failed", Cause: err}
			}
		}

		text, err := s.next.Complete(ctx, req)
		if err == nil {
			s.observe(req.Role, "success", attempt, nil)
			return text, nil
		}

		if !IsTransient(err) {
			s.observe(req.Role, "fatal", attempt, err)
			return "", err
		}
		s.observe(req.Role, "transient", attempt, err)
		lastErr = err
	}

	return "", &TransientError{
		Message: fmt.Sprintf("giving up after %d attempts", s.policy.MaxAttempts),
		Cause:   lastErr,
	}
}

func (s *RetryingService) observe(role, outcome string, attempt int, err error) {
	if s.observer != nil {
		s.observer(role, outcome, attempt, err)
	}
}
