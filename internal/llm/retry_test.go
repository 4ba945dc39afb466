package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCompletionService is a mock implementation of CompletionService for testing
type MockCompletionService struct {
	CompleteFunc func(ctx context.Context, req Request) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *MockCompletionService) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

func (m *MockCompletionService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}

	assert.Equal(t, time.Duration(0), p.Backoff(1))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(4))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(5))
}

func TestRetryingService_RetriesTransient(t *testing.T) {
	mock := &MockCompletionService{}
	mock.CompleteFunc = func(_ context.Context, _ Request) (string, error) {
		if mock.Calls() < 3 {
			return "", &TransientError{Message: "rate limited"}
		}
		return `{"ok": true}`, nil
	}

	var outcomes []string
	svc := NewRetryingService(mock, fastPolicy(), WithAttemptObserver(func(role, outcome string, _ int, _ error) {
		assert.Equal(t, "interviewer", role)
		outcomes = append(outcomes, outcome)
	}))

	text, err := svc.Complete(context.Background(), Request{Role: "interviewer"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)
	assert.Equal(t, 3, mock.Calls())
	assert.Equal(t, []string{"transient", "transient", "success"}, outcomes)
}

func TestRetryingService_FatalNotRetried(t *testing.T) {
	mock := &MockCompletionService{CompleteFunc: func(_ context.Context, _ Request) (string, error) {
		return "", &FatalError{Message: "invalid api key"}
	}}

	svc := NewRetryingService(mock, fastPolicy())
	_, err := svc.Complete(context.Background(), Request{Role: "evaluator"})

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, mock.Calls())
}

func TestRetryingService_GivesUp(t *testing.T) {
	cause := &TransientError{Message: "unavailable"}
	mock := &MockCompletionService{CompleteFunc: func(_ context.Context, _ Request) (string, error) {
		return "", cause
	}}

	svc := NewRetryingService(mock, fastPolicy())
	_, err := svc.Complete(context.Background(), Request{Role: "coach"})

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, 3, mock.Calls())
}

func TestRetryingService_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &MockCompletionService{CompleteFunc: func(_ context.Context, _ Request) (string, error) {
		cancel()
		return "", &TransientError{Message: "timeout"}
	}}

	svc := NewRetryingService(mock, RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Second, MaxBackoff: time.Second})
	_, err := svc.Complete(ctx, Request{Role: "interviewer"})

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.Calls())
}

func TestRetryingService_RateLimited(t *testing.T) {
	mock := &MockCompletionService{CompleteFunc: func(_ context.Context, _ Request) (string, error) {
		return "ok", nil
	}}

	svc := NewRetryingService(mock, fastPolicy(), WithRateLimit(1000, 2))
	for i := 0; i < 5; i++ {
		_, err := svc.Complete(context.Background(), Request{Role: "interviewer"})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, mock.Calls())
}

func TestNewRetryingService_ClampsAttempts(t *testing.T) {
	mock := &MockCompletionService{CompleteFunc: func(_ context.Context, _ Request) (string, error) {
		return "", &TransientError{Message: "x"}
	}}
	svc := NewRetryingService(mock, RetryPolicy{})
	_, err := svc.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.Calls())
}
