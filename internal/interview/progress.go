package interview

import (
	"context"

	"github.com/google/uuid"
)

// ProgressEvent reports a stage of an action while it runs.
type ProgressEvent struct {
	Action    Action    `json:"action"`
	SessionID uuid.UUID `json:"interview_id"`
	Stage     string    `json:"stage"` // invoking, persisted
	Message   string    `json:"message"`
}

// ProgressFunc receives progress events. It is called synchronously.
type ProgressFunc func(ProgressEvent)

type progressCtxKey struct{}

// WithProgress attaches a progress callback to the context of one action.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, progressCtxKey{}, fn)
}

func progress(ctx context.Context, action Action, id uuid.UUID, stage, message string) {
	if fn, ok := ctx.Value(progressCtxKey{}).(ProgressFunc); ok {
		fn(ProgressEvent{Action: action, SessionID: id, Stage: stage, Message: message})
	}
}
