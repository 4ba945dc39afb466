package interview

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/types"
)

func TestDispatch_FullFlow(t *testing.T) {
	o, _ := newTestOrchestrator(t, scripted())
	ctx := context.Background()
	candidate := uuid.New()

	start, err := o.Dispatch(ctx, candidate, types.ActionRequest{Action: "start_interview", JobRole: "SRE", ExperienceLevel: "mid"})
	require.NoError(t, err)
	id := start.SessionID.String()

	steps := []struct {
		req   types.ActionRequest
		phase types.Phase
	}{
		{types.ActionRequest{Action: "send_response", InterviewID: id, CandidateAnswer: "On-call for a CDN."}, types.PhaseInProgress},
		{types.ActionRequest{Action: "end_interview", InterviewID: id}, types.PhaseCompleted},
		{types.ActionRequest{Action: "evaluate", InterviewID: id}, types.PhaseEvaluated},
		{types.ActionRequest{Action: "coach", InterviewID: id}, types.PhaseCoached},
		{types.ActionRequest{Action: "get_report", InterviewID: id}, types.PhaseCoached},
	}
	for _, step := range steps {
		res, err := o.Dispatch(ctx, candidate, step.req)
		require.NoError(t, err, step.req.Action)
		assert.Equal(t, step.phase, res.Phase, step.req.Action)
	}

	history, err := o.Dispatch(ctx, candidate, types.ActionRequest{Action: "get_history"})
	require.NoError(t, err)
	assert.Len(t, history.History, 1)

	stats, err := o.Dispatch(ctx, candidate, types.ActionRequest{Action: "get_stats"})
	require.NoError(t, err)
	require.NotNil(t, stats.Stats)
	assert.Equal(t, 1, stats.Stats.EvaluatedInterviews)

	deleted, err := o.Dispatch(ctx, candidate, types.ActionRequest{Action: "delete_interview", InterviewID: id})
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
}

func TestDispatch_Validation(t *testing.T) {
	o, _ := newTestOrchestrator(t, scripted())

	tests := []struct {
		name  string
		req   types.ActionRequest
		field string
	}{
		{"unknown action", types.ActionRequest{Action: "restart"}, "action"},
		{"missing action", types.ActionRequest{}, "action"},
		{"missing interview id", types.ActionRequest{Action: "evaluate"}, "interview_id"},
		{"malformed interview id", types.ActionRequest{Action: "evaluate", InterviewID: "not-a-uuid"}, "InterviewID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Dispatch(context.Background(), uuid.Nil, tt.req)
			var validation *ValidationError
			requireKind(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
			assert.Equal(t, "validation", ErrorKind(err))
		})
	}
}
