package interview

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

// DefaultHistoryLimit is used by the envelope form of get_history.
const DefaultHistoryLimit = 20

// Dispatch runs one action from the single-envelope request form.
func (o *Orchestrator) Dispatch(ctx context.Context, candidateID uuid.UUID, req types.ActionRequest) (*Result, error) {
	action, err := ParseAction(req.Action)
	if err != nil {
		return nil, &ActionError{Action: Action(req.Action), Err: &ValidationError{Field: "action", Message: err.Error()}}
	}
	if err := req.Validate(); err != nil {
		return nil, &ActionError{Action: action, Err: validationError(err)}
	}

	switch action {
	case ActionStart:
		return o.Start(ctx, candidateID, req.JobRole, req.ExperienceLevel)
	case ActionHistory:
		list, err := o.History(ctx, candidateID, DefaultHistoryLimit)
		if err != nil {
			return nil, err
		}
		return &Result{History: list}, nil
	case ActionStats:
		stats, err := o.Stats(ctx, candidateID)
		if err != nil {
			return nil, err
		}
		return &Result{Stats: &stats}, nil
	}

	if req.InterviewID == "" {
		return nil, &ActionError{Action: action, Err: &ValidationError{Field: "interview_id", Message: "required"}}
	}
	id, err := uuid.Parse(req.InterviewID)
	if err != nil {
		return nil, &ActionError{Action: action, Err: &ValidationError{Field: "interview_id", Message: "must be a UUID"}}
	}

	switch action {
	case ActionSubmitResponse:
		return o.SubmitResponse(ctx, candidateID, id, req.CandidateAnswer)
	case ActionEnd:
		return o.End(ctx, candidateID, id)
	case ActionEvaluate:
		return o.Evaluate(ctx, candidateID, id)
	case ActionCoach:
		return o.Coach(ctx, candidateID, id, req.Evaluation)
	case ActionReport:
		rep, err := o.Report(ctx, candidateID, id)
		if err != nil {
			return nil, err
		}
		return &Result{SessionID: id, Phase: rep.Phase, QuestionsAsked: rep.QuestionsAsked, Report: rep}, nil
	case ActionDelete:
		if err := o.Delete(ctx, candidateID, id); err != nil {
			return nil, err
		}
		return &Result{SessionID: id, Deleted: true}, nil
	}
	return nil, &ActionError{SessionID: id, Action: action, Err: &ValidationError{Field: "action", Message: "unsupported"}}
}
