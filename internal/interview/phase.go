package interview

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

// Action names an orchestrator operation. The values match the action envelope.
type Action string

// Action constants.
const (
	ActionStart          Action = "start_interview"
	ActionSubmitResponse Action = "send_response"
	ActionEnd            Action = "end_interview"
	ActionEvaluate       Action = "evaluate"
	ActionCoach          Action = "coach"
	ActionReport         Action = "get_report"
	ActionHistory        Action = "get_history"
	ActionStats          Action = "get_stats"
	ActionDelete         Action = "delete_interview"
)

// ParseAction converts an envelope action name into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.TrimSpace(s))
	switch a {
	case ActionStart, ActionSubmitResponse, ActionEnd, ActionEvaluate, ActionCoach,
		ActionReport, ActionHistory, ActionStats, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("unknown action: %q", s)
}

type transition struct {
	from []types.Phase
	to   types.Phase
}

// transitions lists the phase-changing actions. get_report is gated by the report builder.
var transitions = map[Action]transition{
	ActionSubmitResponse: {from: []types.Phase{types.PhaseInit, types.PhaseInProgress}, to: types.PhaseInProgress},
	ActionEnd:            {from: []types.Phase{types.PhaseInProgress}, to: types.PhaseCompleted},
	ActionEvaluate:       {from: []types.Phase{types.PhaseCompleted}, to: types.PhaseEvaluated},
	ActionCoach:          {from: []types.Phase{types.PhaseEvaluated}, to: types.PhaseCoached},
}

// NextPhase returns the phase an action moves the session to, or InvalidTransitionError.
func NextPhase(action Action, current types.Phase) (types.Phase, error) {
	t, ok := transitions[action]
	if !ok {
		return "", &InvalidTransitionError{Action: action, Phase: current}
	}
	for _, p := range t.from {
		if p == current {
			return t.to, nil
		}
	}
	return "", &InvalidTransitionError{Action: action, Phase: current}
}
