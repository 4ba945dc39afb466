// Package interview runs the mock interview state machine.
//
// Every action loads the session, checks the phase transition, calls the role adapter,
// and commits the result with a compare-and-set on the session revision. Nothing is
// written until the completion call and the parse have both succeeded, so a failed or
// timed-out action leaves the session exactly as it was.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/agents"
	"github.com/jonathan/interview-coach/internal/conversation"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/metrics"
	"github.com/jonathan/interview-coach/internal/report"
	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
)

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Store      store.SessionStore
	Completion llm.CompletionService
	Roles      map[string]agents.Settings // Missing roles use agents.DefaultSettings
	WindowSize int                        // Defaults to conversation.DefaultWindowSize
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
	Tracer     trace.Tracer
	Now        func() time.Time
	NewID      func() uuid.UUID
}

// Orchestrator sequences the interviewer, evaluator and coach over a session.
type Orchestrator struct {
	store      store.SessionStore
	completion llm.CompletionService
	roles      map[string]agents.Settings
	windowSize int
	log        *logging.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() uuid.UUID

	interviewer *agents.Interviewer
	evaluator   *agents.Evaluator
	coach       *agents.Coach
	reports     *report.Builder
}

// Result is the outcome of an action. Only the fields relevant to the action are set.
type Result struct {
	SessionID      uuid.UUID              `json:"interview_id"`
	Phase          types.Phase            `json:"phase,omitempty"`
	Message        string                 `json:"message,omitempty"` // Opening message or next question
	Question       *types.TurnMetadata    `json:"question_details,omitempty"`
	QuestionsAsked int                    `json:"questions_asked"`
	EndedAt        *time.Time             `json:"ended_at,omitempty"`
	Evaluation     *types.Evaluation      `json:"evaluation,omitempty"`
	Coaching       *types.CoachingPlan    `json:"coaching,omitempty"`
	Report         *types.Report          `json:"report,omitempty"`
	History        []types.SessionSummary `json:"history,omitempty"`
	Stats          *types.CandidateStats  `json:"stats,omitempty"`
	Deleted        bool                   `json:"deleted,omitempty"`
}

// New creates an orchestrator. Store and Completion are required.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Completion == nil {
		return nil, fmt.Errorf("completion service is required")
	}

	roles := make(map[string]agents.Settings, len(agents.Roles()))
	for _, role := range agents.Roles() {
		settings, ok := deps.Roles[role]
		if !ok {
			settings = agents.DefaultSettings(role)
		}
		if settings.PromptKey == "" {
			settings.PromptKey = agents.DefaultSettings(role).PromptKey
		}
		roles[role] = settings
	}

	o := &Orchestrator{
		store:      deps.Store,
		completion: deps.Completion,
		roles:      roles,
		windowSize: deps.WindowSize,
		log:        deps.Logger,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		now:        deps.Now,
		newID:      deps.NewID,
	}
	if o.windowSize <= 0 {
		o.windowSize = conversation.DefaultWindowSize
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("interview")
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	if o.newID == nil {
		o.newID = uuid.New
	}

	o.interviewer = agents.NewInterviewer(roles[agents.RoleInterviewer].PromptKey)
	o.evaluator = agents.NewEvaluator(roles[agents.RoleEvaluator].PromptKey)
	o.coach = agents.NewCoach(roles[agents.RoleCoach].PromptKey)
	o.reports = report.NewBuilder(deps.Store)
	return o, nil
}

// Start creates a session in INIT with the interviewer's opening turn.
func (o *Orchestrator) Start(ctx context.Context, candidateID uuid.UUID, jobRole, experienceLevel string) (res *Result, err error) {
	id := o.newID()
	ctx, done := o.begin(ctx, ActionStart, id)
	defer func() { done(err) }()

	req := types.StartInterviewRequest{
		JobRole:         strings.TrimSpace(jobRole),
		ExperienceLevel: strings.TrimSpace(experienceLevel),
	}
	if err := req.Validate(); err != nil {
		return nil, o.fail(ActionStart, id, "", validationError(err))
	}

	now := o.now()
	session := types.Session{
		ID:              id,
		JobRole:         req.JobRole,
		ExperienceLevel: req.ExperienceLevel,
		Phase:           types.PhaseInit,
		CreatedAt:       now,
	}
	if candidateID != uuid.Nil {
		owner := candidateID
		session.CandidateID = &owner
	}

	progress(ctx, ActionStart, id, "invoking", "asking interviewer for an opening")
	turn, err := agents.Run(ctx, o.completion, o.interviewer, o.roles[agents.RoleInterviewer], agents.Input{Session: session})
	if err != nil {
		return nil, o.fail(ActionStart, id, types.PhaseInit, err)
	}

	rec := store.NewRecord(session)
	opening := rec.Log.NextTurn(types.SpeakerInterviewer, turn.Question, o.now())
	opening.Metadata = turn.Metadata()
	if err := rec.Log.Append(opening); err != nil {
		return nil, o.fail(ActionStart, id, types.PhaseInit, err)
	}

	if err := o.store.Create(ctx, rec); err != nil {
		return nil, o.fail(ActionStart, id, types.PhaseInit, &PersistenceError{Op: "create", Cause: err})
	}
	progress(ctx, ActionStart, id, "persisted", "interview created")

	return &Result{
		SessionID: id,
		Phase:     types.PhaseInit,
		Message:   turn.Question,
		Question:  opening.Metadata,
	}, nil
}

// SubmitResponse records the candidate's answer and the interviewer's next question.
func (o *Orchestrator) SubmitResponse(ctx context.Context, candidateID, id uuid.UUID, answer string) (res *Result, err error) {
	ctx, done := o.begin(ctx, ActionSubmitResponse, id)
	defer func() { done(err) }()

	req := types.SubmitResponseRequest{CandidateAnswer: strings.TrimSpace(answer)}
	if err := req.Validate(); err != nil {
		return nil, o.fail(ActionSubmitResponse, id, "", validationError(err))
	}

	rec, err := o.load(ctx, candidateID, id)
	if err != nil {
		return nil, o.fail(ActionSubmitResponse, id, "", err)
	}
	from := rec.Session.Phase
	to, err := NextPhase(ActionSubmitResponse, from)
	if err != nil {
		return nil, o.fail(ActionSubmitResponse, id, from, err)
	}

	now := o.now()
	pending := rec.Log.Clone()
	if err := pending.Append(pending.NextTurn(types.SpeakerCandidate, req.CandidateAnswer, now)); err != nil {
		return nil, o.fail(ActionSubmitResponse, id, from, err)
	}

	progress(ctx, ActionSubmitResponse, id, "invoking", "asking interviewer for the next question")
	turn, err := agents.Run(ctx, o.completion, o.interviewer, o.roles[agents.RoleInterviewer], agents.Input{
		Session: rec.Session,
		Window:  pending.Window(o.windowSize),
	})
	if err != nil {
		return nil, o.fail(ActionSubmitResponse, id, from, err)
	}

	updated, err := o.store.ConditionalUpdate(ctx, id, from, rec.Session.Revision, func(r *store.Record) error {
		if err := r.Log.Append(r.Log.NextTurn(types.SpeakerCandidate, req.CandidateAnswer, now)); err != nil {
			return err
		}
		question := r.Log.NextTurn(types.SpeakerInterviewer, turn.Question, o.now())
		question.Metadata = turn.Metadata()
		if err := r.Log.Append(question); err != nil {
			return err
		}
		r.Session.Phase = to
		r.Session.QuestionsAsked++
		return nil
	})
	if err != nil {
		return nil, o.fail(ActionSubmitResponse, id, from, storeError("update", id, err))
	}
	o.committed(ctx, ActionSubmitResponse, id, from, to)

	return &Result{
		SessionID:      id,
		Phase:          updated.Session.Phase,
		Message:        turn.Question,
		Question:       turn.Metadata(),
		QuestionsAsked: updated.Session.QuestionsAsked,
	}, nil
}

// End closes the conversation. No completion call is made.
func (o *Orchestrator) End(ctx context.Context, candidateID, id uuid.UUID) (res *Result, err error) {
	ctx, done := o.begin(ctx, ActionEnd, id)
	defer func() { done(err) }()

	rec, err := o.load(ctx, candidateID, id)
	if err != nil {
		return nil, o.fail(ActionEnd, id, "", err)
	}
	from := rec.Session.Phase
	to, err := NextPhase(ActionEnd, from)
	if err != nil {
		return nil, o.fail(ActionEnd, id, from, err)
	}

	ended := o.now()
	updated, err := o.store.ConditionalUpdate(ctx, id, from, rec.Session.Revision, func(r *store.Record) error {
		r.Session.Phase = to
		r.Session.EndedAt = &ended
		return nil
	})
	if err != nil {
		return nil, o.fail(ActionEnd, id, from, storeError("update", id, err))
	}
	o.committed(ctx, ActionEnd, id, from, to)

	return &Result{
		SessionID:      id,
		Phase:          updated.Session.Phase,
		QuestionsAsked: updated.Session.QuestionsAsked,
		EndedAt:        updated.Session.EndedAt,
	}, nil
}

// Evaluate scores the full transcript of a completed interview.
func (o *Orchestrator) Evaluate(ctx context.Context, candidateID, id uuid.UUID) (res *Result, err error) {
	ctx, done := o.begin(ctx, ActionEvaluate, id)
	defer func() { done(err) }()

	rec, err := o.load(ctx, candidateID, id)
	if err != nil {
		return nil, o.fail(ActionEvaluate, id, "", err)
	}
	from := rec.Session.Phase
	to, err := NextPhase(ActionEvaluate, from)
	if err != nil {
		return nil, o.fail(ActionEvaluate, id, from, err)
	}

	progress(ctx, ActionEvaluate, id, "invoking", "evaluating transcript")
	eval, err := agents.Run(ctx, o.completion, o.evaluator, o.roles[agents.RoleEvaluator], agents.Input{
		Session:    rec.Session,
		Transcript: rec.Log.Turns(),
	})
	if err != nil {
		return nil, o.fail(ActionEvaluate, id, from, err)
	}
	eval.SessionID = id
	eval.CreatedAt = o.now()

	_, err = o.store.ConditionalUpdate(ctx, id, from, rec.Session.Revision, func(r *store.Record) error {
		stored := eval
		r.Evaluation = &stored
		r.Session.Phase = to
		return nil
	})
	if err != nil {
		return nil, o.fail(ActionEvaluate, id, from, storeError("update", id, err))
	}
	o.committed(ctx, ActionEvaluate, id, from, to)

	return &Result{
		SessionID:      id,
		Phase:          to,
		QuestionsAsked: rec.Session.QuestionsAsked,
		Evaluation:     &eval,
	}, nil
}

// Coach builds a preparation plan. A supplied evaluation is validated and used as
// coaching input; otherwise the stored evaluation is used.
func (o *Orchestrator) Coach(ctx context.Context, candidateID, id uuid.UUID, supplied *types.Evaluation) (res *Result, err error) {
	ctx, done := o.begin(ctx, ActionCoach, id)
	defer func() { done(err) }()

	if supplied != nil {
		if err := supplied.Validate(); err != nil {
			return nil, o.fail(ActionCoach, id, "", &ValidationError{Field: "evaluation", Message: err.Error()})
		}
	}

	rec, err := o.load(ctx, candidateID, id)
	if err != nil {
		return nil, o.fail(ActionCoach, id, "", err)
	}
	from := rec.Session.Phase
	to, err := NextPhase(ActionCoach, from)
	if err != nil {
		return nil, o.fail(ActionCoach, id, from, err)
	}

	eval := rec.Evaluation
	if supplied != nil {
		input := *supplied
		input.SessionID = id
		input.Recommendation, _ = types.ParseRecommendation(string(supplied.Recommendation))
		eval = &input
	}
	if eval == nil {
		return nil, o.fail(ActionCoach, id, from, &ValidationError{Field: "evaluation", Message: "no evaluation available"})
	}

	progress(ctx, ActionCoach, id, "invoking", "building coaching plan")
	plan, err := agents.Run(ctx, o.completion, o.coach, o.roles[agents.RoleCoach], agents.Input{
		Session:    rec.Session,
		Transcript: rec.Log.Turns(),
		Evaluation: eval,
	})
	if err != nil {
		return nil, o.fail(ActionCoach, id, from, err)
	}
	plan.SessionID = id
	plan.CreatedAt = o.now()

	_, err = o.store.ConditionalUpdate(ctx, id, from, rec.Session.Revision, func(r *store.Record) error {
		stored := plan
		r.Coaching = &stored
		r.Session.Phase = to
		return nil
	})
	if err != nil {
		return nil, o.fail(ActionCoach, id, from, storeError("update", id, err))
	}
	o.committed(ctx, ActionCoach, id, from, to)

	return &Result{
		SessionID:      id,
		Phase:          to,
		QuestionsAsked: rec.Session.QuestionsAsked,
		Coaching:       &plan,
	}, nil
}

// Report returns the read-only report of an interview at or after COMPLETED.
func (o *Orchestrator) Report(ctx context.Context, candidateID, id uuid.UUID) (rep *types.Report, err error) {
	ctx, done := o.begin(ctx, ActionReport, id)
	defer func() { done(err) }()

	session, err := o.session(ctx, candidateID, id)
	if err != nil {
		return nil, o.fail(ActionReport, id, "", err)
	}

	rep, err = o.reports.Build(ctx, id)
	if err != nil {
		var notReady *report.NotReadyError
		if !errors.As(err, &notReady) {
			err = storeError("read", id, err)
		}
		return nil, o.fail(ActionReport, id, session.Phase, err)
	}
	return rep, nil
}

// Session returns the session row of an owned interview.
func (o *Orchestrator) Session(ctx context.Context, candidateID, id uuid.UUID) (*types.Session, error) {
	session, err := o.session(ctx, candidateID, id)
	if err != nil {
		return nil, &ActionError{SessionID: id, Action: ActionReport, Err: err}
	}
	return session, nil
}

// History lists the candidate's interviews, newest first.
func (o *Orchestrator) History(ctx context.Context, candidateID uuid.UUID, limit int) (list []types.SessionSummary, err error) {
	ctx, done := o.begin(ctx, ActionHistory, uuid.Nil)
	defer func() { done(err) }()

	list, err = o.store.ListByCandidate(ctx, candidateID, store.NormalizeLimit(limit))
	if err != nil {
		return nil, o.fail(ActionHistory, uuid.Nil, "", &PersistenceError{Op: "list", Cause: err})
	}
	if list == nil {
		list = []types.SessionSummary{}
	}
	return list, nil
}

// Stats aggregates the candidate's interview history.
func (o *Orchestrator) Stats(ctx context.Context, candidateID uuid.UUID) (stats types.CandidateStats, err error) {
	ctx, done := o.begin(ctx, ActionStats, uuid.Nil)
	defer func() { done(err) }()

	stats, err = o.store.Stats(ctx, candidateID)
	if err != nil {
		return types.CandidateStats{}, o.fail(ActionStats, uuid.Nil, "", &PersistenceError{Op: "stats", Cause: err})
	}
	return stats, nil
}

// Delete removes an owned interview with its turns and results.
func (o *Orchestrator) Delete(ctx context.Context, candidateID, id uuid.UUID) (err error) {
	ctx, done := o.begin(ctx, ActionDelete, id)
	defer func() { done(err) }()

	session, err := o.session(ctx, candidateID, id)
	if err != nil {
		return o.fail(ActionDelete, id, "", err)
	}
	if err := o.store.Delete(ctx, id); err != nil {
		return o.fail(ActionDelete, id, session.Phase, storeError("delete", id, err))
	}
	return nil
}

// load reads the full record. Sessions of other candidates are reported as not found.
func (o *Orchestrator) load(ctx context.Context, candidateID, id uuid.UUID) (*store.Record, error) {
	rec, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, storeError("load", id, err)
	}
	if !rec.Session.OwnedBy(candidateID) {
		return nil, &NotFoundError{SessionID: id}
	}
	return rec, nil
}

func (o *Orchestrator) session(ctx context.Context, candidateID, id uuid.UUID) (*types.Session, error) {
	session, err := o.store.GetSession(ctx, id)
	if err != nil {
		return nil, storeError("load", id, err)
	}
	if !session.OwnedBy(candidateID) {
		return nil, &NotFoundError{SessionID: id}
	}
	return session, nil
}

func (o *Orchestrator) fail(action Action, id uuid.UUID, phase types.Phase, err error) error {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return err
	}
	if phase == "" {
		var transition *InvalidTransitionError
		if errors.As(err, &transition) {
			phase = transition.Phase
		}
	}
	return &ActionError{SessionID: id, Phase: phase, Action: action, Err: err}
}

// begin opens the span and returns the function that records the outcome.
func (o *Orchestrator) begin(ctx context.Context, action Action, id uuid.UUID) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "interview."+string(action),
		trace.WithAttributes(attribute.String("interview.action", string(action))))
	if id != uuid.Nil {
		span.SetAttributes(attribute.String("interview.id", id.String()))
		ctx = logging.WithSessionID(ctx, id.String())
	}

	return ctx, func(err error) {
		defer span.End()
		outcome := ErrorKind(err)
		elapsed := time.Since(start)
		o.metrics.ObserveAction(string(action), outcome, elapsed)

		fields := []zap.Field{
			zap.String("action", string(action)),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
		}
		if err == nil {
			o.log.Info(ctx, "interview action completed", fields...)
			return
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		fields = append(fields, zap.Error(err))
		switch outcome {
		case "persistence", "fatal", "error":
			o.log.Error(ctx, "interview action failed", fields...)
		default:
			o.log.Warn(ctx, "interview action rejected", fields...)
		}
	}
}

func (o *Orchestrator) committed(ctx context.Context, action Action, id uuid.UUID, from, to types.Phase) {
	o.metrics.PhaseTransition(string(from), string(to))
	progress(ctx, action, id, "persisted", fmt.Sprintf("phase %s -> %s", from, to))
	if from != to {
		o.log.Info(ctx, "phase transition", zap.String("from", string(from)), zap.String("to", string(to)))
	}
}

// ErrorKind names the class of an orchestrator error. It is the outcome label of action metrics.
func ErrorKind(err error) string {
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		transition  *InvalidTransitionError
		conflict    *ConcurrentModificationError
		malformed   *agents.MalformedResultError
		transient   *llm.TransientError
		fatal       *llm.FatalError
		persistence *PersistenceError
		notReady    *report.NotReadyError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &transition):
		return "invalid_transition"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &notReady):
		return "not_ready"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &transient):
		return "transient"
	case errors.As(err, &fatal):
		return "fatal"
	case errors.As(err, &persistence):
		return "persistence"
	default:
		return "error"
	}
}

func validationError(err error) *ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag())}
	}
	return &ValidationError{Message: err.Error()}
}
