package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
)

// handleStartInterview handles POST /interviews
func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidate(w, r)
	if !ok {
		return
	}
	var req types.StartInterviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.orchestrator.Start(r.Context(), candidateID, req.JobRole, req.ExperienceLevel)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// handleGetInterview handles GET /interviews/{id}
func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	candidateID, id, ok := s.interviewTarget(w, r)
	if !ok {
		return
	}
	session, err := s.orchestrator.Session(r.Context(), candidateID, id)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, session)
}

// handleSubmitResponse handles POST /interviews/{id}/responses
func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	candidateID, id, ok := s.interviewTarget(w, r)
	if !ok {
		return
	}
	var req types.SubmitResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.orchestrator.SubmitResponse(r.Context(), candidateID, id, req.CandidateAnswer)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// handleEndInterview handles POST /interviews/{id}/end
func (s *Server) handleEndInterview(w http.ResponseWriter, r *http.Request) {
	candidateID, id, ok := s.interviewTarget(w, r)
	if !ok {
		return
	}
	res, err := s.orchestrator.End(r.Context(), candidateID, id)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// handleEvaluate handles POST /interviews/{id}/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	candidateID, id, ok := s.interviewTarget(w, r)
	if !ok {
		return
	}
	res, err := s.orchestrator.Evaluate(r.Context(), candidateID, id)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// handleCoach handles POST /interviews/{id}/coach. The body is optional.
func (s *Server) handleCoach(w http.ResponseWriter, r *http.Request) {
	candidateID, id, ok := s.interviewTarget(w, r)
	if !ok {
		return
	}
	var req types.CoachRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	res, err := s.orchestrator.Coach(r.Context(), candidateID, id, req.Evaluation)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// handleReport handles GET /interviews/{id}/report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	candidateID, id, ok := s.interviewTarget(w, r)
	if !ok {
		return
	}
	rep, err := s.orchestrator.Report(r.Context(), candidateID, id)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}

// handleDeleteInterview handles DELETE /interviews/{id}
func (s *Server) handleDeleteInterview(w http.ResponseWriter, r *http.Request) {
	candidateID, id, ok := s.interviewTarget(w, r)
	if !ok {
		return
	}
	if err := s.orchestrator.Delete(r.Context(), candidateID, id); err != nil {
		s.actionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHistory handles GET /me/interviews?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidate(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	list, err := s.orchestrator.History(r.Context(), candidateID, limit)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"interviews": list})
}

// handleStats handles GET /me/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidate(w, r)
	if !ok {
		return
	}
	stats, err := s.orchestrator.Stats(r.Context(), candidateID)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// handleAction handles POST /actions
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidate(w, r)
	if !ok {
		return
	}
	var req types.ActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.orchestrator.Dispatch(r.Context(), candidateID, req)
	if err != nil {
		s.actionError(w, r, err)
		return
	}
	status := http.StatusOK
	if req.Action == string(interview.ActionStart) {
		status = http.StatusCreated
	}
	jsonResponse(w, status, res)
}

// handleActionStream handles POST /actions/stream, reporting progress as Server-Sent Events.
func (s *Server) handleActionStream(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := s.candidate(w, r)
	if !ok {
		return
	}
	var req types.ActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := interview.WithProgress(r.Context(), func(ev interview.ProgressEvent) {
		sse.WriteEvent("progress", ev) //nolint:errcheck
	})

	res, err := s.orchestrator.Dispatch(ctx, candidateID, req)
	if err != nil {
		status := s.logActionError(r, err)
		sse.WriteError(status, clientMessage(status, err))
		return
	}
	sse.WriteComplete(res)
}

// candidate returns the authenticated candidate, writing a 401 when absent.
func (s *Server) candidate(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	candidateID, err := middleware.GetCandidateID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return candidateID, true
}

// interviewTarget returns the candidate and the {id} path value.
func (s *Server) interviewTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	candidateID, ok := s.candidate(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid interview ID")
		return uuid.Nil, uuid.Nil, false
	}
	return candidateID, id, true
}

// actionError writes the mapped status and error kind of an orchestrator failure.
func (s *Server) actionError(w http.ResponseWriter, r *http.Request, err error) {
	status := s.logActionError(r, err)
	body := map[string]any{
		"error": clientMessage(status, err),
		"kind":  interview.ErrorKind(err),
	}
	var actionErr *interview.ActionError
	if errors.As(err, &actionErr) && actionErr.Phase != "" {
		body["phase"] = actionErr.Phase
	}
	jsonResponse(w, status, body)
}

// logActionError logs unexpected failures. The orchestrator already logs its own outcomes.
func (s *Server) logActionError(r *http.Request, err error) int {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error(r.Context(), "unexpected action error", zap.Error(err))
	}
	return status
}

// clientMessage hides internal details of 500s.
func clientMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
