package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/types"
	"go.uber.org/zap"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	candidates *CandidateService
	jwtService *JWTService
	log        *logging.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(candidates *CandidateService, jwtService *JWTService, log *logging.Logger) *AuthHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthHandler{
		candidates: candidates,
		jwtService: jwtService,
		log:        log,
	}
}

// Register handles candidate registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterCandidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	candidate, err := h.candidates.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "register failed", err)
		return
	}
	h.issueToken(w, r, http.StatusCreated, candidate)
}

// Login handles candidate login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	candidate, err := h.candidates.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "login failed", err)
		return
	}
	h.issueToken(w, r, http.StatusOK, candidate)
}

// Me returns the signed-in candidate's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	candidateID, err := middleware.GetCandidateID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	candidate, err := h.candidates.Get(r.Context(), candidateID)
	if err != nil {
		h.fail(w, r, "get candidate failed", err)
		return
	}
	jsonResponse(w, http.StatusOK, candidate)
}

// UpdatePassword changes the signed-in candidate's password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	candidateID, err := middleware.GetCandidateID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req types.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := h.candidates.UpdatePassword(r.Context(), candidateID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, "password update failed", err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, status int, candidate *types.Candidate) {
	token, err := h.jwtService.GenerateToken(candidate.ID)
	if err != nil {
		h.log.Error(r.Context(), "token generation failed", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	jsonResponse(w, status, types.LoginResponse{Candidate: candidate, Token: token})
}

// fail writes the mapped status. Internal errors are logged and not echoed to the client.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), msg, zap.Error(err))
		errorResponse(w, status, http.StatusText(status))
		return
	}
	errorResponse(w, status, err.Error())
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Return first validation error for simplicity
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}
