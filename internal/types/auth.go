package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is shared by all request types.
var validate = validator.New()

// RegisterCandidateRequest represents the request to create a candidate account.
type RegisterCandidateRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest represents a password change by the signed-in candidate.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
}

// Candidate represents a candidate profile for API responses.
type Candidate struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse represents the login/register response with candidate data and authentication token.
type LoginResponse struct {
	Candidate *Candidate `json:"candidate"`
	Token     string     `json:"token"`
}

// StartInterviewRequest carries the payload of start_interview.
type StartInterviewRequest struct {
	JobRole         string `json:"job_role" validate:"required,max=200"`
	ExperienceLevel string `json:"experience_level" validate:"required,max=100"`
}

// SubmitResponseRequest carries the payload of send_response.
type SubmitResponseRequest struct {
	CandidateAnswer string `json:"candidate_answer" validate:"required,max=20000"`
}

// CoachRequest carries the optional evaluation override of coach.
type CoachRequest struct {
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// ActionRequest is the single-envelope form of every interview action.
type ActionRequest struct {
	Action          string      `json:"action" validate:"required"`
	InterviewID     string      `json:"interview_id,omitempty" validate:"omitempty,uuid"`
	JobRole         string      `json:"job_role,omitempty"`
	ExperienceLevel string      `json:"experience_level,omitempty"`
	CandidateAnswer string      `json:"candidate_answer,omitempty"`
	Evaluation      *Evaluation `json:"evaluation,omitempty"`
}

// Validate validates the RegisterCandidateRequest using the validator.
func (r *RegisterCandidateRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the UpdatePasswordRequest using the validator.
func (r *UpdatePasswordRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the StartInterviewRequest using the validator.
func (r *StartInterviewRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the SubmitResponseRequest using the validator.
func (r *SubmitResponseRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the ActionRequest using the validator.
func (r *ActionRequest) Validate() error {
	return validate.Struct(r)
}
