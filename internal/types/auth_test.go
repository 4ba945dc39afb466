//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCandidateRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request RegisterCandidateRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid request",
			request: RegisterCandidateRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "password123"},
		},
		{
			name:    "missing name",
			request: RegisterCandidateRequest{Email: "jane@example.com", Password: "password123"},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name:    "invalid email format",
			request: RegisterCandidateRequest{Name: "Jane", Email: "not-an-email", Password: "password123"},
			wantErr: true,
			errMsg:  "email",
		},
		{
			name:    "short password",
			request: RegisterCandidateRequest{Name: "Jane", Email: "jane@example.com", Password: "short"},
			wantErr: true,
			errMsg:  "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoginRequest_Validation(t *testing.T) {
	assert.NoError(t, (&LoginRequest{Email: "a@example.com", Password: "x"}).Validate())

	err := (&LoginRequest{Email: "a@example.com"}).Validate()
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Password", verrs[0].Field())
}

func TestUpdatePasswordRequest_Validation(t *testing.T) {
	assert.NoError(t, (&UpdatePasswordRequest{CurrentPassword: "old-password", NewPassword: "new-password"}).Validate())
	assert.Error(t, (&UpdatePasswordRequest{CurrentPassword: "old-password", NewPassword: "short"}).Validate())
	assert.Error(t, (&UpdatePasswordRequest{CurrentPassword: "same-password", NewPassword: "same-password"}).Validate())
	assert.Error(t, (&UpdatePasswordRequest{NewPassword: "new-password"}).Validate())
}

func TestStartInterviewRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request StartInterviewRequest
		wantErr bool
	}{
		{"valid", StartInterviewRequest{JobRole: "Software Engineer", ExperienceLevel: "3+ years"}, false},
		{"missing role", StartInterviewRequest{ExperienceLevel: "3+ years"}, true},
		{"missing level", StartInterviewRequest{JobRole: "Software Engineer"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActionRequest_Validation(t *testing.T) {
	assert.NoError(t, (&ActionRequest{Action: "end_interview", InterviewID: uuid.NewString()}).Validate())
	assert.Error(t, (&ActionRequest{Action: "end_interview", InterviewID: "not-a-uuid"}).Validate())
	assert.Error(t, (&ActionRequest{}).Validate())
}

func TestLoginResponse_JSON(t *testing.T) {
	resp := LoginResponse{
		Candidate: &Candidate{
			ID:        uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
			Name:      "Jane",
			Email:     "jane@example.com",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Token: "tok",
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"token":"tok"`)
	assert.Contains(t, string(data), `"email":"jane@example.com"`)
	assert.NotContains(t, string(data), "password")
}
