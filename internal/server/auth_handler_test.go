package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/types"
)

func TestAuthHandler_Register(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Jane Doe", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[types.LoginResponse](t, w)
	require.NotNil(t, resp.Candidate)
	assert.Equal(t, "jane@example.com", resp.Candidate.Email)
	assert.NotContains(t, w.Body.String(), "password")

	claims, err := ts.jwtService.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Candidate.ID, claims.CandidateID)

	w = ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Jane Again", "email": "jane@example.com", "password": "password456",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"invalid json", "invalid json", "Invalid request body"},
		{"missing name", map[string]string{"email": "test@example.com", "password": "password123"}, "Name"},
		{"invalid email", map[string]string{"name": "Test", "email": "invalid-email", "password": "password123"}, "Email"},
		{"password too short", map[string]string{"name": "Test", "email": "test@example.com", "password": "short"}, "Password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := newTestServer(t, nil)
	_, candidateID := ts.register(t, "login@example.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"valid credentials", map[string]string{"email": "login@example.com", "password": "password123"}, http.StatusOK},
		{"wrong password", map[string]string{"email": "login@example.com", "password": "wrong-password"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "password123"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "login@example.com"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/auth/login", "", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			resp := decode[types.LoginResponse](t, w)
			assert.Equal(t, candidateID, resp.Candidate.ID)
			assert.NotEmpty(t, resp.Token)
		})
	}

	// Unknown email and wrong password give the same message
	wrong := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "login@example.com", "password": "nope-nope"})
	unknown := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "nope-nope"})
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestAuthHandler_MeAndPassword(t *testing.T) {
	ts := newTestServer(t, nil)
	token, candidateID := ts.register(t, "me@example.com")

	w := ts.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, candidateID, decode[types.Candidate](t, w).ID)

	w = ts.do(t, http.MethodPost, "/me/password", token, map[string]string{
		"current_password": "wrong-password", "new_password": "new-password-1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/me/password", token, map[string]string{
		"current_password": "password123", "new_password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/me/password", token, map[string]string{
		"current_password": "password123", "new_password": "new-password-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "me@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "me@example.com", "password": "new-password-1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, nil)
	huge := `{"name":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	w := ts.do(t, http.MethodPost, "/auth/register", "", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
