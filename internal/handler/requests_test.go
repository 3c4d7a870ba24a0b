package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"valid", RegisterRequest{Email: "a@b.co", Password: "longenough", FirstName: "Ada"}, false},
		{"bad email", RegisterRequest{Email: "nope", Password: "longenough", FirstName: "Ada"}, true},
		{"short password", RegisterRequest{Email: "a@b.co", Password: "short", FirstName: "Ada"}, true},
		{"password over bcrypt limit", RegisterRequest{Email: "a@b.co", Password: string(make([]byte, 80)), FirstName: "Ada"}, true},
		{"missing first name", RegisterRequest{Email: "a@b.co", Password: "longenough"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginRequestValidation(t *testing.T) {
	assert.NoError(t, (&LoginRequest{Email: "a@b.co", Password: "x"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "a@b.co"}).Validate())
	assert.Error(t, (&LoginRequest{Password: "x"}).Validate())
}

func TestRefreshRequestValidation(t *testing.T) {
	assert.NoError(t, (&RefreshRequest{RefreshToken: "abc"}).Validate())
	assert.Error(t, (&RefreshRequest{}).Validate())
}

func TestLogoutRequestValidation(t *testing.T) {
	// The refresh token is optional on logout.
	assert.NoError(t, (&LogoutRequest{}).Validate())
}

func TestNoteRequestValidation(t *testing.T) {
	assert.NoError(t, (&CreateNoteRequest{Title: "t"}).Validate())
	assert.Error(t, (&CreateNoteRequest{}).Validate())

	assert.NoError(t, (&NoteIDRequest{ID: "3e0679fe-9d39-4112-a1eb-43c0e42a4e01"}).Validate())
	assert.Error(t, (&NoteIDRequest{ID: "42"}).Validate())
	assert.Error(t, (&NoteIDRequest{}).Validate())
}

func TestListUsersRequestValidation(t *testing.T) {
	assert.NoError(t, (&ListUsersRequest{}).Validate())
	assert.NoError(t, (&ListUsersRequest{Limit: 100}).Validate())
	assert.Error(t, (&ListUsersRequest{Limit: 5000}).Validate())
}

func TestNewRequestAllocatesPerCall(t *testing.T) {
	prototype := &CreateNoteRequest{}

	first := newRequest(prototype)
	second := newRequest(prototype)

	require.NotSame(t, prototype, first)
	require.NotSame(t, first, second)

	first.Title = "mutated"
	assert.Empty(t, second.Title)
	assert.Empty(t, prototype.Title)
}
