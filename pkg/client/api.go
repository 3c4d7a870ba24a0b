package client

import (
	"context"
	"net/http"
	"time"
)

// User is the API's public user representation.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPair is the credential set returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginResult is the login response: profile plus tokens.
type LoginResult struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// Note is the API's note representation.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteList is the list endpoint payload.
type NoteList struct {
	Notes []Note `json:"notes"`
	Count int    `json:"count"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password, firstName string) (*User, error) {
	payload := map[string]string{
		"email":      email,
		"password":   password,
		"first_name": firstName,
	}

	var user User
	if err := c.Request(ctx, http.MethodPost, "/api/v1/auth/register", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and stores the access token in the TokenStore, so
// subsequent calls on this client are authenticated.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var result LoginResult
	if err := c.Request(ctx, http.MethodPost, "/api/v1/auth/login", payload, &result); err != nil {
		return nil, err
	}

	if err := c.tokens.SetToken(result.Tokens.AccessToken); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist access token")
		return nil, err
	}

	return &result, nil
}

// Refresh exchanges a refresh token for a new pair and stores the new
// access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	payload := map[string]string{"refresh_token": refreshToken}

	var pair TokenPair
	if err := c.Request(ctx, http.MethodPost, "/api/v1/auth/refresh", payload, &pair); err != nil {
		return nil, err
	}

	if err := c.tokens.SetToken(pair.AccessToken); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist access token")
		return nil, err
	}

	return &pair, nil
}

// Logout revokes the current session server-side and clears the stored
// token either way.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	payload := map[string]string{}
	if refreshToken != "" {
		payload["refresh_token"] = refreshToken
	}

	err := c.Request(ctx, http.MethodPost, "/api/v1/auth/logout", payload, nil)

	if clearErr := c.tokens.SetToken(""); clearErr != nil {
		c.logger.Error().Err(clearErr).Msg("failed to clear stored token")
	}

	return err
}

// Me returns the profile behind the stored credentials.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.Request(ctx, http.MethodGet, "/api/v1/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateNote creates a note owned by the authenticated user.
func (c *Client) CreateNote(ctx context.Context, title, body string) (*Note, error) {
	payload := map[string]string{"title": title, "body": body}

	var note Note
	if err := c.Request(ctx, http.MethodPost, "/api/v1/notes", payload, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// GetNote fetches a single note by id.
func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	var note Note
	if err := c.Request(ctx, http.MethodGet, "/api/v1/notes/"+id, nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListNotes returns the authenticated user's notes.
func (c *Client) ListNotes(ctx context.Context) (*NoteList, error) {
	var list NoteList
	if err := c.Request(ctx, http.MethodGet, "/api/v1/notes", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateNote replaces a note's title and body.
func (c *Client) UpdateNote(ctx context.Context, id, title, body string) (*Note, error) {
	payload := map[string]string{"title": title, "body": body}

	var note Note
	if err := c.Request(ctx, http.MethodPut, "/api/v1/notes/"+id, payload, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote deletes a note by id.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.Request(ctx, http.MethodDelete, "/api/v1/notes/"+id, nil, nil)
}
