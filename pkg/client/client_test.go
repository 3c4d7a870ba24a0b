package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kterra/authbridge/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRejectsUnsupportedMethod(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	err := c.Request(context.Background(), "TRACE", "/api/v1/notes", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported HTTP method")
	assert.False(t, called, "no connection should be opened for a bad method")
}

func TestRequestSendsJSONAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "world", in["hello"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"pong": "yes"})
	}))
	defer srv.Close()

	c := client.New(srv.URL)

	var out map[string]string
	err := c.Request(context.Background(), http.MethodPost, "/api/v1/echo", map[string]string{"hello": "world"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "yes", out["pong"])
}

func TestRequestInjectsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := client.NewMemoryTokenStore()
	require.NoError(t, store.SetToken("tok-123"))

	c := client.New(srv.URL, client.WithTokenStore(store))
	require.NoError(t, c.Request(context.Background(), http.MethodGet, "/api/v1/users/me", nil, nil))
}

func TestRequestDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":     "UNAUTHORIZED",
			"message":  "Invalid email or password",
			"status":   401,
			"override": true,
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	err := c.Request(context.Background(), http.MethodGet, "/api/v1/users/me", nil, nil)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestRequestFallsBackOnNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	err := c.Request(context.Background(), http.MethodGet, "/x", nil, nil)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "BAD_GATEWAY", apiErr.Code)
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]string{"id": "u1", "email": "a@b.co"},
			"tokens": map[string]interface{}{
				"access_token":  "access-abc",
				"refresh_token": "refresh-def",
				"token_type":    "Bearer",
				"expires_in":    900,
			},
		})
	}))
	defer srv.Close()

	store := client.NewMemoryTokenStore()
	c := client.New(srv.URL, client.WithTokenStore(store))

	result, err := c.Login(context.Background(), "a@b.co", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u1", result.User.ID)

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-abc", token)
}

func TestLogoutClearsTokenEvenOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": "INTERNAL_SERVER_ERROR", "message": "boom", "status": 500,
		})
	}))
	defer srv.Close()

	store := client.NewMemoryTokenStore()
	require.NoError(t, store.SetToken("stale"))

	c := client.New(srv.URL, client.WithTokenStore(store))
	err := c.Logout(context.Background(), "")
	require.Error(t, err)

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileTokenStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "token.json")
	store := client.NewFileTokenStore(path)

	// Missing file reads as empty.
	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SetToken("my-jwt"))

	// The on-disk format is {"auth_token": "..."} with owner-only perms.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var data map[string]string
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, "my-jwt", data["auth_token"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A fresh store instance sees the persisted token.
	store2 := client.NewFileTokenStore(path)
	token, err = store2.Token()
	require.NoError(t, err)
	assert.Equal(t, "my-jwt", token)
}
