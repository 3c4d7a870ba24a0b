package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// authTokenKey is the JSON key under which the access token is persisted
// by FileTokenStore.
const authTokenKey = "auth_token"

// TokenStore holds the access token between calls. Implementations must
// be safe for concurrent use.
type TokenStore interface {
	// Token returns the stored access token, or "" when none is stored.
	Token() (string, error)

	// SetToken stores a new access token. Empty string clears it.
	SetToken(token string) error
}

// MemoryTokenStore keeps the token in process memory. Suitable for
// services that log in at startup; the session dies with the process.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore constructs an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// FileTokenStore persists the token as a small JSON file, the CLI
// equivalent of a browser keeping it in local storage:
//
//	{"auth_token": "<jwt>"}
//
// The file is written with 0600 permissions since it holds a credential.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore constructs a store backed by the file at path. The
// file is created on first SetToken; a missing file reads as "".
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", err
	}
	return data[authTokenKey], nil
}

func (s *FileTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	raw, err := json.Marshal(map[string]string{authTokenKey: token})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}
