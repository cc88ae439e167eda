package session

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the opaque auth token across process restarts. Only the
// token is durable; the user record is always re-fetched from the backend.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

const tokenFileName = "token"

// FileTokenStore keeps the token in a single file under the workspace
// directory. Last writer wins; there is no locking across processes.
type FileTokenStore struct {
	Workspace string
}

func (s FileTokenStore) dir() string {
	workspace := s.Workspace
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".bizdesk")
}

func (s FileTokenStore) path() string {
	return filepath.Join(s.dir(), tokenFileName)
}

// Load returns the stored token, or "" when none is stored.
func (s FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, creating the workspace directory if missing.
func (s FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path(), []byte(token+"\n"), 0o600)
}

// Clear removes the stored token. Missing file is not an error.
func (s FileTokenStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryTokenStore is an in-process TokenStore for tests.
type MemoryTokenStore struct {
	Token string
}

func (s *MemoryTokenStore) Load() (string, error) { return s.Token, nil }

func (s *MemoryTokenStore) Save(token string) error {
	s.Token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.Token = ""
	return nil
}
