package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store holds the credentials of the current browsing session.
// A missing token is a valid state; callers check before issuing
// authenticated requests.
type Store interface {
	Token() (string, bool)
	DisplayName() (string, bool)
	SetSession(token, displayName string) error
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	token       string
	displayName string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryStore) DisplayName() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayName, s.displayName != ""
}

func (s *MemoryStore) SetSession(token, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.displayName = displayName
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.displayName = ""
	return nil
}

type fileSession struct {
	Token       string `json:"jwt"`
	DisplayName string `json:"name"`
}

// FileStore persists the session as JSON so it survives between CLI runs.
// The file is read once on open; writes go through to disk.
type FileStore struct {
	path string
	mem  MemoryStore
}

// OpenFileStore loads the session at path. A missing file is an empty session.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var stored fileSession
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt file is treated as logged out.
		return fs, nil
	}
	fs.mem.token = stored.Token
	fs.mem.displayName = stored.DisplayName
	return fs, nil
}

func (s *FileStore) Token() (string, bool) {
	return s.mem.Token()
}

func (s *FileStore) DisplayName() (string, bool) {
	return s.mem.DisplayName()
}

func (s *FileStore) SetSession(token, displayName string) error {
	data, err := json.Marshal(fileSession{Token: token, DisplayName: displayName})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return s.mem.SetSession(token, displayName)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return s.mem.Clear()
}
