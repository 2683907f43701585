package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore holds the persisted credentials and the last-known profile.
// Absence of the access credential means "not logged in".
type TokenStore interface {
	Access() string
	SetAccess(token string) error
	Refresh() string
	SetRefresh(token string) error
	Profile() []byte
	SetProfile(data []byte) error
	Clear() error
}

// MemoryStore keeps credentials in process memory only.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	profile []byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryStore) SetAccess(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
	return nil
}

func (s *MemoryStore) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryStore) SetRefresh(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = token
	return nil
}

func (s *MemoryStore) Profile() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *MemoryStore) SetProfile(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = data
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh, s.profile = "", "", nil
	return nil
}

type storeFile struct {
	Access  string          `json:"access,omitempty"`
	Refresh string          `json:"refresh,omitempty"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

// FileStore persists credentials as a JSON file so a new process can
// reconstruct the session. Writes go through a temp file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
	data storeFile
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		// A corrupt store is the same as an empty one.
		s.data = storeFile{}
	}
	return s, nil
}

func (s *FileStore) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Access() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Access
}

func (s *FileStore) SetAccess(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Access = token
	return s.flushLocked()
}

func (s *FileStore) Refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Refresh
}

func (s *FileStore) SetRefresh(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Refresh = token
	return s.flushLocked()
}

func (s *FileStore) Profile() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Profile
}

func (s *FileStore) SetProfile(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Profile = json.RawMessage(data)
	return s.flushLocked()
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = storeFile{}
	return s.flushLocked()
}
