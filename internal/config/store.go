package config

import "sync"

// Remote identifies the remote workspace and the credential used to reach it.
type Remote struct {
	APIToken    string
	BaseURL     string
	WorkspaceID string
	SpaceID     string
	FolderID    string
}

// Configured reports whether a token is present. The token is not checked
// against the remote API.
func (r Remote) Configured() bool {
	return r.APIToken != ""
}

// RemoteUpdate carries the fields to overwrite; nil fields are left as they are.
type RemoteUpdate struct {
	APIToken    *string `json:"api_token"`
	WorkspaceID *string `json:"workspace_id"`
	SpaceID     *string `json:"space_id"`
	FolderID    *string `json:"folder_id"`
}

// Store holds the live remote settings for the process lifetime.
// Updates are kept in memory only.
type Store struct {
	mu     sync.RWMutex
	remote Remote
}

// NewStore creates a store seeded with r.
func NewStore(r Remote) *Store {
	return &Store{remote: r}
}

// Remote returns a copy of the current settings.
func (s *Store) Remote() Remote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote
}

// Update applies u. Values are not validated.
func (s *Store) Update(u RemoteUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.APIToken != nil {
		s.remote.APIToken = *u.APIToken
	}
	if u.WorkspaceID != nil {
		s.remote.WorkspaceID = *u.WorkspaceID
	}
	if u.SpaceID != nil {
		s.remote.SpaceID = *u.SpaceID
	}
	if u.FolderID != nil {
		s.remote.FolderID = *u.FolderID
	}
}
