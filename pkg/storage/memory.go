package storage

import "sync"

// MemoryStore implements CredentialStore entirely in memory. It backs tests
// and embeddings that manage persistence themselves.
type MemoryStore struct {
	mu    sync.RWMutex
	creds *Credentials
}

// NewMemoryStore returns an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements CredentialStore.Load.
func (m *MemoryStore) Load() (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil {
		return nil, ErrStorageNotFound
	}
	return m.creds.Clone(), nil
}

// Store implements CredentialStore.Store. RememberMe is irrelevant here:
// nothing outlives the process either way.
func (m *MemoryStore) Store(creds *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds.Clone()
	return nil
}

// Clear implements CredentialStore.Clear.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}

// HasCredentials implements CredentialStore.HasCredentials.
func (m *MemoryStore) HasCredentials() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds != nil
}

// StoragePath implements CredentialStore.StoragePath.
func (m *MemoryStore) StoragePath() string {
	return "memory"
}
