package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/propdesk/propdesk-go/pkg/constants"
)

// FileSystemStore implements CredentialStore on disk. Credentials written
// with RememberMe set are persisted as restricted-permission JSON; without
// it they stay in a process-local overlay and any on-disk copy is removed,
// so the session does not outlive the client.
type FileSystemStore struct {
	baseDir string

	mu      sync.RWMutex
	session *Credentials // remember-me=false overlay, never written to disk
}

// NewFileSystemStore creates a filesystem-backed credential store. If
// baseDir is empty the default directory (~/.propdesk) is used.
func NewFileSystemStore(baseDir string) (*FileSystemStore, error) {
	if baseDir == "" {
		var err error
		baseDir, err = getDefaultStorageDir()
		if err != nil {
			return nil, err
		}
	}

	if err := ensureDir(baseDir); err != nil {
		return nil, err
	}

	return &FileSystemStore{baseDir: baseDir}, nil
}

// MustNewFileSystemStore creates a filesystem store and panics on error.
// Useful in initialization code where errors are not expected.
func MustNewFileSystemStore(baseDir string) *FileSystemStore {
	store, err := NewFileSystemStore(baseDir)
	if err != nil {
		panic(err)
	}
	return store
}

// Load implements CredentialStore.Load. The session overlay shadows disk.
func (fs *FileSystemStore) Load() (*Credentials, error) {
	fs.mu.RLock()
	if fs.session != nil {
		creds := fs.session.Clone()
		fs.mu.RUnlock()
		return creds, nil
	}
	fs.mu.RUnlock()

	return loadCredentialsFromFile(fs.credentialsPath())
}

// Store implements CredentialStore.Store.
func (fs *FileSystemStore) Store(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("cannot store nil credentials")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !creds.RememberMe {
		fs.session = creds.Clone()
		return removeFile(fs.credentialsPath())
	}

	fs.session = nil
	return storeCredentialsToFile(fs.credentialsPath(), creds)
}

// Clear implements CredentialStore.Clear.
func (fs *FileSystemStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.session = nil
	return removeFile(fs.credentialsPath())
}

// HasCredentials implements CredentialStore.HasCredentials.
func (fs *FileSystemStore) HasCredentials() bool {
	fs.mu.RLock()
	if fs.session != nil {
		fs.mu.RUnlock()
		return true
	}
	fs.mu.RUnlock()

	return fileExists(fs.credentialsPath())
}

// StoragePath implements CredentialStore.StoragePath.
func (fs *FileSystemStore) StoragePath() string {
	return fs.baseDir
}

func (fs *FileSystemStore) credentialsPath() string {
	return fs.baseDir + constants.CredentialsFileName
}

// getDefaultStorageDir returns the default directory for storing credentials.
func getDefaultStorageDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, constants.DefaultStorageDir), nil
}

// ensureDir creates the directory if it doesn't exist.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// loadCredentialsFromFile loads credentials from a JSON file.
func loadCredentialsFromFile(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("credentials file does not exist at %s: %w", path, ErrStorageNotFound)
		}
		return nil, fmt.Errorf("failed to read credentials file at %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials JSON at %s: %w", path, ErrStorageCorrupted)
	}

	return &creds, nil
}

// storeCredentialsToFile stores credentials to a JSON file.
func storeCredentialsToFile(path string, creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials to JSON for %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := ensureDir(dir); err != nil {
		return err
	}

	// Write with restricted permissions
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return fmt.Errorf("failed to write credentials file at %s: %w", path, err)
	}

	return nil
}

// removeFile removes a file.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file at %s: %w", path, err)
	}
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
