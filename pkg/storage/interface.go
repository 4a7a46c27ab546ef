// Package storage provides the credential store contract the session
// pipeline reads and writes: the current token pair, the selected company
// (tenant) id, and the remember-me persistence flag.
package storage

import (
	"errors"

	"golang.org/x/oauth2"
)

// Credentials is everything the client persists between calls. The token
// pair travels together: login, refresh, and logout set or clear both sides
// at once, never one without the other.
type Credentials struct {
	Token      oauth2.Token `json:"token"`
	TenantID   string       `json:"tenantId,omitempty"`
	RememberMe bool         `json:"rememberMe,omitempty"`
}

// HasTokenPair reports whether both the access and refresh tokens are set.
func (c *Credentials) HasTokenPair() bool {
	return c != nil && c.Token.AccessToken != "" && c.Token.RefreshToken != ""
}

// Clone returns a copy so callers can mutate without racing the store.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// CredentialStore is the opaque key-value contract the pipeline depends on.
// Implementations are expected to be safe for concurrent use and durable
// within a client instance; mutations are last-writer-wins.
type CredentialStore interface {
	// Load returns the stored credentials, or ErrStorageNotFound when
	// nothing is stored.
	Load() (*Credentials, error)

	// Store persists the credentials. Implementations honor
	// Credentials.RememberMe when deciding whether the write survives the
	// process.
	Store(creds *Credentials) error

	// Clear removes the stored credentials. This is the forced-logout
	// side effect.
	Clear() error

	// HasCredentials checks existence without loading.
	HasCredentials() bool

	// StoragePath describes where credentials live, for diagnostics.
	StoragePath() string
}

// Sentinel errors for storage operations
var (
	ErrStorageNotFound   = errors.New("storage item not found")
	ErrStorageCorrupted  = errors.New("storage data corrupted")
	ErrStoragePermission = errors.New("storage permission denied")
)
