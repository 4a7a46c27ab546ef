// Package types defines the wire payloads exchanged with the PropDesk
// backend, plus the in-process notification types the client emits.
package types

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// Verify2FARequest is the body of POST /auth/verify-2fa. ChallengeToken is
// the short-lived token returned by a login that required a second factor.
type Verify2FARequest struct {
	ChallengeToken string `json:"challengeToken"`
	Code           string `json:"code"`
}
