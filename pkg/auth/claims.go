// Package auth holds the token-side of the session pipeline: decoding access
// token claims and calling the refresh endpoint.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the coarse role claim the backend embeds in access tokens. The
// redirect policy only distinguishes elevated (owner/admin) users from
// standard ones.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// Elevated reports whether the role gets the admin-facing redirect policy.
func (r Role) Elevated() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Claims are the access token claims the client cares about. Tokens are
// decoded without signature verification: the client is not a trusted
// verifier, it only reads the expiry and role the backend put there.
type Claims struct {
	Role     Role   `json:"role,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
	jwt.RegisteredClaims
}

var unverifiedParser = jwt.NewParser()

// DecodeClaims parses the access token without verifying its signature.
func DecodeClaims(accessToken string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := unverifiedParser.ParseUnverified(accessToken, claims); err != nil {
		return nil, &AuthError{Op: "decode_token", Message: "failed to decode access token", Err: err}
	}
	return claims, nil
}

// ExpiryOf returns the token's expiry. ok is false when the token cannot be
// decoded or carries no exp claim; such tokens are sent as-is and the server
// decides.
func ExpiryOf(accessToken string) (time.Time, bool) {
	claims, err := DecodeClaims(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// RoleOf returns the role claim, defaulting to standard when the token is
// undecodable or carries no role. Defaulting down keeps the redirect policy
// conservative.
func RoleOf(accessToken string) Role {
	claims, err := DecodeClaims(accessToken)
	if err != nil || claims.Role == "" {
		return RoleStandard
	}
	return claims.Role
}
