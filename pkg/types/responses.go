package types

// TokenResponse is returned by login, 2FA verification, and refresh. The
// backend reports the access token lifetime either as ExpiresIn seconds or
// through the token's own exp claim; ExpiresIn of zero means "decode it".
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`

	// TwoFactorRequired and ChallengeToken are set when login needs a
	// second factor before tokens are issued.
	TwoFactorRequired bool   `json:"twoFactorRequired,omitempty"`
	ChallengeToken    string `json:"challengeToken,omitempty"`
}

// ErrorBody is the backend's error envelope. Code carries the structured
// error code newer backend versions emit; older versions only populate
// Message, which the classifier falls back to pattern-matching.
type ErrorBody struct {
	Code       string              `json:"code,omitempty"`
	Message    string              `json:"message,omitempty"`
	Module     string              `json:"module,omitempty"`
	Validation bool                `json:"validation,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

// ModuleNotice is emitted when the backend rejects a call because the tenant
// is not entitled to a module. The UI surfaces it as an upgrade prompt.
type ModuleNotice struct {
	Module  string `json:"module"`
	Message string `json:"message"`
}
