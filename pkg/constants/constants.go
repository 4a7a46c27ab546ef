package constants

import "time"

const (
	LibraryVersion = "0.3.0"
	LibraryName    = "propdesk-go"

	DefaultBaseURL   = "https://api.propdesk.io"
	DefaultUserAgent = "propdesk-go/0.3"

	// Header names expected by the PropDesk backend.
	HeaderAuthorization = "Authorization"
	HeaderTenantID      = "X-Tenant-Id"
	HeaderRequestID     = "X-Request-Id"
	BearerPrefix        = "Bearer "

	DefaultHTTPTimeout   = 30 * time.Second
	DefaultDialerTimeout = 10 * time.Second

	// Connection pool settings
	MaxIdleConns        = 100              // Maximum number of idle connections across all hosts
	MaxIdleConnsPerHost = 10               // Maximum idle connections per host
	MaxConnsPerHost     = 100              // Maximum connections per host
	IdleConnTimeout     = 90 * time.Second // How long an idle connection can remain idle

	// Fine-grained timeouts
	TLSHandshakeTimeout   = 10 * time.Second // TLS handshake timeout
	ResponseHeaderTimeout = 30 * time.Second // Response header timeout
	ExpectContinueTimeout = 1 * time.Second  // Expect: 100-continue timeout
	KeepAliveTimeout      = 30 * time.Second // Connection keep-alive timeout

	// Token lifecycle. Access tokens are renewed ahead of expiry when the
	// remaining lifetime drops below ProactiveRefreshWindow; the reactive
	// path forces a logout after MaxConsecutiveAuthFailures uninterrupted
	// 401 responses.
	ProactiveRefreshWindow     = 120 * time.Second
	RefreshRequestTimeout      = 30 * time.Second
	MaxConsecutiveAuthFailures = 3

	// Tenant gate. Dashboard calls issued before the company context has
	// loaded poll the credential store at TenantWaitInterval for up to
	// TenantWaitAttempts attempts before giving up.
	TenantWaitInterval = 50 * time.Millisecond
	TenantWaitAttempts = 10

	RefreshPath   = "/auth/refresh"
	LoginPath     = "/auth/login"
	Verify2FAPath = "/auth/verify-2fa"
	LogoutPath    = "/auth/logout"

	ContentTypeJSON = "application/json"

	DirPermissions  = 0700
	FilePermissions = 0600

	DefaultStorageDir   = ".propdesk"
	CredentialsFileName = "/credentials.json"

	ValidationErrorEmpty    = "cannot be empty"
	ValidationErrorRequired = "is required"
	ConfigErrorPrefix       = "invalid configuration for "
)
