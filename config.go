package propdesk

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/routes"
	"github.com/propdesk/propdesk-go/pkg/storage"
	"github.com/propdesk/propdesk-go/pkg/types"
)

// Navigator resolves a logical page into an actual navigation. The client
// never builds URLs itself; forced logouts and policy redirects hand the
// page to the embedding application.
type Navigator interface {
	Navigate(page routes.Page)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(page routes.Page)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(page routes.Page) { f(page) }

// Notifier receives module entitlement notices for the UI to surface.
type Notifier interface {
	Notify(notice types.ModuleNotice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(notice types.ModuleNotice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(notice types.ModuleNotice) { f(notice) }

// Config holds all configuration options for the client.
type Config struct {
	// BaseURL is the backend root, without trailing slash.
	BaseURL string

	UserAgent string
	Timeout   time.Duration

	// CredentialStore persists the token pair and tenant selection.
	CredentialStore storage.CredentialStore

	// Navigator handles policy redirects. Defaults to a no-op.
	Navigator Navigator

	// Notifier receives module-not-entitled notices. Defaults to a no-op.
	Notifier Notifier

	// Logger is used for pipeline diagnostics. Defaults to a nop logger.
	Logger zerolog.Logger

	// Registerer receives the client's metrics. Defaults to a private
	// registry so multiple clients do not collide.
	Registerer prometheus.Registerer

	// HTTPClient overrides the pooled transport, mainly for tests.
	HTTPClient *http.Client
}

// ConfigOption defines a functional option for configuring the Config.
type ConfigOption func(*Config)

// WithBaseURL sets the backend root URL.
func WithBaseURL(baseURL string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithCredentialStore sets a custom credential store.
func WithCredentialStore(store storage.CredentialStore) ConfigOption {
	return func(c *Config) {
		c.CredentialStore = store
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithNavigator sets the redirect handler.
func WithNavigator(nav Navigator) ConfigOption {
	return func(c *Config) {
		c.Navigator = nav
	}
}

// WithNotifier sets the module notice handler.
func WithNotifier(n Notifier) ConfigOption {
	return func(c *Config) {
		c.Notifier = n
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRegisterer sets the metrics registry.
func WithRegisterer(reg prometheus.Registerer) ConfigOption {
	return func(c *Config) {
		c.Registerer = reg
	}
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(client *http.Client) ConfigOption {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithUserAgent sets the User-Agent header value.
func WithUserAgent(ua string) ConfigOption {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// NewConfig creates a new configuration with the provided options. If no
// options are provided, returns a configuration with sensible defaults.
func NewConfig(opts ...ConfigOption) *Config {
	config := &Config{
		BaseURL:         constants.DefaultBaseURL,
		UserAgent:       constants.DefaultUserAgent,
		Timeout:         constants.DefaultHTTPTimeout,
		CredentialStore: storage.NewMemoryStore(),
		Navigator:       NavigatorFunc(func(routes.Page) {}),
		Notifier:        NotifierFunc(func(types.ModuleNotice) {}),
		Logger:          zerolog.Nop(),
		Registerer:      prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(config)
	}

	return config
}

// Validate ensures the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "BaseURL", Message: constants.ValidationErrorEmpty}
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return &ConfigError{Field: "BaseURL", Message: "must be an http(s) URL"}
	}
	if c.CredentialStore == nil {
		return &ConfigError{Field: "CredentialStore", Message: constants.ValidationErrorRequired}
	}
	if c.Navigator == nil {
		return &ConfigError{Field: "Navigator", Message: constants.ValidationErrorRequired}
	}
	if c.Notifier == nil {
		return &ConfigError{Field: "Notifier", Message: constants.ValidationErrorRequired}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return constants.ConfigErrorPrefix + e.Field + ": " + e.Message
}
