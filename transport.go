package propdesk

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/propdesk/propdesk-go/pkg/constants"
)

// clientPool manages reusable HTTP clients keyed by timeout so multiple
// Client instances against the same backend share connections.
type clientPool struct {
	clients map[string]*http.Client
	mutex   sync.RWMutex
}

var globalClientPool = &clientPool{
	clients: make(map[string]*http.Client),
}

// getOrCreateClient retrieves or creates an HTTP client from the pool.
func (cp *clientPool) getOrCreateClient(timeout time.Duration) *http.Client {
	key := cp.configKey(timeout)

	cp.mutex.RLock()
	if client, exists := cp.clients[key]; exists {
		cp.mutex.RUnlock()
		return client
	}
	cp.mutex.RUnlock()

	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	// Double-check after acquiring write lock
	if client, exists := cp.clients[key]; exists {
		return client
	}

	transport := &http.Transport{
		MaxIdleConns:        constants.MaxIdleConns,
		MaxIdleConnsPerHost: constants.MaxIdleConnsPerHost,
		MaxConnsPerHost:     constants.MaxConnsPerHost,
		IdleConnTimeout:     constants.IdleConnTimeout,

		DialContext: (&net.Dialer{
			Timeout:   constants.DefaultDialerTimeout,
			KeepAlive: constants.KeepAliveTimeout,
		}).DialContext,

		TLSHandshakeTimeout:   constants.TLSHandshakeTimeout,
		ResponseHeaderTimeout: constants.ResponseHeaderTimeout,
		ExpectContinueTimeout: constants.ExpectContinueTimeout,

		DisableCompression: false,
		DisableKeepAlives:  false,
	}

	// Negotiate HTTP/2 where the backend supports it.
	if err := http2.ConfigureTransport(transport); err != nil {
		transport.ForceAttemptHTTP2 = true
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	cp.clients[key] = client
	return client
}

// configKey generates a unique key for the client configuration.
func (cp *clientPool) configKey(timeout time.Duration) string {
	return fmt.Sprintf("timeout_%v", timeout)
}

// newHTTPClient returns the transport for a config: the explicit override
// when set, otherwise a pooled client.
func newHTTPClient(config *Config) *http.Client {
	if config.HTTPClient != nil {
		return config.HTTPClient
	}
	return globalClientPool.getOrCreateClient(config.Timeout)
}
