package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/ValentinKolb/dEntity/rpc/transport"
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (transport *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Parse each server URL
	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		parsedURL, err := ParseEndpoint(server)
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL
	}

	idleTimeout := config.Timeout()
	if idleTimeout <= 0 {
		idleTimeout = 90 * time.Second
	}

	transport.client = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     idleTimeout,
		},
	}
	transport.serverURLs = parsedURLs
	transport.counter = 0
	transport.retryCount = config.RetryCount

	return nil
}

func (transport *httpClientTransport) Send(ctx context.Context, shardId uint64, req []byte) (resp []byte, err error) {
	if transport.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}

	// Every attempt picks the next server via round-robin
	attempts := transport.retryCount + 1
	for i := 0; i < attempts; i++ {
		idx := atomic.AddUint32(&transport.counter, 1) % uint32(len(transport.serverURLs))
		serverURL := transport.serverURLs[idx]

		resp, err = transport.send(ctx, serverURL, shardId, req)
		if err == nil || ctx.Err() != nil {
			break
		}
		Logger.Debugf("Request to %s failed (attempt %d/%d): %v", serverURL, i+1, attempts, err)
	}
	return resp, err
}

func (transport *httpClientTransport) Close() error {
	if transport.client != nil {
		transport.client.CloseIdleConnections()
	}

	transport.client = nil
	transport.serverURLs = nil

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// send performs a single request against one server
func (transport *httpClientTransport) send(ctx context.Context, serverURL *url.URL, shardId uint64, req []byte) ([]byte, error) {
	requestURL := serverURL.JoinPath(fmt.Sprintf("%d", shardId)).String()

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/octet-stream")

	httpResponse, err := transport.client.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", httpResponse.Status)
	}

	return io.ReadAll(httpResponse.Body)
}

// ParseEndpoint parses an endpoint given as "host:port" or full url.
// The scheme defaults to http.
func ParseEndpoint(endpoint string) (*url.URL, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return u, nil
}
