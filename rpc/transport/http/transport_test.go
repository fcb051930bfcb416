package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// newTestServer starts a server transport that echoes "<shard>:<body>"
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	transport := NewHttpServerTransport()
	transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})
	transport.Mount("GET /hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	server := httptest.NewServer(transport.Handler())
	t.Cleanup(server.Close)
	return server
}

func connect(t *testing.T, retries int, endpoints ...string) *httpClientTransport {
	t.Helper()
	client := NewHttpClientTransport()
	err := client.Connect(common.ClientConfig{Endpoints: endpoints, TimeoutSecond: 5, RetryCount: retries})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client.(*httpClientTransport)
}

func TestSendReceive(t *testing.T) {
	server := newTestServer(t)
	client := connect(t, 0, server.URL)

	resp, err := client.Send(context.Background(), 3, []byte("ping"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(resp) != "3:ping" {
		t.Errorf("expected 3:ping, got %q", resp)
	}
}

func TestRetryOnNextServer(t *testing.T) {
	server := newTestServer(t)

	// closed server, every request to it fails
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	client := connect(t, 1, deadURL, server.URL)
	for i := 0; i < 4; i++ {
		resp, err := client.Send(context.Background(), 1, []byte("x"))
		if err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
		if string(resp) != "1:x" {
			t.Errorf("unexpected response %q", resp)
		}
	}
}

func TestNoRetries(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	client := connect(t, 0, deadURL)
	if _, err := client.Send(context.Background(), 1, []byte("x")); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestHttpErrorStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := connect(t, 2, server.URL)
	_, err := client.Send(context.Background(), 1, nil)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected http 500 error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestContextCancel(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := connect(t, 5, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := client.Send(ctx, 1, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("retries should stop once the context is done")
	}
}

func TestServerRoutes(t *testing.T) {
	server := newTestServer(t)
	metrics.GetOrCreateCounter(`dentity_transport_test_total`).Inc()

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		contains string
	}{
		{"invalid shard", http.MethodPost, "/abc", http.StatusBadRequest, "Invalid shardId"},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "dentity_transport_test_total"},
		{"mounted handler", http.MethodGet, "/hello", http.StatusOK, "hello"},
		{"wrong method", http.MethodGet, "/1", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("expected %q in body %q", tt.contains, body)
			}
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"localhost:8080", "http://localhost:8080", false},
		{"https://example.com/api", "https://example.com/api", false},
		{"http://", "", true},
	}
	for _, tt := range tests {
		u, err := ParseEndpoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEndpoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && u.String() != tt.want {
			t.Errorf("ParseEndpoint(%q) = %q, want %q", tt.in, u, tt.want)
		}
	}
}

func TestSendWithoutConnect(t *testing.T) {
	client := NewHttpClientTransport()
	if _, err := client.Send(context.Background(), 1, nil); err == nil {
		t.Error("expected error for unconnected transport")
	}
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Error("expected error for missing endpoints")
	}
}
