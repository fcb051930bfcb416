package push

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/lib/store/rstore"
	storetesting "github.com/ValentinKolb/dEntity/lib/store/testing"
	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/google/go-cmp/cmp"
)

func newHubServer(t *testing.T) (IHub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	mux := http.NewServeMux()
	mux.Handle(Pattern, hub.Handler())
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, server
}

// waitFor polls cond until it holds or a second passed
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type forwardFunc func(ctx context.Context, cs store.ChangeSet) error

func (f forwardFunc) Forward(ctx context.Context, cs store.ChangeSet) error { return f(ctx, cs) }

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func TestWatchReceivesShardNotifications(t *testing.T) {
	hub, server := newHubServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan common.Notification, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, server.URL, 1, func(n common.Notification) error {
			received <- n
			return nil
		})
	}()
	waitFor(t, "subscriber", func() bool { return hub.Subscribers(1) == 1 })

	// other shards and empty notifications are not delivered
	hub.Broadcast(common.Notification{Shard: 2, Deleted: []string{"x"}})
	hub.Broadcast(common.Notification{Shard: 1})
	want := common.Notification{
		Shard:    1,
		Entities: []map[string]string{{"id": "u1", "@type": "User", "name": "Ann"}},
		Deleted:  []string{"u2"},
	}
	hub.Broadcast(want)

	select {
	case got := <-received:
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("notification mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}

	select {
	case got := <-received:
		t.Errorf("unexpected notification %+v", got)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	waitFor(t, "unsubscribe", func() bool { return hub.Subscribers(1) == 0 })
}

func TestWatchHandlerError(t *testing.T) {
	hub, server := newHubServer(t)
	stop := errors.New("stop")

	done := make(chan error, 1)
	go func() {
		done <- Watch(context.Background(), server.URL, 3, func(n common.Notification) error { return stop })
	}()
	waitFor(t, "subscriber", func() bool { return hub.Subscribers(3) == 1 })

	hub.Broadcast(common.Notification{Shard: 3, Deleted: []string{"u1"}})
	select {
	case err := <-done:
		if !errors.Is(err, stop) {
			t.Errorf("expected handler error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return")
	}
}

func TestHubCloseEndsWatch(t *testing.T) {
	hub, server := newHubServer(t)

	done := make(chan error, 1)
	go func() {
		done <- Watch(context.Background(), server.URL, 1, func(n common.Notification) error { return nil })
	}()
	waitFor(t, "subscriber", func() bool { return hub.Subscribers(1) == 1 })

	hub.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after hub close")
	}

	// new subscriptions are rejected
	if err := Watch(context.Background(), server.URL, 1, nil); err == nil {
		t.Error("expected closed hub to reject subscription")
	}
}

func TestSubscribeFeedsPartialBackend(t *testing.T) {
	hub, server := newHubServer(t)

	forwarded := 0
	backend := rstore.NewRemoteStore(storetesting.NewRegistry(), forwardFunc(func(ctx context.Context, cs store.ChangeSet) error {
		forwarded++
		return nil
	}), rstore.DefaultOptions())
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Subscribe(ctx, server.URL, 1, backend) }()
	waitFor(t, "subscriber", func() bool { return hub.Subscribers(1) == 1 })

	hub.Broadcast(common.Notification{Shard: 1, Entities: []map[string]string{{"id": "u2", "@type": "User", "name": "Bob"}}})
	waitFor(t, "u2", func() bool { return backend.ContainsWithID("u2") })

	hub.Broadcast(common.Notification{Shard: 1, Deleted: []string{"u2"}})
	waitFor(t, "u2 removed", func() bool { return !backend.ContainsWithID("u2") })

	if forwarded != 0 {
		t.Errorf("pushed changes must not be forwarded, got %d forwards", forwarded)
	}
}

func TestInvalidShard(t *testing.T) {
	_, server := newHubServer(t)
	resp, err := http.Get(server.URL + "/push/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestURL(t *testing.T) {
	tests := map[string]string{
		"localhost:8080":         "ws://localhost:8080/push/4",
		"http://example.com/api": "ws://example.com/api/push/4",
		"https://example.com":    "wss://example.com/push/4",
	}
	for in, want := range tests {
		got, err := URL(in, 4)
		if err != nil {
			t.Errorf("URL(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("URL(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := URL("http://", 1); err == nil || !strings.Contains(err.Error(), "missing host") {
		t.Errorf("expected missing host error, got %v", err)
	}
}
