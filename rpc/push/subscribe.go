package push

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/rpc/common"
	httptransport "github.com/ValentinKolb/dEntity/rpc/transport/http"
	"github.com/gorilla/websocket"
)

// NotificationHandler is called for every notification received by Watch.
// Returning an error stops watching.
type NotificationHandler func(n common.Notification) error

// Watch connects to the push endpoint of a shard and calls fn for every
// notification. It returns nil when ctx is done or the server closed the
// connection, and the error otherwise.
func Watch(ctx context.Context, endpoint string, shardId uint64, fn NotificationHandler) error {
	pushURL, err := URL(endpoint, shardId)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, pushURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", pushURL, err)
	}
	defer conn.Close()

	// unblock ReadJSON once the context is done
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	Logger.Infof("watching shard %d on %s", shardId, pushURL)

	for {
		var n common.Notification
		if err := conn.ReadJSON(&n); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("push connection to %s failed: %w", pushURL, err)
		}
		if err := fn(n); err != nil {
			return err
		}
	}
}

// Subscribe keeps a partial backend in sync with the updates applied on a shard.
// Pushed records are ingested with UpdateFromServer, deletions with
// OnEntityDeletionsReceived, so nothing is forwarded back to the server.
func Subscribe(ctx context.Context, endpoint string, shardId uint64, backend store.IPartialBackend) error {
	return Watch(ctx, endpoint, shardId, func(n common.Notification) error {
		if len(n.Entities) > 0 {
			if _, err := backend.UpdateFromServer(n.Entities); err != nil {
				Logger.Warningf("failed to ingest %d pushed entities of shard %d: %v", len(n.Entities), shardId, err)
			}
		}
		if len(n.Deleted) > 0 {
			backend.OnEntityDeletionsReceived(n.Deleted)
		}
		return nil
	})
}

// URL returns the websocket url of the push endpoint of a shard
func URL(endpoint string, shardId uint64) (string, error) {
	u, err := httptransport.ParseEndpoint(endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.JoinPath("push", fmt.Sprintf("%d", shardId)).String(), nil
}
