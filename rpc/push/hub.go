package push

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("push")

// Pattern is the route the hub handler has to be mounted on
const Pattern = "GET /push/{shardId}"

const (
	// sendBuffer is the number of notifications queued per subscriber
	sendBuffer = 64
	// writeTimeout limits a single write to a subscriber
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IHub distributes notifications of applied updates to websocket subscribers
type IHub interface {
	// Handler serves websocket subscriptions, it must be mounted on Pattern
	Handler() http.Handler
	// Broadcast sends n to all subscribers of n.Shard. Subscribers that cannot
	// keep up are disconnected.
	Broadcast(n common.Notification)
	// Subscribers returns the number of subscribers of a shard
	Subscribers(shardId uint64) int
	// Close disconnects all subscribers and rejects new ones
	Close()
}

// NewHub creates a new push hub
func NewHub() IHub {
	return &hubImpl{
		subscribers: xsync.NewMapOf[string, *subscriber](),
	}
}

type subscriber struct {
	id        string
	shard     uint64
	conn      *websocket.Conn
	send      chan common.Notification
	done      chan struct{}
	closeOnce sync.Once
}

type hubImpl struct {
	subscribers *xsync.MapOf[string, *subscriber]
	closed      atomic.Bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see push.IHub)
// --------------------------------------------------------------------------

func (h *hubImpl) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shardId, err := strconv.ParseUint(r.PathValue("shardId"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid shardId", http.StatusBadRequest)
			return
		}
		if h.closed.Load() {
			http.Error(w, "Push hub closed", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Logger.Warningf("websocket upgrade failed: %v", err)
			return
		}

		s := &subscriber{
			id:    uuid.NewString(),
			shard: shardId,
			conn:  conn,
			send:  make(chan common.Notification, sendBuffer),
			done:  make(chan struct{}),
		}
		h.subscribers.Store(s.id, s)
		Logger.Infof("subscriber %s connected to shard %d", s.id, shardId)

		go h.writePump(s)
		h.readPump(s)
	})
}

func (h *hubImpl) Broadcast(n common.Notification) {
	if n.IsEmpty() {
		return
	}
	h.subscribers.Range(func(_ string, s *subscriber) bool {
		if s.shard != n.Shard {
			return true
		}
		select {
		case s.send <- n:
		case <-s.done:
		default:
			Logger.Warningf("subscriber %s of shard %d is too slow, disconnecting", s.id, s.shard)
			h.drop(s)
		}
		return true
	})
}

func (h *hubImpl) Subscribers(shardId uint64) int {
	count := 0
	h.subscribers.Range(func(_ string, s *subscriber) bool {
		if s.shard == shardId {
			count++
		}
		return true
	})
	return count
}

func (h *hubImpl) Close() {
	h.closed.Store(true)
	h.subscribers.Range(func(_ string, s *subscriber) bool {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		h.drop(s)
		return true
	})
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// readPump discards incoming messages and drops the subscriber once the connection is gone
func (h *hubImpl) readPump(s *subscriber) {
	defer h.drop(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Logger.Debugf("subscriber %s read error: %v", s.id, err)
			}
			return
		}
	}
}

// writePump is the only writer of data frames on the connection
func (h *hubImpl) writePump(s *subscriber) {
	for {
		select {
		case <-s.done:
			return
		case n := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(n); err != nil {
				Logger.Debugf("failed to push to subscriber %s: %v", s.id, err)
				h.drop(s)
				return
			}
		}
	}
}

// drop removes the subscriber and closes its connection, it is safe to call more than once
func (h *hubImpl) drop(s *subscriber) {
	s.closeOnce.Do(func() {
		h.subscribers.Delete(s.id)
		close(s.done)
		_ = s.conn.Close()
		Logger.Infof("subscriber %s of shard %d disconnected", s.id, s.shard)
	})
}
