package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// State WebSocket Feed
// ============================================================================
// Mirrors what the appliance is currently showing to web clients (the
// mapping editor shows a live preview). The main loop publishes
// StateChange values through the feed's notify hook; the hub fans the
// serialized frames out to every connected client. A slow client is
// disconnected when its send queue fills rather than being allowed to
// stall the others.
//
// Wire format: JSON text frames {type, ts, data}. The first frame on
// connect is "state_init" carrying the last published snapshot.
// ============================================================================

// stateFrame is the wire envelope for feed messages.
type stateFrame struct {
	Type string      `json:"type"`
	Ts   time.Time   `json:"ts"`
	Data StateChange `json:"data"`
}

// Hub tracks connected clients and fans out frames.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *feedClient
	unregister chan *feedClient

	mu      sync.Mutex
	clients map[*feedClient]struct{}

	sendBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, sendBuf, broadcastBuf int) *Hub {
	if sendBuf <= 0 {
		sendBuf = 16
	}
	if broadcastBuf <= 0 {
		broadcastBuf = 64
	}
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, broadcastBuf),
		register:   make(chan *feedClient, 8),
		unregister: make(chan *feedClient, 8),
		clients:    make(map[*feedClient]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled, then disconnects
// everyone.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("state feed client connected", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.drop(c, "disconnect")

		case msg := <-h.broadcast:
			var slow []*feedClient
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()
			for _, c := range slow {
				h.drop(c, "slow client")
			}
		}
	}
}

func (h *Hub) drop(c *feedClient, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Info("state feed client dropped", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

// Broadcast enqueues a serialized frame without blocking; if the hub
// queue is full the frame is dropped.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("state feed broadcast queue full, dropping frame")
	}
}

// feedClient is one websocket subscriber with its own write pump.
type feedClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	remoteAddr string
	logger     *slog.Logger

	closeOnce sync.Once
}

func (c *feedClient) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		close(c.send)
	})
}

const (
	feedWriteWait  = 5 * time.Second
	feedPongWait   = 30 * time.Second
	feedPingPeriod = 20 * time.Second
)

// writePump writes frames from the send queue to the websocket. Exits on
// write error or when send is closed.
func (c *feedClient) writePump() {
	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads and discards incoming messages to detect disconnects and
// service control frames, then unregisters the client.
func (c *feedClient) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}

// StateFeed couples the hub with the last published snapshot so a client
// connecting late still gets an initial state_init frame.
type StateFeed struct {
	hub    *Hub
	logger *slog.Logger

	last atomic.Pointer[StateChange]
}

// NewStateFeed builds the feed around a hub.
func NewStateFeed(logger *slog.Logger) *StateFeed {
	return &StateFeed{
		hub:    NewHub(logger, 0, 0),
		logger: logger,
	}
}

// Run starts the hub loop.
func (f *StateFeed) Run(ctx context.Context) {
	f.hub.Run(ctx)
}

// Publish is the AppState notify hook. Never blocks the main loop.
func (f *StateFeed) Publish(change StateChange) {
	f.last.Store(&change)

	msg, err := json.Marshal(stateFrame{Type: change.Kind + "_changed", Ts: time.Now(), Data: change})
	if err != nil {
		f.logger.Warn("state frame marshal failed", "error", err)
		return
	}
	f.hub.Broadcast(msg)
}

var feedUpgrader = websocket.Upgrader{
	// The admin surface is LAN-only; origin checks belong to whatever
	// fronts it in a real deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades and registers a client, then sends state_init.
func (f *StateFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("state feed upgrade failed", "error", err)
		return
	}

	client := &feedClient{
		hub:        f.hub,
		conn:       conn,
		send:       make(chan []byte, f.hub.sendBuf),
		remoteAddr: r.RemoteAddr,
		logger:     f.logger,
	}

	f.hub.register <- client

	// The pumps outlive the HTTP handler; lifetime is managed by the hub
	// and by websocket errors, not by the request context.
	go client.writePump()
	go client.readPump()

	if last := f.last.Load(); last != nil {
		if msg, err := json.Marshal(stateFrame{Type: "state_init", Ts: time.Now(), Data: *last}); err == nil {
			select {
			case client.send <- msg:
			default:
			}
		}
	}
}
