package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ivesdebruycker/maxcube/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Buffered events per subscriber before the connection is dropped
	sendQueueSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only telemetry on a LAN service; any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is one message on the WebSocket feed
type wsEvent struct {
	Event     string       `json:"event"`
	Kind      string       `json:"kind,omitempty"`
	RFAddress string       `json:"rf_address,omitempty"`
	Device    *DeviceView  `json:"device,omitempty"`
	Devices   []DeviceView `json:"devices,omitempty"`
}

// hub tracks connected WebSocket subscribers
type hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

func newHub() *hub {
	return &hub{clients: make(map[*client]bool)}
}

func (h *hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast sends an event to every subscriber. Slow subscribers whose
// queue is full are dropped rather than allowed to stall the feed.
func (h *hub) broadcast(event wsEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logging.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// client is one WebSocket subscriber
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// handleWebSocket upgrades the request and streams updates until the peer
// goes away
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	logging.Info("WebSocket subscriber connected",
		zap.String("remote_addr", r.RemoteAddr),
	)

	c := &client{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	s.hub.register(c)

	// New subscribers get the full device list up front so they do not have
	// to wait for the next radio event.
	snapshot := wsEvent{Event: "snapshot", Devices: s.deviceViews()}
	if data, err := json.Marshal(snapshot); err == nil {
		c.send <- data
	}

	go c.writePump(s.hub, r.RemoteAddr)
	go c.readPump(s.hub, r.RemoteAddr)
}

// writePump drains the send queue to the peer and keeps the connection
// alive with pings
func (c *client) writePump(h *hub, remoteAddr string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug("WebSocket write failed",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; the feed is one way. It exists to
// process pong frames and to notice the peer closing.
func (c *client) readPump(h *hub, remoteAddr string) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		logging.Info("WebSocket subscriber disconnected",
			zap.String("remote_addr", remoteAddr),
		)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
