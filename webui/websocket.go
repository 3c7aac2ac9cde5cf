// Package webui provides the HTTP and WebSocket surface the browser editor
// consumes. This file contains the WebSocketBroadcaster managing client
// connections and pushing real-time editor updates.
package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inkwell/logging"
)

// WebSocketBroadcaster manages WebSocket client connections and broadcasts
// editor events (state transitions, stream characters, cursor positions) to
// all of them.
//
// Thread-safe for concurrent client connections and message broadcasting.
type WebSocketBroadcaster struct {
	// clients maps WebSocket connections to their metadata
	clients map[*websocket.Conn]clientInfo

	// clientsMu protects concurrent access to the clients map
	clientsMu sync.RWMutex

	// broadcast receives messages to send to all clients
	broadcast chan WSMessage

	// unregister receives clients to remove
	unregister chan *websocket.Conn

	// upgrader handles HTTP to WebSocket upgrades
	upgrader websocket.Upgrader

	pingInterval   time.Duration
	pongWait       time.Duration
	writeWait      time.Duration
	maxMessageSize int64

	logger *logging.Logger
}

// clientInfo stores metadata about a connected client.
type clientInfo struct {
	connectedAt time.Time
	remoteAddr  string

	// send is the channel for sending messages to this client
	send chan []byte
}

// BroadcasterConfig holds configuration for the WebSocketBroadcaster.
type BroadcasterConfig struct {
	// PingInterval is how often to send ping frames (default: 30s)
	PingInterval time.Duration

	// PongWait is how long to wait for a pong response (default: 60s)
	PongWait time.Duration

	// WriteWait is the time allowed to write a message (default: 10s)
	WriteWait time.Duration

	// MaxMessageSize is the max message size from a client (default: 512)
	MaxMessageSize int64

	// BroadcastBufferSize is the broadcast channel buffer (default: 256)
	BroadcastBufferSize int

	// Logger for WebSocket operations
	Logger *logging.Logger
}

// DefaultBroadcasterConfig returns the default configuration.
func DefaultBroadcasterConfig() BroadcasterConfig {
	return BroadcasterConfig{
		PingInterval:        30 * time.Second,
		PongWait:            60 * time.Second,
		WriteWait:           10 * time.Second,
		MaxMessageSize:      512,
		BroadcastBufferSize: 256,
	}
}

// NewWebSocketBroadcaster creates a broadcaster with the given
// configuration. Call Start to begin processing messages.
func NewWebSocketBroadcaster(config BroadcasterConfig) *WebSocketBroadcaster {
	defaults := DefaultBroadcasterConfig()
	if config.PingInterval == 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.PongWait == 0 {
		config.PongWait = defaults.PongWait
	}
	if config.WriteWait == 0 {
		config.WriteWait = defaults.WriteWait
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.BroadcastBufferSize == 0 {
		config.BroadcastBufferSize = defaults.BroadcastBufferSize
	}

	return &WebSocketBroadcaster{
		clients:        make(map[*websocket.Conn]clientInfo),
		broadcast:      make(chan WSMessage, config.BroadcastBufferSize),
		unregister:     make(chan *websocket.Conn),
		pingInterval:   config.PingInterval,
		pongWait:       config.PongWait,
		writeWait:      config.WriteWait,
		maxMessageSize: config.MaxMessageSize,
		logger:         config.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin deployment: the editor page is served by this
			// process.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Start begins the broadcasting loop. Runs until ctx is cancelled, then
// closes all client connections.
func (b *WebSocketBroadcaster) Start(ctx context.Context) {
	pingTicker := time.NewTicker(b.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAllClients()
			return

		case conn := <-b.unregister:
			b.removeClient(conn)

		case message := <-b.broadcast:
			b.broadcastToAll(message)

		case <-pingTicker.C:
			b.sendPingToAll()
		}
	}
}

// HandleConnection upgrades an HTTP request to a WebSocket connection,
// registers the client, and sends the initial snapshot produced by
// initialState.
func (b *WebSocketBroadcaster) HandleConnection(w http.ResponseWriter, r *http.Request, initialState func() InitialData) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logw("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err.Error())
		return
	}

	conn.SetReadLimit(b.maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(b.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(b.pongWait))
		return nil
	})

	b.addClient(conn)

	if initialState != nil {
		b.sendToClient(conn, NewInitialMessage(initialState()))
	}

	go b.readPump(conn)
}

// BroadcastMessage queues a message for delivery to all connected clients.
// Non-blocking; drops the message when the broadcast buffer is full.
func (b *WebSocketBroadcaster) BroadcastMessage(msg WSMessage) {
	select {
	case b.broadcast <- msg:
	default:
		b.logw("broadcast buffer full, dropping message", "type", msg.Type)
	}
}

// ClientCount returns the current number of connected clients.
func (b *WebSocketBroadcaster) ClientCount() int {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return len(b.clients)
}

// Close shuts the broadcaster down, closing all client connections.
func (b *WebSocketBroadcaster) Close() {
	b.closeAllClients()
}

func (b *WebSocketBroadcaster) addClient(conn *websocket.Conn) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	info := clientInfo{
		connectedAt: time.Now(),
		remoteAddr:  conn.RemoteAddr().String(),
		send:        make(chan []byte, 256),
	}
	b.clients[conn] = info

	go b.writePump(conn, info.send)

	b.logw("websocket client connected", "remote_addr", info.remoteAddr, "total", len(b.clients))
}

func (b *WebSocketBroadcaster) removeClient(conn *websocket.Conn) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	if info, ok := b.clients[conn]; ok {
		close(info.send)
		delete(b.clients, conn)
		conn.Close()
		b.logw("websocket client disconnected", "remote_addr", info.remoteAddr, "total", len(b.clients))
	}
}

func (b *WebSocketBroadcaster) broadcastToAll(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logw("failed to marshal broadcast message", "type", msg.Type, "error", err.Error())
		return
	}

	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()

	for conn, info := range b.clients {
		select {
		case info.send <- data:
		default:
			// Send buffer full; the client is too slow, drop it.
			b.logw("client send buffer full, closing", "remote_addr", info.remoteAddr)
			go func(c *websocket.Conn) {
				b.unregister <- c
			}(conn)
		}
	}
}

func (b *WebSocketBroadcaster) sendToClient(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logw("failed to marshal message", "type", msg.Type, "error", err.Error())
		return
	}

	b.clientsMu.RLock()
	info, ok := b.clients[conn]
	b.clientsMu.RUnlock()

	if ok {
		select {
		case info.send <- data:
		default:
			b.logw("client send buffer full", "remote_addr", info.remoteAddr)
		}
	}
}

func (b *WebSocketBroadcaster) sendPingToAll() {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()

	for conn, info := range b.clients {
		conn.SetWriteDeadline(time.Now().Add(b.writeWait))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			b.logw("failed to ping client", "remote_addr", info.remoteAddr, "error", err.Error())
			go func(c *websocket.Conn) {
				b.unregister <- c
			}(conn)
		}
	}
}

func (b *WebSocketBroadcaster) closeAllClients() {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	for conn, info := range b.clients {
		close(info.send)
		conn.Close()
		delete(b.clients, conn)
	}
}

// readPump drains incoming frames from a client. Client messages are not
// processed; the pump exists to handle pongs and detect closes.
func (b *WebSocketBroadcaster) readPump(conn *websocket.Conn) {
	defer func() {
		b.unregister <- conn
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				b.logw("unexpected websocket close", "error", err.Error())
			}
			break
		}
	}
}

// writePump delivers queued messages to a client.
func (b *WebSocketBroadcaster) writePump(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()

	for message := range send {
		conn.SetWriteDeadline(time.Now().Add(b.writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			b.logw("websocket write error", "error", err.Error())
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(b.writeWait))
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// logw logs through the configured logger, or not at all.
func (b *WebSocketBroadcaster) logw(msg string, keysAndValues ...interface{}) {
	if b.logger != nil {
		b.logger.Debugw(msg, keysAndValues...)
	}
}
