package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the HTTP routes
	},
}

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	ShowAt    *time.Time  `json:"showAt,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Command is a game command sent by a client, over HTTP or the socket
type Command struct {
	Type   string `json:"type"`
	Amount int    `json:"amount,omitempty"`
}

// CommandFunc executes a command for a session and returns the reply for the sender.
type CommandFunc func(sessionID string, cmd Command) Message

// Client represents a connected WebSocket client
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	hub       *Hub
}

// Hub maintains the set of active clients and fans session events out to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   map[string]map[*Client]bool
	commands   CommandFunc
	logger     *log.Logger
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   make(map[string]map[*Client]bool),
		logger:     logger.WithPrefix("hub"),
		done:       make(chan struct{}),
	}
}

// SetCommandFunc sets where commands read from clients are sent
func (h *Hub) SetCommandFunc(fn CommandFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = fn
}

// Run registers and unregisters clients until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, exists := h.sessions[client.sessionID]; !exists {
				h.sessions[client.sessionID] = make(map[*Client]bool)
			}
			h.sessions[client.sessionID][client] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", "session", client.sessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "session", client.sessionID)

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove drops client and closes its send channel. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if clients := h.sessions[client.sessionID]; clients != nil {
		delete(clients, client)
		// Clean up empty sessions
		if len(clients) == 0 {
			delete(h.sessions, client.sessionID)
		}
	}
}

// ClientCount returns the number of clients watching a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// BroadcastToSession sends a message to all clients watching a session
func (h *Hub) BroadcastToSession(sessionID string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Error marshaling message", "type", message.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.sessions[sessionID] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "session", sessionID, "type", message.Type)
		}
	}
}

// sendTo queues a message for one client unless it has already been removed.
func (h *Hub) sendTo(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Error marshaling message", "type", message.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client buffer full, dropping reply", "session", client.sessionID, "type", message.Type)
	}
}

// WebSocketHandler handles WebSocket connections for ?sessionId=
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		errorResponse(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
		hub:       h,
	}

	// Send a welcome message
	welcome, _ := json.Marshal(Message{
		Type:      "welcome",
		SessionID: sessionID,
		Data: map[string]string{
			"message": "Connected to blackjack server",
		},
	})
	client.send <- welcome

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start goroutines for reading and writing
	go client.readPump()
	go client.writePump()
}

// readPump reads commands from the WebSocket connection and replies to the sender
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket error", "err", err)
			}
			break
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.sendTo(c, Message{Type: "error", SessionID: c.sessionID, Data: errorBody{Error: "invalid command"}})
			continue
		}

		c.hub.mu.RLock()
		commands := c.hub.commands
		c.hub.mu.RUnlock()
		if commands == nil {
			continue
		}
		c.hub.sendTo(c, commands(c.sessionID, cmd))
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
