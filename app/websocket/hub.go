package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"PosPrint/app/models"
	"PosPrint/app/services"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	TypePrintJob     MessageType = "print_job"
	TypeHeartbeat    MessageType = "heartbeat"
	TypeConnected    MessageType = "connected"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType     `json:"type"`
	ClientID  string          `json:"client_id,omitempty"`
	Subject   string          `json:"subject,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Client represents a connected WebSocket client. A client with a Role only
// receives events for that printer role.
type Client struct {
	ID          string
	Role        models.PrinterRole
	Connection  *websocket.Conn
	Send        chan []byte
	Hub         *Hub
	ConnectedAt time.Time
	RemoteAddr  string
}

// Hub keeps the connected clients and fans print events out to them
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *services.LoggerService
	mu         sync.RWMutex
}

// NewHub creates a new hub. Run must be started before clients connect.
func NewHub(logger *services.LoggerService) *Hub {
	if logger == nil {
		logger = services.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from local network
				return true
			},
		},
	}
}

// Run handles registration and heartbeats until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer h.logger.RecoverPanic()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.LogInfo("Client registered", fmt.Sprintf("id=%s role=%s", client.ID, client.Role))
			h.sendWelcome(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.LogInfo("Client unregistered", "id="+client.ID)
			}
			h.mu.Unlock()

		case <-ticker.C:
			h.broadcast(Message{
				Type:      TypeHeartbeat,
				Timestamp: time.Now(),
				Data:      json.RawMessage(`{"ping":"pong"}`),
			}, "")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Connection.Close()
		delete(h.clients, id)
	}
}

// Publish implements services.EventPublisher. data is a services.PrintEvent.
func (h *Hub) Publish(_ context.Context, subject string, data []byte) error {
	var event services.PrintEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("invalid print event: %w", err)
	}
	h.broadcast(Message{
		Type:      TypePrintJob,
		Subject:   subject,
		Timestamp: time.Now(),
		Data:      json.RawMessage(data),
	}, event.Role)
	return nil
}

// broadcast sends message to every client subscribed to role. Clients with a
// full buffer miss the message.
func (h *Hub) broadcast(message Message, role models.PrinterRole) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if role != "" && client.Role != "" && client.Role != role {
			continue
		}
		select {
		case client.Send <- data:
		default:
			h.logger.LogWarning("Client send buffer full", "id="+client.ID)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket subscription.
// ?role=kitchen|payment narrows the events received.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	role := models.PrinterRole(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.LogError("WebSocket upgrade error", err)
		return
	}

	client := &Client{
		ID:          uuid.NewString(),
		Role:        role,
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Hub:         h,
		ConnectedAt: time.Now(),
		RemoteAddr:  r.RemoteAddr,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) sendWelcome(client *Client) {
	data, _ := json.Marshal(map[string]interface{}{
		"message":   "Subscribed to print events",
		"client_id": client.ID,
		"role":      client.Role,
	})
	client.sendMessage(Message{
		Type:      TypeConnected,
		ClientID:  client.ID,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// readPump handles reading messages from the client
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Connection.Close()
	}()

	c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Connection.SetPongHandler(func(string) error {
		c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.LogWarning("WebSocket read error", err.Error())
			}
			return
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			continue
		}
		if message.Type == TypeHeartbeat {
			c.sendMessage(Message{
				Type:      TypeHeartbeat,
				Timestamp: time.Now(),
				Data:      json.RawMessage(`{"status":"alive"}`),
			})
		}
	}
}

// writePump handles writing messages to the client
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Hub.done:
			return
		}
	}
}

// sendMessage queues a message for the client
func (c *Client) sendMessage(message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}
