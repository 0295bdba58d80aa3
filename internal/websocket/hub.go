package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Outbound frames buffered per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from any origin
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Pipeline is the streaming transcription side of a session
type Pipeline interface {
	Open(sessionID string, out usecase.Emitter) error
	PushChunk(sessionID string, chunk []byte)
	Stop(sessionID string)
	Close(sessionID string)
}

// Relay answers chat messages
type Relay interface {
	Relay(ctx context.Context, query string) (string, error)
}

// Hub maintains the set of active clients and routes their events
type Hub struct {
	// Registered clients, keyed by session id.
	clients map[string]*Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	pipeline  Pipeline
	relay     Relay
	validator *MessageValidator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(pipeline Pipeline, relay Relay, logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		pipeline:  pipeline,
		relay:     relay,
		validator: NewMessageValidator(),
		logger:    logger,
	}
}

// register opens the client's session before any of its frames are read,
// so no chunk can arrive for a session that does not exist yet.
func (h *Hub) register(client *Client) error {
	if err := h.pipeline.Open(client.sessionID, client); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	h.mu.Lock()
	h.clients[client.sessionID] = client
	h.mu.Unlock()

	h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))
	return nil
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.sessionID]
	if ok {
		delete(h.clients, client.sessionID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	h.pipeline.Close(client.sessionID)
	h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll sends a close frame to every client and drops its connection.
// Hijacked connections are not closed by the HTTP server's own shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.closeConnection(websocket.CloseGoingAway, "server shutting down")
	}

	h.logger.Info("Closed all client connections", zap.Int("clients", len(clients)))
}

// HandleWebSocket handles websocket requests from the peer.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := newClient(hub, conn, logger)

	if err := hub.register(client); err != nil {
		logger.Error("Failed to register client",
			zap.String("sessionID", client.sessionID),
			zap.Error(err))
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()

	client.greet()

	go client.readPump()

	return nil
}
