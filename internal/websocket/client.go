package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/domain"
)

var errClientClosed = errors.New("client connection closed")

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages. Never closed; done signals
	// that nobody is draining it anymore.
	send chan WriteData

	// Session ID assigned to this connection
	sessionID string

	// Cancelled when the connection goes away; in-flight chat relays use it.
	ctx    context.Context
	cancel context.CancelFunc

	done      chan struct{}
	closeOnce sync.Once

	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	sessionID := uuid.NewString()

	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, sendBufferSize),
		sessionID: sessionID,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		logger:    logger.With(zap.String("sessionID", sessionID)),
	}
}

// SessionID returns the id assigned to this connection
func (c *Client) SessionID() string {
	return c.sessionID
}

// Emit queues an event for the write pump. It fails once the client is gone.
func (c *Client) Emit(event domain.EventName, payload interface{}) error {
	frame, err := EncodeEvent(event, payload)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: frame}:
		return nil
	case <-c.done:
		return errClientClosed
	}
}

func (c *Client) greet() {
	if err := c.Emit(domain.EventResponse, domain.ResponseMessage{Data: domain.ConnectedGreeting}); err != nil {
		c.logger.Warn("Failed to send greeting", zap.Error(err))
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
}

// closeConnection asks the peer to close, then drops the socket so readPump
// unblocks and unregisters the client.
func (c *Client) closeConnection(code int, text string) {
	deadline := time.Now().Add(writeWait)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
	c.conn.Close()
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.shutdown()
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage dispatches a text frame. Malformed frames are answered with
// an error event and the connection stays open.
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected client message", zap.Error(err))
		c.emitError(err.Error())
		return
	}

	switch msg.Event {
	case domain.EventChatMessage:
		go c.relayChat(msg.Query)
	case domain.EventAudioStream:
		c.processAudioChunk(msg.Audio)
	case domain.EventStopStream:
		c.logger.Info("Received stop stream")
		c.hub.pipeline.Stop(c.sessionID)
	}
}

// processBinaryAudioChunk handles binary audio data
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.processAudioChunk(data)
}

func (c *Client) processAudioChunk(data []byte) {
	if len(data) == 0 {
		c.logger.Debug("Ignoring empty audio chunk")
		return
	}

	c.logger.Debug("Received audio chunk", zap.Int("size", len(data)))
	c.hub.pipeline.PushChunk(c.sessionID, data)
}

// relayChat runs on its own goroutine so a slow reply engine never holds up
// audio frames behind it.
func (c *Client) relayChat(query string) {
	c.logger.Info("Received chat message", zap.Int("length", len(query)))

	reply, err := c.hub.relay.Relay(c.ctx, query)
	if c.ctx.Err() != nil {
		return
	}

	if err != nil {
		c.emitError(err.Error())
		return
	}

	if err := c.Emit(domain.EventChatReply, domain.ChatReplyMessage{Reply: reply}); err != nil {
		c.logger.Debug("Failed to send chat reply", zap.Error(err))
	}
}

func (c *Client) emitError(text string) {
	if err := c.Emit(domain.EventError, domain.ErrorMessage{Error: text}); err != nil {
		c.logger.Debug("Failed to send error", zap.Error(err))
	}
}
