package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

// Frame is the wire envelope in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Identity is the authenticated user behind a connection
type Identity struct {
	UserID   string
	Username string
}

// Client is one WebSocket connection and implements match.Conn
type Client struct {
	id       string
	conn     *websocket.Conn
	identity *Identity
	log      logrus.FieldLogger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, identity *Identity, log logrus.FieldLogger) *Client {
	id := uuid.NewString()
	fields := logrus.Fields{"conn_id": id}
	if identity != nil {
		fields["user_id"] = identity.UserID
	}
	return &Client{
		id:       id,
		conn:     conn,
		identity: identity,
		log:      log.WithFields(fields),
		send:     make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string { return c.id }

// Identity returns the authenticated user, or nil for anonymous connections
func (c *Client) Identity() *Identity { return c.identity }

// Send queues a frame without blocking; frames are dropped when the queue is full or the client is gone
func (c *Client) Send(event string, payload any) {
	b, err := json.Marshal(outFrame{Event: event, Data: payload})
	if err != nil {
		c.log.WithError(err).WithField("event", event).Error("failed to encode frame")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		c.log.WithField("event", event).Warn("send queue full, dropping frame")
	}
}

// close stops the write pump after it drained the queue
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads frames and dispatches them in order until the connection goes away
func (c *Client) ReadPump(d *Dispatcher) {
	defer func() {
		d.Disconnect(c)
		c.close()
		c.conn.Close()
		c.log.Info("read pump exited, client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read error")
			} else {
				c.log.Debug("websocket closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.log.Debugf("ignoring non-text message type %d", messageType)
			continue
		}
		d.Dispatch(c, message)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("failed to send ping")
				return
			}
		}
	}
}
