// Package transport owns the websocket edge: upgrading connections,
// pumping frames and translating socket lifecycle into room events.
package transport

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// One ping every 10s; a peer that misses six in a row is dropped.
	pingPeriod      = 10 * time.Second
	missedPingLimit = 6
	pongWait        = missedPingLimit * pingPeriod

	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client is one websocket connection. It satisfies the room's Sender
// interface: Send marshals immediately so the payload is captured while the
// room lock is held, then queues the frame for the write pump.
type Client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
	closed    chan struct{}

	// consented flips when the peer closes cleanly; a dirty drop leaves it
	// false and opens the reconnection grace window.
	consented bool
}

func newClient(conn *websocket.Conn) (*Client, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	return &Client{
		sessionID: id,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		closed:    make(chan struct{}),
	}, nil
}

func (c *Client) SessionID() string { return c.sessionID }

// Send marshals v now and queues the frame without blocking. A client too
// slow to drain its buffer loses frames rather than stalling the room; the
// next state snapshot resynchronizes it.
func (c *Client) Send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Client] session=%s marshal outbound: %v", c.sessionID, err)
		return
	}
	select {
	case c.send <- data:
	case <-c.closed:
	default:
		log.Printf("[Client] session=%s send buffer full, dropping frame", c.sessionID)
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump feeds inbound frames to handle until the socket dies. It
// reports whether the peer closed with a normal close code.
func (c *Client) readPump(handle func(raw []byte)) bool {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.consented = true
			}
			return c.consented
		}
		handle(data)
	}
}

// close tears the connection down from the server side.
func (c *Client) close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
