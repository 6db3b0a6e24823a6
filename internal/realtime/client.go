package realtime

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/gorilla/websocket"
)

const (
	// Server-initiated heartbeat: ping every pingPeriod, drop the
	// connection when no pong arrives within pongWait.
	pingPeriod = 25 * time.Second
	pongWait   = 60 * time.Second

	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256

	// A connection that has not authenticated within authWait is dropped.
	authWait = 10 * time.Second
)

// Client is one live websocket connection. The rooms set is guarded by the
// hub's mutex, not the client's own.
type Client struct {
	ID    string
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]bool
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:    id,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		rooms: make(map[string]bool),
	}
}

// writePump drains the send channel onto the wire and drives the heartbeat.
// It exits when the hub closes the send channel or a write fails.
func (c *Client) writePump(logger apt.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("write failed", "connection_id", c.ID, "error", err)
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

// readPump reads inbound messages until the connection closes, then invokes
// onClose exactly once. Pongs extend the read deadline; a silent half-open
// connection times out after pongWait.
func (c *Client) readPump(onMessage func([]byte), onClose func()) {
	defer func() {
		c.conn.Close()
		onClose()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		onMessage(msg)
	}
}
