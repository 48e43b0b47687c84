// Package ws bridges WebSocket connections to the fan-out hubs. Each
// connection owns one Client, which is the hub.Sink for that socket:
// Deliver enqueues onto a buffered channel and the write pump drains it
// to the wire under a write deadline.
package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/junexi0828/focusmate-sub001/internal/hub"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum control frame size allowed from peer.
	maxMessageSize = 1024

	// Outbound event buffer per connection. A reader that cannot keep
	// up overflows the buffer and gets detached.
	sendBufferSize = 64
)

var (
	errSinkClosed     = errors.New("ws: sink closed")
	errSinkBufferFull = errors.New("ws: sink buffer full")
)

// ControlFrame is the minimal client -> server message. The REST
// surface is authoritative; WebSocket carries only join/leave
// signalling.
type ControlFrame struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}

// Client wraps one WebSocket connection.
type Client struct {
	conn      *websocket.Conn
	send      chan hub.Event
	writeWait time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn *websocket.Conn, writeWait time.Duration) *Client {
	return &Client{
		conn:      conn,
		send:      make(chan hub.Event, sendBufferSize),
		writeWait: writeWait,
		closed:    make(chan struct{}),
	}
}

var _ hub.Sink = (*Client)(nil)

// Deliver enqueues an event for the write pump. It never blocks: a
// closed client or a full buffer is an error, and the hub detaches the
// sink in response.
func (c *Client) Deliver(event hub.Event) error {
	select {
	case <-c.closed:
		return errSinkClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	default:
		return errSinkBufferFull
	}
}

// Close shuts the connection down once; safe to call from any
// goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// WritePump drains the send buffer to the socket and keeps the
// connection alive with pings. Runs in its own goroutine; exits when
// the client closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			return

		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes control frames until the connection dies, invoking
// onFrame for each. Blocks the caller; returns on close.
func (c *Client) ReadPump(onFrame func(frame ControlFrame)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame ControlFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("ws read failed")
			}
			return
		}
		onFrame(frame)
	}
}
