// ABOUTME: Per-connection websocket pumps for the relay
// ABOUTME: A buffered send queue feeds one writer; one reader feeds the hub
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voice-relay/internal/relay"
	"github.com/Resonate-Protocol/voice-relay/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSendBufferFull means the recipient is not draining its queue
	ErrSendBufferFull = errors.New("client send buffer full")

	// ErrConnClosed means the recipient already went away
	ErrConnClosed = errors.New("connection closed")
)

// conn is one websocket session; it is the relay.Peer the hub sees
type conn struct {
	id   relay.ConnID
	ws   *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn, buffer int) *conn {
	return &conn{
		id:   relay.ConnID(uuid.NewString()),
		ws:   ws,
		send: make(chan []byte, buffer),
	}
}

func (c *conn) ID() relay.ConnID {
	return c.id
}

// Send queues a frame for the writer without blocking
func (c *conn) Send(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// close stops accepting frames; the writer drains what is queued and exits
func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writeHello must run before the writer goroutine starts
func (c *conn) writeHello(name string) error {
	msg, err := protocol.NewMessage(protocol.TypeServerHello, protocol.ServerHello{
		ConnectionID: string(c.id),
		Name:         name,
		Version:      protocol.Version,
	})
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal hello: %w", err)
	}

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// writePump sends queued frames and keepalive pings
func (c *conn) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}

			_ = c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Warn().Err(err).Str("module", "server").Str("conn_id", string(c.id)).Msg("write error")
				// unblock the reader
				_ = c.ws.Close()
				return
			}

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

// readPump delivers inbound messages to handle until the socket fails
func (c *conn) readPump(readLimit int64, pingPeriod time.Duration, handle func(*conn, int, []byte)) {
	// a peer that misses two pings is gone
	timeout := 2 * pingPeriod

	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(timeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "server").Str("conn_id", string(c.id)).Msg("websocket error")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(timeout))

		handle(c, messageType, data)
	}
}
