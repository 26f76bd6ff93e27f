// ABOUTME: WebSocket transport to the voice relay
// ABOUTME: Keeps a connection up, delivers inbound chunks, reports lifecycle events
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voice-relay/internal/version"
	"github.com/Resonate-Protocol/voice-relay/pkg/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrDisconnected is returned by Send while there is no live connection
var ErrDisconnected = errors.New("not connected to relay")

const (
	defaultPath           = "/ws"
	defaultReconnectDelay = time.Second
	handshakeTimeout      = 5 * time.Second
	writeTimeout          = 5 * time.Second
)

// EventKind is a transport lifecycle transition
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventConnectionError
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventConnectionError:
		return "connection_error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event reports a lifecycle transition. ConnectionID is set on
// EventConnected, Err on EventDisconnected and EventConnectionError.
type Event struct {
	Kind         EventKind
	ConnectionID string
	Err          error
}

// Config holds client configuration
type Config struct {
	ServerAddr     string // host:port
	Path           string
	ReconnectDelay time.Duration
}

// Client is a reconnecting websocket client
type Client struct {
	config Config

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	connID    string

	// gorilla allows one concurrent writer
	writeMu sync.Mutex

	// Chunks carries inbound chunk payloads in arrival order
	Chunks chan []byte
	// Events carries lifecycle transitions
	Events chan Event
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = defaultPath
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = defaultReconnectDelay
	}

	return &Client{
		config: config,
		Chunks: make(chan []byte, 100),
		Events: make(chan Event, 16),
	}
}

// Run connects and keeps reconnecting until ctx is cancelled
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, connID, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Str("module", "client").Str("server", c.config.ServerAddr).Msg("connection error")
			c.emit(ctx, Event{Kind: EventConnectionError, Err: err})
		} else {
			c.setConn(conn, connID)
			log.Info().Str("module", "client").Str("conn_id", connID).Msg("connected")
			c.emit(ctx, Event{Kind: EventConnected, ConnectionID: connID})

			readErr := c.serve(ctx, conn)

			c.clearConn()
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(readErr).Str("module", "client").Msg("disconnected")
			c.emit(ctx, Event{Kind: EventDisconnected, Err: readErr})
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.config.ReconnectDelay):
		}
	}
}

// dial opens a connection and waits for the relay greeting
func (c *Client) dial(ctx context.Context) (*websocket.Conn, string, error) {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	log.Debug().Str("module", "client").Str("url", u.String()).Msg("dialing")

	dialCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	header := http.Header{"User-Agent": []string{version.UserAgent()}}
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), header)
	if err != nil {
		return nil, "", fmt.Errorf("dial failed: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("failed to read server/hello: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	if messageType != websocket.TextMessage {
		conn.Close()
		return nil, "", fmt.Errorf("expected server/hello, got binary frame")
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type != protocol.TypeServerHello {
		conn.Close()
		return nil, "", fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	var hello protocol.ServerHello
	if err := msg.Decode(&hello); err != nil {
		conn.Close()
		return nil, "", err
	}
	return conn, hello.ConnectionID, nil
}

// serve reads until the connection fails or ctx ends
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer conn.Close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(ctx, data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

func (c *Client) handleBinaryMessage(ctx context.Context, data []byte) {
	typ, payload, err := protocol.DecodeFrame(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "client").Msg("invalid binary message")
		return
	}
	if typ != protocol.FrameAudioChunk {
		log.Warn().Str("module", "client").Stringer("type", typ).Msg("unknown binary message type")
		return
	}

	select {
	case c.Chunks <- payload:
	case <-ctx.Done():
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "client").Msg("failed to parse JSON message")
		return
	}
	log.Debug().Str("module", "client").Str("type", msg.Type).Msg("ignoring control message")
}

// Send wraps payload in an audio frame and writes it. Returns
// ErrDisconnected when no connection is up.
func (c *Client) Send(payload []byte) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()

	if !connected {
		return ErrDisconnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeAudioChunk(payload)); err != nil {
		return fmt.Errorf("failed to send chunk: %w", err)
	}
	return nil
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ConnectionID returns the id the relay assigned to the current connection
func (c *Client) ConnectionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connID
}

func (c *Client) setConn(conn *websocket.Conn, connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.connID = connID
	c.connected = true
}

func (c *Client) clearConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = nil
	c.connID = ""
	c.connected = false
}

func (c *Client) emit(ctx context.Context, ev Event) {
	select {
	case c.Events <- ev:
	case <-ctx.Done():
	}
}
