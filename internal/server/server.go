// ABOUTME: Relay server for voice chunks
// ABOUTME: Serves the websocket endpoint, static assets, metrics, and mDNS advertisement
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voice-relay/internal/config"
	"github.com/Resonate-Protocol/voice-relay/internal/discovery"
	"github.com/Resonate-Protocol/voice-relay/internal/metrics"
	"github.com/Resonate-Protocol/voice-relay/internal/relay"
	"github.com/Resonate-Protocol/voice-relay/pkg/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// WebSocketPath is where clients connect
const WebSocketPath = "/ws"

// writeDeadline bounds a single websocket write
const writeDeadline = 10 * time.Second

// Server is the relay process: HTTP routing around one Hub
type Server struct {
	config   *config.Config
	hub      *relay.Hub
	metrics  *metrics.Relay
	registry *prometheus.Registry

	upgrader websocket.Upgrader
	router   *gin.Engine

	// open websocket connections, closed on shutdown
	connsMu    sync.Mutex
	conns      map[relay.ConnID]*conn
	isShutdown bool

	wg sync.WaitGroup
}

// New creates a relay server from cfg
func New(cfg *config.Config) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewRelay(reg)

	s := &Server{
		config:   cfg,
		hub:      relay.NewHub(m),
		metrics:  m,
		registry: reg,
		upgrader: websocket.Upgrader{
			// browsers on the local network load the page from this server
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[relay.ConnID]*conn),
	}
	s.router = s.setupRouter()
	return s
}

// Hub returns the relay hub
func (s *Server) Hub() *relay.Hub {
	return s.hub
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	if !s.config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if s.config.Debug {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET(WebSocketPath, func(c *gin.Context) {
		s.handleWebSocket(c.Writer, c.Request)
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": s.hub.Count(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// the browser client lives at the service root
	r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.config.StaticDir))))

	log.Info().Str("module", "server").Str("static", s.config.StaticDir).Msg("router setup")
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	var mdnsManager *discovery.Manager
	if s.config.EnableMDNS {
		mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        WebSocketPath,
		})
		if err := mdnsManager.Advertise(); err != nil {
			log.Warn().Err(err).Str("module", "server").Msg("failed to start mDNS advertisement")
		}
		defer mdnsManager.Stop()
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("module", "server").Str("addr", addr).Str("name", s.config.Name).Msg("relay listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		log.Info().Str("module", "server").Msg("relay shutting down")
	case err := <-errChan:
		serverErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Str("module", "server").Msg("HTTP server shutdown error")
	}
	s.Close()

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	log.Info().Str("module", "server").Msg("relay stopped cleanly")
	return nil
}

// Close drops every open websocket and waits for their goroutines
func (s *Server) Close() {
	s.connsMu.Lock()
	s.isShutdown = true
	open := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		open = append(open, c)
	}
	s.connsMu.Unlock()

	for _, c := range open {
		_ = c.ws.Close()
	}
	s.wg.Wait()
}

// handleWebSocket upgrades the request and runs the connection until it drops
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "server").Msg("websocket upgrade")
		return
	}

	c := newConn(ws, s.config.SendBuffer)

	s.connsMu.Lock()
	if s.isShutdown {
		s.connsMu.Unlock()
		log.Info().Str("module", "server").Msg("rejecting connection during shutdown")
		_ = ws.Close()
		return
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	s.connsMu.Unlock()

	defer func() {
		s.connsMu.Lock()
		delete(s.conns, c.id)
		s.connsMu.Unlock()
		s.wg.Done()
	}()

	log.Info().Str("module", "server").Str("conn_id", string(c.id)).Str("remote", r.RemoteAddr).
		Msg("new websocket connection")

	if err := c.writeHello(s.config.Name); err != nil {
		log.Error().Err(err).Str("module", "server").Str("conn_id", string(c.id)).Msg("failed to send hello")
		_ = ws.Close()
		return
	}

	s.hub.Connected(c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(s.config.PingPeriod)
	}()

	c.readPump(s.config.ReadLimit, s.config.PingPeriod, s.handleFrame)

	s.hub.Disconnected(c.id)
	c.close()
	<-writerDone
	_ = ws.Close()
}

// handleFrame routes one inbound binary frame
func (s *Server) handleFrame(c *conn, messageType int, data []byte) {
	if messageType != websocket.BinaryMessage {
		s.metrics.DroppedFrames.WithLabelValues("text").Inc()
		log.Debug().Str("module", "server").Str("conn_id", string(c.id)).Msg("ignoring text frame")
		return
	}

	typ, _, err := protocol.DecodeFrame(data)
	if err != nil {
		s.metrics.DroppedFrames.WithLabelValues("short").Inc()
		log.Warn().Err(err).Str("module", "server").Str("conn_id", string(c.id)).Msg("bad frame")
		return
	}
	if typ != protocol.FrameAudioChunk {
		s.metrics.DroppedFrames.WithLabelValues("unknown_type").Inc()
		log.Warn().Str("module", "server").Str("conn_id", string(c.id)).Stringer("type", typ).
			Msg("unknown frame type")
		return
	}

	// forwarded verbatim, type byte included
	s.hub.ChunkReceived(c.id, data)
}
