// Package web serves the repcount HTTP API and WebSocket streams.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/engine"
	"github.com/teslashibe/go-repcount/pkg/hub"
	"github.com/teslashibe/go-repcount/pkg/protocol"
	"github.com/teslashibe/go-repcount/pkg/session"
)

// Server exposes an engine over HTTP and WebSocket
type Server struct {
	app  *fiber.App
	addr string

	// engine is not safe for concurrent use; every frame and reset goes
	// through mu
	mu       sync.Mutex
	engine   *engine.Engine
	sessions *session.Manager

	// Hubs for websocket fan-out
	eventHub  *hub.Hub
	ingestHub *hub.Hub

	// DefaultExercise names sessions started without an exercise
	DefaultExercise string

	logger *slog.Logger
}

// NewServer creates a server for eng. eng must have a session manager.
func NewServer(addr string, eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:            addr,
		DefaultExercise: "exercise",
		engine:          eng,
		sessions:        eng.Sessions(),
		eventHub:        hub.New("events", logger),
		ingestHub:       hub.New("ingest", logger),
		logger:          logger,
	}

	eng.Subscribe(s.publish)

	app := fiber.New(fiber.Config{
		AppName:               "repcount",
		DisableStartupMessage: true,
	})

	// CORS for local dashboards
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Post("/session/:action", s.handleSessionAction)
	api.Post("/frames", s.handleFrames)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/pose", websocket.New(s.handlePoseWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on the server address and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the hubs and serves ln until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.eventHub.Run(ctx)
	go s.ingestHub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- s.app.Listener(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.app.Shutdown()
	}
}

// process runs one frame through the engine under the lock
func (s *Server) process(fn func(*engine.Engine) engine.Update) engine.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// publish broadcasts every update except plain monitoring to event clients
func (s *Server) publish(u engine.Update) {
	if u.Kind() == detector.KindMonitoring {
		return
	}
	msg, err := protocol.NewEventMessage(u)
	if err != nil {
		s.logger.Error("failed to encode event", "error", err)
		return
	}
	if err := s.eventHub.BroadcastProtocol(msg); err != nil {
		s.logger.Error("failed to broadcast event", "error", err)
	}
}

// status snapshots engine, session and hub state
func (s *Server) status() protocol.StatusData {
	s.mu.Lock()
	st := protocol.StatusFromEngine(s.engine.Status())
	s.mu.Unlock()

	st.Session = s.sessions.State().String()
	if cur := s.sessions.Current(); cur != nil {
		st.SessionID = cur.ID
		st.Exercise = cur.Exercise
	}
	st.Clients = s.eventHub.ClientCount()
	return st
}
