package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ivesdebruycker/maxcube/internal/codec"
	"github.com/ivesdebruycker/maxcube/internal/cube"
	"github.com/ivesdebruycker/maxcube/internal/logging"
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	LogLevel string
}

// Session is the slice of the cube client the server reads from
type Session interface {
	Updates() <-chan cube.Update
	Done() <-chan struct{}
	Rooms() []codec.Room
	Devices() []codec.Device
	Statuses() []codec.DeviceStatus
	DeviceInfo(rfAddress string) (cube.DeviceInfo, error)
	CommStatus() codec.CommStatus
	Hello() *codec.Hello
}

// Server exposes a cube session over HTTP: a JSON snapshot API and a
// WebSocket feed of live updates on /ws.
type Server struct {
	config     *Config
	session    Session
	hub        *hub
	httpServer *http.Server
}

// New creates a new Server instance
func New(config *Config, session Session) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return &Server{
		config:  config,
		session: session,
		hub:     newHub(),
	}, nil
}

// Handler returns the HTTP handler with all routes mounted
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	logging.Info("Starting cube status server",
		zap.String("addr", addr),
		zap.String("log_level", s.config.LogLevel),
	)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Forward cube updates to WebSocket subscribers
	go s.forwardUpdates()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case <-s.session.Done():
		logging.Warn("Cube session ended, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// forwardUpdates pushes cube updates into the WebSocket hub
func (s *Server) forwardUpdates() {
	for {
		select {
		case update := <-s.session.Updates():
			s.broadcastUpdate(update)
		case <-s.session.Done():
			return
		}
	}
}

func (s *Server) broadcastUpdate(update cube.Update) {
	event := wsEvent{
		Event: "update",
		Kind:  update.Kind.String(),
	}
	if update.RFAddress != "" {
		event.RFAddress = update.RFAddress
		if info, err := s.session.DeviceInfo(update.RFAddress); err == nil {
			view := deviceView(info)
			event.Device = &view
		}
	}
	s.hub.broadcast(event)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s.hub.closeAll()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	logging.Sync()
	return err
}

// SubscriberCount returns the number of connected WebSocket clients
func (s *Server) SubscriberCount() int {
	return s.hub.count()
}
