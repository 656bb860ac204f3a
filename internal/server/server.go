// Package server assembles the room state, hub, identity strategy and HTTP
// surface into one runnable GoChat Rooms server.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat-rooms/internal/identity"
	"github.com/Tyrowin/gochat-rooms/internal/state"
)

// Server owns the hub and the HTTP listener for one configuration.
type Server struct {
	config   *Config
	log      logrus.FieldLogger
	state    *state.State
	hub      *Hub
	identity identity.Strategy
	login    http.Handler
	origins  *originPolicy
	upgrader websocket.Upgrader
	http     *http.Server
}

// Option customises a Server at construction.
type Option func(*Server)

// WithLogger sets the logger used by the server and its hub.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithLoginHandler mounts handler at /login.
func WithLoginHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.login = handler
	}
}

// New builds a Server for cfg. The hub is created but not started; call Start
// or run Hub().Run yourself.
func New(cfg *Config, strategy identity.Strategy, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if strategy == nil {
		return nil, errors.New("server: identity strategy is required")
	}

	s := &Server{
		config:   cfg,
		log:      logrus.StandardLogger(),
		state:    state.New(),
		identity: strategy,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = NewHub(s.state, strategy, s.log, cfg.MaxNickLength)
	s.origins = newOriginPolicy(cfg.AllowedOrigins, s.log)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	s.http = CreateServer(cfg.Port, s.SetupRoutes())
	return s, nil
}

// Hub returns the server's hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// State returns the shared room and connection state.
func (s *Server) State() *state.State {
	return s.state
}

// HTTPServer returns the underlying listener configuration.
func (s *Server) HTTPServer() *http.Server {
	return s.http
}

// Start runs the hub and serves HTTP until the listener stops. It returns nil
// after a clean Shutdown.
func (s *Server) Start() error {
	go s.hub.Run()
	s.log.WithFields(logrus.Fields{
		"port":     s.config.Port,
		"identity": s.identity.Mode(),
	}).Info("Hub started and ready to manage WebSocket connections")

	if err := StartServer(s.http, s.log); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, then closes every client and waits
// for the hub to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	httpErr := ShutdownServer(ctx, s.http, s.log)
	hubErr := s.hub.Shutdown(s.config.ShutdownTimeout)
	return errors.Join(httpErr, hubErr)
}
