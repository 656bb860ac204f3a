// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the room directory listing.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat-rooms/internal/identity"
	"github.com/Tyrowin/gochat-rooms/internal/state"
)

// RoomsResponse is the body of GET /rooms.
type RoomsResponse struct {
	Rooms []state.RoomInfo `json:"rooms"`
}

// WebSocketHandler upgrades GET requests to WebSocket and hands the new
// client to the hub. Under pre-authenticated identity a request without a
// valid token is upgraded and then closed with code 4001.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	log := s.log.WithField("addr", r.RemoteAddr)
	name, identifyErr := s.identity.Identify(r.Context(), r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	if identifyErr != nil {
		log.WithError(identifyErr).Warn("Rejecting unauthenticated connection")
		s.rejectUnauthorized(conn, log)
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, name, s.config)
	if !s.hub.Register(client) {
		client.closeTransport()
	}
}

func (s *Server) rejectUnauthorized(conn *websocket.Conn, log logrus.FieldLogger) {
	msg := websocket.FormatCloseMessage(identity.CloseUnauthorized, "unauthorized")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout)); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		log.WithError(err).Warn("Error writing unauthorized close frame")
	}
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.WithError(err).Warn("Error closing unauthorized connection")
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "GoChat Rooms server is running!")
}

// RoomsHandler lists every room with its member count and identified users.
func (s *Server) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RoomsResponse{Rooms: s.state.Snapshot()}); err != nil {
		s.log.WithError(err).Warn("Error writing rooms response")
	}
}
