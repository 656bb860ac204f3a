// Package server wires HTTP handlers into a ServeMux for the GoChat Rooms
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// /login is mounted only when a login handler was configured.
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)
	mux.HandleFunc("/rooms", s.RoomsHandler)
	if s.login != nil {
		mux.Handle("/login", s.login)
	}
	return mux
}
