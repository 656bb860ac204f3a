// Package server implements the HTTP and WebSocket surface of GoChat Rooms.
//
// A Server owns one Hub. The hub runs a single goroutine that attaches and
// detaches clients and dispatches every inbound frame, so all changes to the
// room state happen in one order. Clients run a read pump and a write pump
// each; the read pump rate-limits and forwards frames to the hub, the write
// pump sends one protocol message per WebSocket frame.
//
// The code is split into files for configuration, logging, the hub and its
// dispatcher and router, clients, routing, and HTTP handlers.
package server
