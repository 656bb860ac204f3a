// Package server delivers encoded messages to one connection, to the members
// of a room, or to every connection.
package server

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat-rooms/internal/protocol"
)

// encode serialises msg once so every recipient gets identical bytes.
func (h *Hub) encode(msg any) ([]byte, bool) {
	payload, err := protocol.Encode(msg)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode outbound message")
		return nil, false
	}
	return payload, true
}

func (h *Hub) send(id uuid.UUID, msg any) {
	if payload, ok := h.encode(msg); ok {
		h.unicast(id, payload)
	}
}

func (h *Hub) sendSystem(id uuid.UUID, text string) {
	h.send(id, protocol.NewSystemNotice(text))
}

// unicast queues payload for one connection without blocking. Messages for
// connections that are gone or closing are dropped. A full queue drops the
// message and also disconnects the client as too slow; its read pump then
// submits the detach that cleans up its state.
func (h *Hub) unicast(id uuid.UUID, payload []byte) {
	h.mutex.RLock()
	client, ok := h.clients[id]
	h.mutex.RUnlock()
	if !ok || client.closed {
		return
	}

	select {
	case client.send <- payload:
	default:
		h.log.WithFields(logrus.Fields{
			"conn": client.id,
			"addr": client.addr,
		}).Warn("Send buffer full; dropping slow client")
		client.closeSend()
	}
}

// roomcast queues msg for every member of room except exclude. Pass uuid.Nil
// to include everyone.
func (h *Hub) roomcast(room string, msg any, exclude uuid.UUID) {
	members := h.state.Members(room)
	if len(members) == 0 {
		return
	}
	payload, ok := h.encode(msg)
	if !ok {
		return
	}
	for _, id := range members {
		if id == exclude {
			continue
		}
		h.unicast(id, payload)
	}
}

// broadcastRoomList sends the room catalog to every connection regardless of
// the room it is in.
func (h *Hub) broadcastRoomList() {
	payload, ok := h.encode(protocol.NewRoomList(h.state.Rooms()))
	if !ok {
		return
	}
	for _, id := range h.state.ConnectionIDs() {
		h.unicast(id, payload)
	}
}
