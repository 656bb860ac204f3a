// Package server implements the per-connection protocol state machine that
// validates inbound frames and turns them into state changes and broadcasts.
package server

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat-rooms/internal/protocol"
	"github.com/Tyrowin/gochat-rooms/internal/state"
)

const (
	noticeInvalidMessage = "invalid message"
	noticeInvalidRoom    = "invalid room name"
	noticeNeedNick       = "set a nickname first"
	noticeEmptyText      = "message text is empty"
	noticeEmptyNick      = "nickname is empty"
)

func joinedText(nick, room string) string { return fmt.Sprintf("%s joined %s", nick, room) }

func leftText(nick, room string) string { return fmt.Sprintf("%s left %s", nick, room) }

// dispatch handles one inbound frame from client. Every failure is reported
// to the sender only, as a system notice.
func (h *Hub) dispatch(client *Client, raw []byte) {
	record, ok := h.state.Connection(client.id)
	if !ok {
		return
	}

	req, err := protocol.Decode(raw)
	if err != nil {
		h.log.WithError(err).WithField("conn", record.ID).Debug("Rejected inbound frame")
		if errors.Is(err, protocol.ErrUnsupported) {
			h.sendSystem(record.ID, err.Error())
			return
		}
		h.sendSystem(record.ID, noticeInvalidMessage)
		return
	}

	switch req := req.(type) {
	case protocol.JoinRoom:
		h.handleJoinRoom(record, req.Room)
	case protocol.LeaveRoom:
		h.handleLeaveRoom(record, req.Room)
	case protocol.SendChat:
		h.handleChat(record, req.Text)
	case protocol.Typing:
		h.handleTyping(record)
	case protocol.SetNick:
		if !h.identity.SelfDeclared() {
			h.rejectUnsupported(record.ID, req.RequestType())
			return
		}
		h.handleSetNick(record, req.Nick)
	case protocol.Leave:
		if !h.identity.SelfDeclared() {
			h.rejectUnsupported(record.ID, req.RequestType())
			return
		}
		h.handleLeave(record)
	default:
		h.rejectUnsupported(record.ID, req.RequestType())
	}
}

func (h *Hub) rejectUnsupported(id uuid.UUID, msgType string) {
	h.sendSystem(id, fmt.Sprintf("%s %q", protocol.ErrUnsupported.Error(), msgType))
}

func (h *Hub) handleJoinRoom(record state.Connection, raw string) {
	room, ok := state.NormalizeRoom(raw)
	if !ok {
		h.sendSystem(record.ID, noticeInvalidRoom)
		return
	}
	h.moveTo(record, room)
}

func (h *Hub) handleLeaveRoom(record state.Connection, raw string) {
	room, ok := state.NormalizeRoom(raw)
	if !ok || room != record.Room {
		target := room
		if !ok {
			target = strings.TrimSpace(raw)
		}
		h.sendSystem(record.ID, fmt.Sprintf("you are not in %s", target))
		return
	}
	if room == state.DefaultRoom {
		h.sendSystem(record.ID, fmt.Sprintf("you cannot leave %s", state.DefaultRoom))
		return
	}
	h.moveTo(record, state.DefaultRoom)
}

// moveTo switches the connection to room and refreshes everyone affected.
// Joining the current room only resends that room's state to the requester.
func (h *Hub) moveTo(record state.Connection, room string) {
	if record.Room == room {
		h.send(record.ID, protocol.NewRoomCurrent(room))
		h.send(record.ID, protocol.NewRoomList(h.state.Rooms()))
		h.send(record.ID, protocol.NewUserList(room, h.state.UsersIn(room)))
		return
	}

	from, err := h.state.Move(record.ID, room)
	if err != nil {
		h.log.WithError(err).WithField("conn", record.ID).Error("Failed to move connection")
		h.sendSystem(record.ID, noticeInvalidRoom)
		return
	}

	h.log.WithFields(logrus.Fields{
		"conn": record.ID,
		"nick": record.Identity,
		"from": from,
		"room": room,
	}).Debug("Connection changed room")

	if record.Identified() {
		h.roomcast(from, protocol.NewSystemNotice(leftText(record.Identity, from)), uuid.Nil)
	}
	h.roomcast(from, protocol.NewUserList(from, h.state.UsersIn(from)), uuid.Nil)

	users := h.state.UsersIn(room)
	h.send(record.ID, protocol.NewRoomCurrent(room))
	h.send(record.ID, protocol.NewUserList(room, users))

	if record.Identified() {
		h.roomcast(room, protocol.NewSystemNotice(joinedText(record.Identity, room)), uuid.Nil)
	}
	h.roomcast(room, protocol.NewUserList(room, users), record.ID)

	h.broadcastRoomList()
}

func (h *Hub) handleChat(record state.Connection, text string) {
	if !record.Identified() {
		h.sendSystem(record.ID, noticeNeedNick)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		h.sendSystem(record.ID, noticeEmptyText)
		return
	}
	h.roomcast(record.Room, protocol.NewChatMessage(record.Identity, text, h.now()), uuid.Nil)
}

func (h *Hub) handleTyping(record state.Connection) {
	if !record.Identified() {
		h.sendSystem(record.ID, noticeNeedNick)
		return
	}
	h.roomcast(record.Room, protocol.NewTypingNotice(record.Identity), record.ID)
}

func (h *Hub) handleSetNick(record state.Connection, raw string) {
	nick := strings.TrimSpace(raw)
	switch {
	case nick == "":
		h.sendSystem(record.ID, noticeEmptyNick)
		return
	case utf8.RuneCountInString(nick) > h.maxNickLength:
		h.sendSystem(record.ID, fmt.Sprintf("nickname is too long (max %d characters)", h.maxNickLength))
		return
	case nick == record.Identity:
		return
	}

	old, err := h.state.SetIdentity(record.ID, nick)
	if err != nil {
		h.log.WithError(err).WithField("conn", record.ID).Error("Failed to set nickname")
		return
	}

	if old == "" {
		h.roomcast(record.Room, protocol.NewSystemNotice(joinedText(nick, record.Room)), uuid.Nil)
	} else {
		h.roomcast(record.Room, protocol.NewSystemNotice(fmt.Sprintf("%s is now %s", old, nick)), uuid.Nil)
	}
	h.roomcast(record.Room, protocol.NewUserList(record.Room, h.state.UsersIn(record.Room)), uuid.Nil)
}

func (h *Hub) handleLeave(record state.Connection) {
	if !record.Identified() {
		h.sendSystem(record.ID, noticeNeedNick)
		return
	}

	old, err := h.state.ClearIdentity(record.ID)
	if err != nil {
		h.log.WithError(err).WithField("conn", record.ID).Error("Failed to clear nickname")
		return
	}

	h.roomcast(record.Room, protocol.NewSystemNotice(leftText(old, record.Room)), uuid.Nil)
	h.roomcast(record.Room, protocol.NewUserList(record.Room, h.state.UsersIn(record.Room)), uuid.Nil)
}
