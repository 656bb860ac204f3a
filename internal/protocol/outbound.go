package protocol

import (
	"encoding/json"
	"time"
)

// ChatMessage is a chat line fanned out to a room.
type ChatMessage struct {
	Type string `json:"type"`
	Nick string `json:"nick"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// SystemNotice is server-generated text shown to users.
type SystemNotice struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UserList is the sorted presence list of a room.
type UserList struct {
	Type  string   `json:"type"`
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// RoomList is the server-wide room catalog.
type RoomList struct {
	Type  string   `json:"type"`
	Rooms []string `json:"rooms"`
}

// RoomCurrent tells a connection which room it is in.
type RoomCurrent struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// TypingNotice tells a room that Nick is typing.
type TypingNotice struct {
	Type string `json:"type"`
	Nick string `json:"nick"`
}

// NewChatMessage stamps a chat line with at in Unix milliseconds.
func NewChatMessage(nick, text string, at time.Time) ChatMessage {
	return ChatMessage{Type: TypeChat, Nick: nick, Text: text, TS: at.UnixMilli()}
}

// NewSystemNotice builds a system notice carrying text.
func NewSystemNotice(text string) SystemNotice {
	return SystemNotice{Type: TypeSystem, Text: text}
}

// NewUserList never produces a null users array.
func NewUserList(room string, users []string) UserList {
	if users == nil {
		users = []string{}
	}
	return UserList{Type: TypeUserList, Room: room, Users: users}
}

// NewRoomList never produces a null rooms array.
func NewRoomList(rooms []string) RoomList {
	if rooms == nil {
		rooms = []string{}
	}
	return RoomList{Type: TypeRoomList, Rooms: rooms}
}

// NewRoomCurrent tells a connection which room it is now in.
func NewRoomCurrent(room string) RoomCurrent {
	return RoomCurrent{Type: TypeRoomCurrent, Room: room}
}

// NewTypingNotice announces that nick is composing a message.
func NewTypingNotice(nick string) TypingNotice {
	return TypingNotice{Type: TypeTyping, Nick: nick}
}

// Encode serialises an outbound message into a single frame payload.
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}
