// Package protocol defines the JSON messages exchanged with chat clients.
//
// Every websocket text frame carries exactly one JSON object with a "type"
// discriminator. Inbound frames decode into one of the request variants
// below; outbound messages are built with the New* constructors and
// serialised once with Encode.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message type discriminators.
const (
	TypeJoinRoom    = "join-room"
	TypeLeaveRoom   = "leave-room"
	TypeChat        = "chat"
	TypeTyping      = "typing"
	TypeSetNick     = "set-nick"
	TypeLeave       = "leave"
	TypeSystem      = "system"
	TypeUserList    = "user-list"
	TypeRoomList    = "room-list"
	TypeRoomCurrent = "room-current"
)

var (
	// ErrMalformed is returned for frames that are not a JSON object with a
	// type and the fields that type requires.
	ErrMalformed = errors.New("malformed message")
	// ErrUnsupported is returned for a well-formed frame whose type is unknown.
	ErrUnsupported = errors.New("unsupported message type")
)

// Request is an inbound client message.
type Request interface {
	RequestType() string
}

// JoinRoom asks to move the connection into Room, creating it if needed.
type JoinRoom struct {
	Room string
}

// LeaveRoom asks to move the connection from Room back to the default room.
type LeaveRoom struct {
	Room string
}

// SendChat carries a chat line for the sender's current room.
type SendChat struct {
	Text string
}

// Typing signals that the sender is composing a message.
type Typing struct{}

// SetNick claims or changes the sender's display name.
type SetNick struct {
	Nick string
}

// Leave drops the sender's claimed display name.
type Leave struct{}

// RequestType returns the wire type tag each request was decoded from.
func (JoinRoom) RequestType() string  { return TypeJoinRoom }
func (LeaveRoom) RequestType() string { return TypeLeaveRoom }
func (SendChat) RequestType() string  { return TypeChat }
func (Typing) RequestType() string    { return TypeTyping }
func (SetNick) RequestType() string   { return TypeSetNick }
func (Leave) RequestType() string     { return TypeLeave }

type envelope struct {
	Type *string `json:"type"`
}

type roomBody struct {
	Room *string `json:"room"`
}

type chatBody struct {
	Text *string `json:"text"`
}

type nickBody struct {
	Nick *string `json:"nick"`
}

// Decode parses a raw inbound frame. The returned error wraps ErrMalformed
// or ErrUnsupported.
func Decode(raw []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == nil || *env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch *env.Type {
	case TypeJoinRoom, TypeLeaveRoom:
		var body roomBody
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		if body.Room == nil {
			return nil, fmt.Errorf("%w: %s requires room", ErrMalformed, *env.Type)
		}
		if *env.Type == TypeJoinRoom {
			return JoinRoom{Room: *body.Room}, nil
		}
		return LeaveRoom{Room: *body.Room}, nil

	case TypeChat:
		var body chatBody
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		if body.Text == nil {
			return nil, fmt.Errorf("%w: chat requires text", ErrMalformed)
		}
		return SendChat{Text: *body.Text}, nil

	case TypeSetNick:
		var body nickBody
		if err := decodeBody(raw, &body); err != nil {
			return nil, err
		}
		if body.Nick == nil {
			return nil, fmt.Errorf("%w: set-nick requires nick", ErrMalformed)
		}
		return SetNick{Nick: *body.Nick}, nil

	case TypeTyping:
		return Typing{}, nil

	case TypeLeave:
		return Leave{}, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupported, *env.Type)
	}
}

func decodeBody(raw []byte, body any) error {
	if err := json.Unmarshal(raw, body); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
