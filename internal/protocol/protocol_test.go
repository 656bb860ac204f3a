package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequests(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Request
	}{
		{name: "join room", raw: `{"type":"join-room","room":"Games"}`, want: JoinRoom{Room: "Games"}},
		{name: "leave room", raw: `{"type":"leave-room","room":"#games"}`, want: LeaveRoom{Room: "#games"}},
		{name: "chat", raw: `{"type":"chat","text":"hi"}`, want: SendChat{Text: "hi"}},
		{name: "chat with empty text", raw: `{"type":"chat","text":""}`, want: SendChat{Text: ""}},
		{name: "typing", raw: `{"type":"typing"}`, want: Typing{}},
		{name: "typing ignores extra fields", raw: `{"type":"typing","nick":"x"}`, want: Typing{}},
		{name: "set nick", raw: `{"type":"set-nick","nick":"alice"}`, want: SetNick{Nick: "alice"}},
		{name: "leave", raw: `{"type":"leave"}`, want: Leave{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.RequestType(), got.RequestType())
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `hello`},
		{name: "json array", raw: `[1,2]`},
		{name: "missing type", raw: `{"text":"hi"}`},
		{name: "null type", raw: `{"type":null}`},
		{name: "empty type", raw: `{"type":""}`},
		{name: "numeric type", raw: `{"type":7}`},
		{name: "join without room", raw: `{"type":"join-room"}`},
		{name: "leave-room without room", raw: `{"type":"leave-room"}`},
		{name: "chat without text", raw: `{"type":"chat"}`},
		{name: "chat with numeric text", raw: `{"type":"chat","text":12}`},
		{name: "set-nick without nick", raw: `{"type":"set-nick"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := Decode([]byte(`{"type":"kick","nick":"bob"}`))
	require.ErrorIs(t, err, ErrUnsupported)
	assert.NotErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), `"kick"`)
}

func TestEncodeChatMessage(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	payload, err := Encode(NewChatMessage("A", "hi", at))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","nick":"A","text":"hi","ts":1700000000123}`, string(payload))
}

func TestEncodeListsNeverNull(t *testing.T) {
	payload, err := Encode(NewUserList("#general", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"user-list","room":"#general","users":[]}`, string(payload))

	payload, err = Encode(NewRoomList(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"room-list","rooms":[]}`, string(payload))
}

func TestEncodeServerMessages(t *testing.T) {
	tests := []struct {
		name string
		msg  any
		want string
	}{
		{name: "system", msg: NewSystemNotice("hello"), want: `{"type":"system","text":"hello"}`},
		{name: "room current", msg: NewRoomCurrent("#games"), want: `{"type":"room-current","room":"#games"}`},
		{name: "typing", msg: NewTypingNotice("bob"), want: `{"type":"typing","nick":"bob"}`},
		{name: "room list", msg: NewRoomList([]string{"#a", "#general"}), want: `{"type":"room-list","rooms":["#a","#general"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(payload))

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(payload, &decoded))
			assert.NotEmpty(t, decoded["type"])
		})
	}
}
