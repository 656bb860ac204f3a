// Package testhelpers provides common utilities for exercising the GoChat
// Rooms server over real HTTP and WebSocket connections in tests.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestOrigin is the Origin header sent by ConnectWebSocket.
const TestOrigin = "http://localhost:8080"

// Frame is one decoded outbound protocol message.
type Frame map[string]any

// Type returns the frame's type discriminator.
func (f Frame) Type() string {
	s, _ := f["type"].(string)
	return s
}

// String returns the string field key, or "" when absent.
func (f Frame) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Users returns the users array of a user-list frame.
func (f Frame) Users() []string {
	raw, _ := f["users"].([]any)
	users := make([]string, 0, len(raw))
	for _, u := range raw {
		if s, ok := u.(string); ok {
			users = append(users, s)
		}
	}
	return users
}

// Rooms returns the rooms array of a room-list frame.
func (f Frame) Rooms() []string {
	raw, _ := f["rooms"].([]any)
	rooms := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			rooms = append(rooms, s)
		}
	}
	return rooms
}

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// WebSocketURL converts an httptest server URL into a ws:// URL for path.
func WebSocketURL(serverURL, path string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + path
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It fails the test if the request cannot be created or executed.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err, "create request")

	resp, err := client.Do(req)
	require.NoError(t, err, "make request")

	return resp
}

// ConnectWebSocket dials url with the test Origin and any extra headers. The
// HTTP response is returned so callers can inspect failed handshakes.
func ConnectWebSocket(url string, header http.Header) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	for k, v := range header {
		headers[k] = v
	}
	if headers.Get("Origin") == "" {
		headers.Set("Origin", TestOrigin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials url and fails the test on error. The connection is
// closed when the test ends.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := ConnectWebSocket(url, nil)
	require.NoError(t, err, "dial %s", url)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Send writes msg as one JSON text frame.
func Send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()

	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

// ReadFrame reads and decodes the next frame, waiting at most timeout.
func ReadFrame(conn *websocket.Conn, timeout time.Duration) (Frame, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// ReadUntil reads frames until match returns true and returns that frame.
// Frames that do not match are discarded.
func ReadUntil(t *testing.T, conn *websocket.Conn, match func(Frame) bool) Frame {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		frame, err := ReadFrame(conn, time.Until(deadline))
		require.NoError(t, err, "waiting for frame")
		if match(frame) {
			return frame
		}
	}
	require.FailNow(t, "timed out waiting for frame")
	return nil
}

// OfType matches frames with the given type.
func OfType(msgType string) func(Frame) bool {
	return func(f Frame) bool { return f.Type() == msgType }
}

// SystemText matches system notices with exactly text.
func SystemText(text string) func(Frame) bool {
	return func(f Frame) bool { return f.Type() == "system" && f.String("text") == text }
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
