// Package server defines the hub's internal event types and utility helpers
// that are reused across client and hub logic.
package server

import (
	"strings"
)

// inboundFrame is one raw client frame waiting for the dispatcher, or the
// client's detach request when detach is set.
type inboundFrame struct {
	client  *Client
	payload []byte
	detach  bool
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
