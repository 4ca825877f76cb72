package stompws

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrConnectionClosed = errors.New("stomp connection closed")
	ErrMissingURL       = errors.New("stomp broker URL is required")
)

// HandshakeError reports a broker that refused the connection, either at the
// HTTP upgrade (StatusCode set) or with an ERROR frame in reply to CONNECT.
type HandshakeError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
}

func (e *HandshakeError) Error() string {
	if e == nil {
		return "stomp handshake rejected"
	}
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("stomp handshake rejected: %s: %s", e.statusText(), e.Message)
	case e.StatusCode != 0:
		return "stomp handshake rejected: " + e.statusText()
	case e.Message != "":
		return "stomp handshake rejected: " + e.Message
	default:
		return "stomp handshake rejected"
	}
}

func (e *HandshakeError) statusText() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// BrokerError is an ERROR frame received after the handshake.
type BrokerError struct {
	Message string
	Body    string
}

func (e *BrokerError) Error() string {
	if e == nil || e.Message == "" {
		return "stomp broker error"
	}
	return "stomp broker error: " + e.Message
}

var authRejections = []string{"unauthorized", "access denied", "forbidden", "invalid token", "expired"}

// IsUnauthorized reports whether err is a handshake the broker refused for
// authentication reasons. Retrying with the same credential will not help.
func IsUnauthorized(err error) bool {
	var hsErr *HandshakeError
	if !errors.As(err, &hsErr) {
		return false
	}
	if hsErr.StatusCode == http.StatusUnauthorized || hsErr.StatusCode == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(hsErr.Message)
	for _, marker := range authRejections {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
