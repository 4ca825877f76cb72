package client

import (
	"errors"
	"net/http"

	"chatwire/internal/stompws"
)

type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "http request failed"
	}
	if e.Status != "" {
		return e.Status
	}
	return "http request failed"
}

// IsUnauthorized reports whether err means the credential was rejected,
// either by the REST API or by the broker handshake.
func IsUnauthorized(err error) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
	}
	return stompws.IsUnauthorized(err)
}
