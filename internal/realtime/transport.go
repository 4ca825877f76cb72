package realtime

import (
	"context"
	"time"

	"chatwire/internal/stompws"
)

type (
	Message = stompws.Message
	Handler = stompws.Handler
)

// Transport is one live broker connection owned by a Session.
type Transport interface {
	Subscribe(destination string, handler Handler) (func(), error)
	Send(destination, contentType string, body []byte) error
	// Deactivate closes the connection, waiting at most timeout for the
	// broker to acknowledge. It must be safe to call more than once.
	Deactivate(timeout time.Duration) error
	Done() <-chan struct{}
	Err() error
}

// Factory opens exactly one Transport per call and never retries.
type Factory interface {
	Open(ctx context.Context, token string) (Transport, error)
}

type FactoryFunc func(ctx context.Context, token string) (Transport, error)

func (f FactoryFunc) Open(ctx context.Context, token string) (Transport, error) {
	return f(ctx, token)
}

// StompFactory opens STOMP-over-WebSocket transports.
type StompFactory struct {
	Dialer stompws.Dialer
}

func (f StompFactory) Open(ctx context.Context, token string) (Transport, error) {
	conn, err := f.Dialer.Open(ctx, token)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
