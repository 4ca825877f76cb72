package realtime

import "errors"

var (
	ErrClosed       = errors.New("realtime session closed")
	ErrSuperseded   = errors.New("credential superseded before connection completed")
	ErrNotConnected = errors.New("realtime session not connected")
)
