// Package topics names the broker destinations the chat client uses and the
// payloads carried on them.
package topics

import (
	"encoding/json"
	"strings"
	"time"

	"chatwire/internal/realtime"
)

const (
	Invitations   = "/user/queue/invitations/"
	Notifications = "/user/queue/notification/"
	Signaling     = "/user/queue/signaling"
	SignalSend    = "/app/signal"

	JSONContentType = "application/json"
)

func ChatRoom(roomID string) string {
	return "/user/queue/chat/" + strings.TrimSpace(roomID)
}

func ChatSend(roomID string) string {
	return "/app/chat/" + strings.TrimSpace(roomID)
}

// RoomFromDestination extracts the room id from a chat destination.
func RoomFromDestination(destination string) (string, bool) {
	for _, prefix := range []string{"/user/queue/chat/", "/app/chat/"} {
		if room, ok := strings.CutPrefix(destination, prefix); ok && room != "" {
			return room, true
		}
	}
	return "", false
}

type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

type Invitation struct {
	ID       string `json:"id,omitempty"`
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName,omitempty"`
	From     string `json:"from"`
}

type Notification struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Signal carries call-setup data between peers. Payload is forwarded as-is.
type Signal struct {
	Type    string          `json:"type"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JSON adapts fn into a handler that decodes each message body as T. Bodies
// that fail to decode are still delivered, with the zero T and the error.
func JSON[T any](fn func(T, error)) realtime.Handler {
	return func(msg realtime.Message) {
		var v T
		if err := json.Unmarshal(msg.Body, &v); err != nil {
			fn(v, &DecodeError{Destination: msg.Destination, Body: msg.Body, Err: err})
			return
		}
		fn(v, nil)
	}
}

type DecodeError struct {
	Destination string
	Body        []byte
	Err         error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Destination + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode marshals v for Session.Publish.
func Encode(v any) ([]byte, string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return body, JSONContentType, nil
}
