package topics

import (
	"encoding/json"
	"errors"
	"testing"

	"chatwire/internal/realtime"
)

func TestDestinations(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{got: ChatRoom("42"), want: "/user/queue/chat/42"},
		{got: ChatRoom(" 42 "), want: "/user/queue/chat/42"},
		{got: ChatSend("42"), want: "/app/chat/42"},
		{got: Invitations, want: "/user/queue/invitations/"},
		{got: Notifications, want: "/user/queue/notification/"},
		{got: Signaling, want: "/user/queue/signaling"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("destination = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestRoomFromDestination(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "/user/queue/chat/general", want: "general", wantOK: true},
		{in: "/app/chat/7", want: "7", wantOK: true},
		{in: "/user/queue/chat/", wantOK: false},
		{in: Notifications, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := RoomFromDestination(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("RoomFromDestination(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestJSONDecodesPayload(t *testing.T) {
	var got ChatMessage
	var gotErr error
	handler := JSON(func(m ChatMessage, err error) {
		got, gotErr = m, err
	})

	handler(realtime.Message{
		Destination: ChatRoom("7"),
		Body:        []byte(`{"roomId":"7","sender":"alice","content":"hi","extra":true}`),
	})

	if gotErr != nil {
		t.Fatalf("decode error = %v", gotErr)
	}
	if got.RoomID != "7" || got.Sender != "alice" || got.Content != "hi" {
		t.Fatalf("ChatMessage = %+v", got)
	}
}

func TestJSONPassesDecodeErrorsThrough(t *testing.T) {
	called := false
	var gotErr error
	handler := JSON(func(_ Notification, err error) {
		called = true
		gotErr = err
	})

	handler(realtime.Message{Destination: Notifications, Body: []byte("not json")})

	if !called {
		t.Fatal("handler was not called for malformed body")
	}
	var decodeErr *DecodeError
	if !errors.As(gotErr, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", gotErr)
	}
	if decodeErr.Destination != Notifications || string(decodeErr.Body) != "not json" {
		t.Fatalf("DecodeError = %+v", decodeErr)
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(gotErr, &syntaxErr) {
		t.Fatalf("error = %v, want wrapped *json.SyntaxError", gotErr)
	}
}

func TestSignalKeepsRawPayload(t *testing.T) {
	var got Signal
	JSON(func(s Signal, err error) {
		if err != nil {
			t.Fatalf("decode error = %v", err)
		}
		got = s
	})(realtime.Message{Body: []byte(`{"type":"offer","from":"bob","payload":{"sdp":"v=0"}}`)})

	if got.Type != "offer" || string(got.Payload) != `{"sdp":"v=0"}` {
		t.Fatalf("Signal = %+v", got)
	}
}

func TestEncode(t *testing.T) {
	body, contentType, err := Encode(ChatMessage{RoomID: "7", Content: "hi"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if contentType != JSONContentType {
		t.Fatalf("content type = %q", contentType)
	}
	if string(body) != `{"roomId":"7","content":"hi"}` {
		t.Fatalf("body = %s", body)
	}
}
