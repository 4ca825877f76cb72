package logging

import (
	"log/slog"
	"sync"
	"testing"
)

func TestLoggerWithAddsBoundFields(t *testing.T) {
	logger := New(true)
	logger.SetTerminalOutputEnabled(false)

	var mu sync.Mutex
	var events []Event
	cancel := logger.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer cancel()

	child := logger.Component("session").With(Field("identity", "alice"))
	child.Info("connected", Field("topic", "/user/queue/signaling"))

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	fields := events[0].Fields
	if fields["component"] != "session" || fields["identity"] != "alice" || fields["topic"] != "/user/queue/signaling" {
		t.Fatalf("fields = %#v", fields)
	}
}

func TestLoggerDebugHiddenFromSubscribersWhenDisabled(t *testing.T) {
	logger := New(false)
	logger.SetTerminalOutputEnabled(false)

	count := 0
	cancel := logger.Subscribe(func(Event) { count++ })
	logger.Debug("hidden")
	logger.SetDebugEnabled(true)
	logger.Debug("shown")
	cancel()
	cancel()
	logger.Info("after cancel")

	if count != 1 {
		t.Fatalf("published events = %d, want 1", count)
	}
}

func TestLoggerRedactsCredentials(t *testing.T) {
	logger := New(false)
	logger.SetTerminalOutputEnabled(false)

	var got Event
	cancel := logger.Subscribe(func(ev Event) { got = ev })
	defer cancel()

	logger.Info("login",
		Field("username", "alice"),
		Field("password", "hunter2"),
		Field("header", "Bearer abc.def.ghi"),
	)

	if got.Fields["username"] != "alice" {
		t.Fatalf("username = %v, want alice", got.Fields["username"])
	}
	for _, key := range []string{"password", "header"} {
		if got.Fields[key] != redacted {
			t.Fatalf("%s = %v, want %s", key, got.Fields[key], redacted)
		}
	}
}

func TestLoggerFlattensGroups(t *testing.T) {
	logger := New(false)
	logger.SetTerminalOutputEnabled(false)

	var got Event
	cancel := logger.Subscribe(func(ev Event) { got = ev })
	defer cancel()

	logger.Info("connect",
		slog.Group("auth", slog.String("user", "alice"), slog.String("token", "abc")),
		slog.Group("", slog.String("room", "general")),
		Field("", "dropped"),
	)

	want := map[string]any{"auth.user": "alice", "auth.token": redacted, "room": "general"}
	if len(got.Fields) != len(want) {
		t.Fatalf("Fields = %v, want %v", got.Fields, want)
	}
	for key, value := range want {
		if got.Fields[key] != value {
			t.Fatalf("Fields[%q] = %v, want %v", key, got.Fields[key], value)
		}
	}
}
