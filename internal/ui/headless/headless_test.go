package headless

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"chatwire/internal/config"
	"chatwire/internal/logging"
	"chatwire/internal/runstatus"
	"chatwire/internal/topics"
	headlessview "chatwire/internal/ui/headless/view"
)

func newTestModel(t *testing.T) *headlessModel {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := newHeadlessModel(ctx, "test", config.Options{Username: "alice"}, logging.New(false))
	t.Cleanup(m.unsubscribe)
	m.ui = m.ui.WithWindowSize(100, 30)
	return m
}

func lastNotice(m *headlessModel) string {
	lines := m.ui.Transcripts[m.ui.Selected]
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func TestSubmitInputWithoutRoom(t *testing.T) {
	m := newTestModel(t)
	m.ui.Input.SetValue("hello")
	if cmd := m.submitInput(); cmd != nil {
		t.Fatalf("submitInput() returned a command")
	}
	if got := lastNotice(m); !strings.Contains(got, "no room selected") {
		t.Fatalf("notice = %q, want no room selected", got)
	}
	if m.ui.Input.Value() != "" {
		t.Fatalf("input not reset")
	}
}

func TestSubmitJoinWhenNotRunning(t *testing.T) {
	m := newTestModel(t)
	m.ui.Input.SetValue("/join general")
	m.submitInput()
	if got := lastNotice(m); !strings.Contains(got, "join failed") {
		t.Fatalf("notice = %q, want join failed", got)
	}
}

func TestSubmitSelectUnknownRoom(t *testing.T) {
	m := newTestModel(t)
	m.ui.SetRooms([]string{"general"})
	m.ui.Input.SetValue("/room ops")
	m.submitInput()
	if m.ui.Selected != "general" {
		t.Fatalf("Selected = %q, want general", m.ui.Selected)
	}
	if got := lastNotice(m); !strings.Contains(got, "not in room ops") {
		t.Fatalf("notice = %q, want not in room ops", got)
	}
}

func TestApplyRuntimeStatus(t *testing.T) {
	m := newTestModel(t)
	m.applyRuntimeStatus(runstatus.Connected)
	if !m.running || m.connecting || m.kind != headlessview.StatusConnected {
		t.Fatalf("after Connected: running=%v connecting=%v kind=%d", m.running, m.connecting, m.kind)
	}
	m.applyRuntimeStatus(runstatus.DisconnectedAuth)
	if m.kind != headlessview.StatusError || m.status != runstatus.DisconnectedAuth {
		t.Fatalf("after DisconnectedAuth: kind=%d status=%q", m.kind, m.status)
	}
}

func TestRequestQuitConfirmsWhileConnected(t *testing.T) {
	m := newTestModel(t)
	m.running = true
	if cmd := m.requestQuitCmd(); cmd != nil {
		t.Fatalf("requestQuitCmd() quit without confirmation")
	}
	if !m.ui.ConfirmQuit {
		t.Fatalf("ConfirmQuit = false, want true")
	}

	m.running = false
	m.ui.ConfirmQuit = false
	if cmd := m.requestQuitCmd(); cmd == nil || !m.quitting {
		t.Fatalf("requestQuitCmd() while idle did not begin quitting")
	}
}

func TestAppendChatMarksUnread(t *testing.T) {
	m := newTestModel(t)
	m.ui.SetRooms([]string{"general", "random"})
	m.appendChat(topics.ChatMessage{RoomID: "random", Sender: "bob", Content: "hi", Timestamp: time.Now()})
	if len(m.roomRows) != 2 {
		t.Fatalf("roomRows = %d, want 2", len(m.roomRows))
	}
	if got := m.roomRows[1].Detail; !strings.HasPrefix(got, "1 new") {
		t.Fatalf("random detail = %q, want 1 new prefix", got)
	}
}

func TestRenderChatLine(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 0, 0, time.Local)
	got := renderChatLine(topics.ChatMessage{Sender: "bob", Content: "hey"}, at, "alice")
	if !strings.Contains(got, "15:04") || !strings.Contains(got, "bob") || !strings.HasSuffix(got, "hey") {
		t.Fatalf("renderChatLine() = %q", got)
	}
}

func TestChatHookKeepsBurstsInOrder(t *testing.T) {
	m := newTestModel(t)
	hooks := m.startHooks()
	total := chatChannelBufferSize + 50

	go func() {
		for i := range total {
			hooks.OnChatMessage(topics.ChatMessage{RoomID: "general", Content: strconv.Itoa(i)})
		}
	}()
	for i := range total {
		select {
		case msg := <-m.chatCh:
			if msg.Content != strconv.Itoa(i) {
				t.Fatalf("message %d content = %q, want %d", i, msg.Content, i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d never arrived", i)
		}
	}
}

func TestChatHookGivesUpAfterCleanup(t *testing.T) {
	m := newTestModel(t)
	hooks := m.startHooks()
	for range chatChannelBufferSize {
		hooks.OnChatMessage(topics.ChatMessage{RoomID: "general"})
	}
	m.rootCancel()

	done := make(chan struct{})
	go func() {
		hooks.OnChatMessage(topics.ChatMessage{RoomID: "general"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnChatMessage() blocked after the run context ended")
	}
}

func TestSignalHookPostsNotice(t *testing.T) {
	m := newTestModel(t)
	m.startHooks().OnSignal(topics.Signal{Type: "offer", From: "bob", RoomID: "general"})
	select {
	case line := <-m.noticeCh:
		if line != "* call offer from bob in general" {
			t.Fatalf("notice = %q", line)
		}
	default:
		t.Fatal("no notice queued for signal")
	}
}

func TestSubmitSignalWhenNotRunning(t *testing.T) {
	m := newTestModel(t)
	m.ui.Input.SetValue("/signal bob offer")
	m.submitInput()
	if got := lastNotice(m); !strings.Contains(got, "signal failed") {
		t.Fatalf("notice = %q, want signal failed", got)
	}
}
