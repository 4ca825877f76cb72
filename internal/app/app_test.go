package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chatwire/internal/client"
	"chatwire/internal/config"
	"chatwire/internal/credential"
	"chatwire/internal/credential/credentialtest"
	"chatwire/internal/logging"
	"chatwire/internal/realtime"
	"chatwire/internal/runstatus"
	"chatwire/internal/stompws"
	"chatwire/internal/topics"
)

type fakeBroker struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  error
}

func (b *fakeBroker) Open(_ context.Context, token string) (realtime.Transport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return nil, b.fail
	}
	conn := &fakeConn{token: token, subs: map[string]realtime.Handler{}, done: make(chan struct{})}
	b.conns = append(b.conns, conn)
	return conn, nil
}

func (b *fakeBroker) opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

func (b *fakeBroker) conn(i int) *fakeConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= len(b.conns) {
		return nil
	}
	return b.conns[i]
}

type fakeConn struct {
	token string

	mu          sync.Mutex
	subs        map[string]realtime.Handler
	sent        []string
	deactivated bool
	err         error
	done        chan struct{}
	closeOnce   sync.Once
}

func (c *fakeConn) Subscribe(destination string, handler realtime.Handler) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[destination] = handler
	return func() {
		c.mu.Lock()
		delete(c.subs, destination)
		c.mu.Unlock()
	}, nil
}

func (c *fakeConn) Send(destination, _ string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, destination+" "+string(body))
	return nil
}

func (c *fakeConn) Deactivate(time.Duration) error {
	c.mu.Lock()
	c.deactivated = true
	clear(c.subs)
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func (c *fakeConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeConn) drop(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *fakeConn) hasTopics(want ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range want {
		if _, ok := c.subs[topic]; !ok {
			return false
		}
	}
	return true
}

func (c *fakeConn) hasTopic(topic string) bool {
	return c.hasTopics(topic)
}

func (c *fakeConn) isDeactivated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deactivated
}

func (c *fakeConn) deliver(topic, body string) {
	c.mu.Lock()
	handler := c.subs[topic]
	c.mu.Unlock()
	if handler != nil {
		handler(realtime.Message{Destination: topic, Body: []byte(body)})
	}
}

func (c *fakeConn) sentMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sent)
}

type recorder struct {
	mu       sync.Mutex
	statuses []string
	messages []topics.ChatMessage
	rooms    []client.Room
	signals  []topics.Signal
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStatusChange: func(status string) {
			r.mu.Lock()
			r.statuses = append(r.statuses, status)
			r.mu.Unlock()
		},
		OnRoomsUpdate: func(rooms []client.Room) {
			r.mu.Lock()
			r.rooms = rooms
			r.mu.Unlock()
		},
		OnChatMessage: func(msg topics.ChatMessage) {
			r.mu.Lock()
			r.messages = append(r.messages, msg)
			r.mu.Unlock()
		},
		OnSignal: func(s topics.Signal) {
			r.mu.Lock()
			r.signals = append(r.signals, s)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) signalEvents() []topics.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.signals)
}

func (r *recorder) sawStatus(status string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.statuses, status)
}

func (r *recorder) lastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *recorder) chatMessages() []topics.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type apiServer struct {
	*httptest.Server
	loginStatus  int
	accessToken  string
	logins       atomic.Int32
	refreshes    atomic.Int32
	refreshCode  int
	roomsPayload string
}

func newAPIServer(t *testing.T, accessToken string, configure ...func(*apiServer)) *apiServer {
	t.Helper()
	api := &apiServer{
		loginStatus:  http.StatusOK,
		accessToken:  accessToken,
		refreshCode:  http.StatusOK,
		roomsPayload: `[{"id":"general","name":"General"}]`,
	}
	for _, fn := range configure {
		fn(api)
	}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			api.logins.Add(1)
			if api.loginStatus != http.StatusOK {
				http.Error(w, "bad credentials", api.loginStatus)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(client.Tokens{AccessToken: api.accessToken, RefreshToken: "refresh-1"})
		case "/api/auth/refresh":
			api.refreshes.Add(1)
			if api.refreshCode != http.StatusOK {
				http.Error(w, "refresh rejected", api.refreshCode)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(client.Tokens{AccessToken: api.accessToken})
		case "/api/chat/rooms":
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(api.roomsPayload))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(api.Close)
	return api
}

func newTestApp(t *testing.T, api *apiServer, broker *fakeBroker, opts config.Options, hooks Callbacks) *ChatApp {
	t.Helper()
	endpoints, err := config.BuildEndpoints(api.URL, "")
	if err != nil {
		t.Fatalf("BuildEndpoints() error = %v", err)
	}
	logger := logging.New(false)
	session := realtime.New(realtime.Options{
		Factory:         broker,
		TeardownTimeout: 50 * time.Millisecond,
		Logger:          logger,
	})
	if opts.RefreshLead == 0 {
		opts.RefreshLead = time.Minute
	}
	a := New(opts, Deps{
		Client:  client.New(api.Client(), endpoints, logger),
		Session: session,
		Gate:    credential.Gate{},
	}, logger, hooks)
	a.reconnectDelay = 10 * time.Millisecond
	a.reconnectMaxDelay = 50 * time.Millisecond
	a.refreshRetryDelay = 10 * time.Millisecond
	return a
}

func startApp(t *testing.T, a *ChatApp) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		done <- a.RunContext(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-stopped:
		case <-time.After(3 * time.Second):
		}
	})
	return cancel, done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("RunContext() did not return")
		return nil
	}
}

var baseTopics = []string{topics.Invitations, topics.Notifications, topics.Signaling}

func TestRunContext_LoginConnectsSubscribesAndDelivers(t *testing.T) {
	api := newAPIServer(t, credentialtest.For(t, "alice", time.Hour))
	broker := &fakeBroker{}
	rec := &recorder{}
	a := newTestApp(t, api, broker, config.Options{Username: "alice", Password: "pw"}, rec.callbacks())

	cancel, done := startApp(t, a)

	waitFor(t, "room subscription", func() bool {
		conn := broker.conn(0)
		return conn != nil && conn.hasTopics(append(baseTopics, topics.ChatRoom("general"))...)
	})
	conn := broker.conn(0)
	if conn.token != api.accessToken {
		t.Fatalf("broker token = %q, want login access token", conn.token)
	}
	if got := a.JoinedRooms(); !slices.Equal(got, []string{"general"}) {
		t.Fatalf("JoinedRooms() = %v, want [general]", got)
	}
	waitFor(t, "connected status", func() bool { return rec.lastStatus() == runstatus.Connected })
	for _, status := range []string{runstatus.Authenticated, runstatus.Connecting, runstatus.RoomsReceived} {
		if !rec.sawStatus(status) {
			t.Fatalf("status %q was never reported", status)
		}
	}

	conn.deliver(topics.ChatRoom("general"), `{"content":"hi","sender":"bob"}`)
	conn.deliver(topics.ChatRoom("general"), `not json`)
	msgs := rec.chatMessages()
	if len(msgs) != 1 || msgs[0].RoomID != "general" || msgs[0].Content != "hi" || msgs[0].Sender != "bob" {
		t.Fatalf("chat messages = %#v", msgs)
	}

	if err := a.SendChat("general", "hello"); err != nil {
		t.Fatalf("SendChat() error = %v", err)
	}
	sent := conn.sentMessages()
	if len(sent) != 1 || !strings.HasPrefix(sent[0], topics.ChatSend("general")+" ") || !strings.Contains(sent[0], `"sender":"alice"`) {
		t.Fatalf("sent = %v", sent)
	}

	cancel()
	if err := waitRun(t, done); err != nil {
		t.Fatalf("RunContext() error = %v", err)
	}
	if !conn.isDeactivated() {
		t.Fatal("connection was not deactivated on shutdown")
	}
	if got := rec.lastStatus(); got != runstatus.Disconnected {
		t.Fatalf("final status = %q, want %q", got, runstatus.Disconnected)
	}
	if err := a.SendChat("general", "late"); !errors.Is(err, realtime.ErrClosed) {
		t.Fatalf("SendChat() after stop error = %v, want ErrClosed", err)
	}
}

func TestRunContext_RejectedLoginStops(t *testing.T) {
	api := newAPIServer(t, "", func(api *apiServer) { api.loginStatus = http.StatusUnauthorized })
	broker := &fakeBroker{}
	rec := &recorder{}
	a := newTestApp(t, api, broker, config.Options{Username: "alice", Password: "wrong"}, rec.callbacks())

	_, done := startApp(t, a)

	err := waitRun(t, done)
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("RunContext() error = %v, want ErrAuthenticationFailed", err)
	}
	if got := api.logins.Load(); got != 1 {
		t.Fatalf("login attempts = %d, want 1", got)
	}
	if broker.opens() != 0 {
		t.Fatalf("broker opens = %d, want 0", broker.opens())
	}
	if !rec.sawStatus(runstatus.DisconnectedAuth) {
		t.Fatal("DisconnectedAuth was never reported")
	}
}

func TestRunContext_BrokerRejectsTokenStops(t *testing.T) {
	api := newAPIServer(t, credentialtest.For(t, "alice", time.Hour))
	broker := &fakeBroker{fail: &stompws.HandshakeError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}}
	rec := &recorder{}
	a := newTestApp(t, api, broker, config.Options{Username: "alice", Password: "pw"}, rec.callbacks())

	_, done := startApp(t, a)

	err := waitRun(t, done)
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("RunContext() error = %v, want ErrAuthenticationFailed", err)
	}
	if !rec.sawStatus(runstatus.DisconnectedAuth) {
		t.Fatal("DisconnectedAuth was never reported")
	}
}

func TestRunContext_ReconnectsAfterDropAndResubscribes(t *testing.T) {
	api := newAPIServer(t, credentialtest.For(t, "alice", time.Hour))
	broker := &fakeBroker{}
	rec := &recorder{}
	a := newTestApp(t, api, broker, config.Options{Username: "alice", Password: "pw", Rooms: []string{"ops"}}, rec.callbacks())

	startApp(t, a)

	want := append(slices.Clone(baseTopics), topics.ChatRoom("ops"))
	waitFor(t, "first connection", func() bool {
		conn := broker.conn(0)
		return conn != nil && conn.hasTopics(want...)
	})
	if broker.conn(0).hasTopic(topics.ChatRoom("general")) {
		t.Fatal("configured rooms must not be widened to every listed room")
	}

	broker.conn(0).drop(errors.New("read: connection reset by peer"))

	waitFor(t, "second connection", func() bool {
		conn := broker.conn(1)
		return conn != nil && conn.hasTopics(want...)
	})
	if !rec.sawStatus(runstatus.Reconnecting) {
		t.Fatal("Reconnecting was never reported")
	}
	waitFor(t, "connected status", func() bool { return rec.lastStatus() == runstatus.Connected })
}

func TestRunContext_RetriesFailedHandshake(t *testing.T) {
	api := newAPIServer(t, credentialtest.For(t, "alice", time.Hour))
	broker := &fakeBroker{fail: errors.New("dial tcp: connection refused")}
	rec := &recorder{}
	a := newTestApp(t, api, broker, config.Options{Username: "alice", Password: "pw"}, rec.callbacks())

	startApp(t, a)

	waitFor(t, "reconnecting status", func() bool { return rec.sawStatus(runstatus.Reconnecting) })
	broker.mu.Lock()
	broker.fail = nil
	broker.mu.Unlock()

	waitFor(t, "connection after retry", func() bool {
		conn := broker.conn(0)
		return conn != nil && conn.hasTopics(baseTopics...)
	})
}

func TestRunContext_TokenFileFollowsIdentity(t *testing.T) {
	api := newAPIServer(t, "", func(api *apiServer) { api.roomsPayload = `[]` })
	broker := &fakeBroker{}
	rec := &recorder{}
	path := filepath.Join(t.TempDir(), "token")
	writeTokenFile(t, path, credentialtest.For(t, "alice", time.Hour))

	a := newTestApp(t, api, broker, config.Options{TokenFile: path, Rooms: []string{"general"}}, rec.callbacks())
	startApp(t, a)

	want := append(slices.Clone(baseTopics), topics.ChatRoom("general"))
	waitFor(t, "alice connection", func() bool {
		conn := broker.conn(0)
		return conn != nil && conn.hasTopics(want...)
	})

	// Same identity: the connection stays.
	writeTokenFile(t, path, credentialtest.For(t, "alice", 2*time.Hour))
	time.Sleep(100 * time.Millisecond)
	if broker.opens() != 1 {
		t.Fatalf("broker opens after refresh = %d, want 1", broker.opens())
	}

	writeTokenFile(t, path, credentialtest.For(t, "bob", time.Hour))
	waitFor(t, "bob connection", func() bool {
		conn := broker.conn(1)
		return conn != nil && conn.hasTopics(want...)
	})
	if !broker.conn(0).isDeactivated() {
		t.Fatal("alice connection was not deactivated")
	}
	if got := a.session.Identity(); got != "bob" {
		t.Fatalf("Identity() = %q, want bob", got)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	waitFor(t, "logout", func() bool { return broker.conn(1).isDeactivated() })
	waitFor(t, "disconnected status", func() bool { return rec.lastStatus() == runstatus.Disconnected })
	if broker.opens() != 2 {
		t.Fatalf("broker opens = %d, want 2", broker.opens())
	}
}

func writeTokenFile(t *testing.T, path string, token string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename token: %v", err)
	}
}

func TestSignalsReachHookAndPublish(t *testing.T) {
	api := newAPIServer(t, credentialtest.For(t, "alice", time.Hour))
	broker := &fakeBroker{}
	rec := &recorder{}
	a := newTestApp(t, api, broker, config.Options{Username: "alice", Password: "pw", Rooms: []string{"general"}}, rec.callbacks())

	startApp(t, a)
	waitFor(t, "signaling subscription", func() bool {
		conn := broker.conn(0)
		return conn != nil && conn.hasTopic(topics.Signaling)
	})
	conn := broker.conn(0)

	conn.deliver(topics.Signaling, `{"type":"offer","from":"bob","roomId":"general","payload":{"sdp":"v=0"}}`)
	conn.deliver(topics.Signaling, `{"type":`)
	got := rec.signalEvents()
	if len(got) != 1 || got[0].Type != "offer" || got[0].From != "bob" || string(got[0].Payload) != `{"sdp":"v=0"}` {
		t.Fatalf("signals = %+v", got)
	}

	if err := a.SendSignal(topics.Signal{Type: "answer", To: "bob", RoomID: "general"}); err != nil {
		t.Fatalf("SendSignal() error = %v", err)
	}
	sent := conn.sentMessages()
	if len(sent) != 1 || !strings.HasPrefix(sent[0], topics.SignalSend+" ") || !strings.Contains(sent[0], `"type":"answer"`) {
		t.Fatalf("sent = %v", sent)
	}
}

func TestHandleSessionChangeIgnoresStaleEpoch(t *testing.T) {
	api := newAPIServer(t, credentialtest.For(t, "alice", time.Hour))
	rec := &recorder{}
	a := newTestApp(t, api, &fakeBroker{}, config.Options{Username: "alice", Password: "pw"}, rec.callbacks())
	ctx := context.Background()

	a.handleSessionChange(ctx, realtime.Change{State: realtime.Connected, Identity: "alice", Epoch: 3})
	a.subs.ensure(topics.Invitations, func() realtime.Unsubscribe { return func() {} })

	a.handleSessionChange(ctx, realtime.Change{State: realtime.Idle, Err: errors.New("socket reset"), Epoch: 2})
	if got := rec.lastStatus(); got != runstatus.Connected {
		t.Fatalf("status after stale drop = %q, want %q", got, runstatus.Connected)
	}
	if got := a.subs.list(); !slices.Equal(got, []string{topics.Invitations}) {
		t.Fatalf("subscriptions after stale drop = %v, want [%s]", got, topics.Invitations)
	}
	if len(a.kick) != 0 {
		t.Fatal("stale drop woke the connect loop")
	}

	a.handleSessionChange(ctx, realtime.Change{State: realtime.Idle, Err: errors.New("socket reset"), Epoch: 4})
	if got := rec.lastStatus(); got != runstatus.Reconnecting {
		t.Fatalf("status after drop = %q, want %q", got, runstatus.Reconnecting)
	}
	if got := a.subs.list(); len(got) != 0 {
		t.Fatalf("subscriptions after drop = %v, want none", got)
	}
	if len(a.kick) != 1 {
		t.Fatal("drop did not wake the connect loop")
	}
}

func TestJoinAndLeaveRoomFollowSubscriptions(t *testing.T) {
	api := newAPIServer(t, credentialtest.For(t, "alice", time.Hour))
	broker := &fakeBroker{}
	rec := &recorder{}
	a := newTestApp(t, api, broker, config.Options{Username: "alice", Password: "pw", Rooms: []string{"general"}}, rec.callbacks())

	startApp(t, a)
	waitFor(t, "connection", func() bool {
		conn := broker.conn(0)
		return conn != nil && conn.hasTopic(topics.ChatRoom("general"))
	})
	waitFor(t, "rooms loaded", func() bool {
		return rec.sawStatus(runstatus.RoomsReceived) && rec.lastStatus() == runstatus.Connected
	})
	conn := broker.conn(0)

	if err := a.JoinRoom(" random "); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}
	if !conn.hasTopic(topics.ChatRoom("random")) {
		t.Fatal("joined room was not subscribed")
	}
	if err := a.LeaveRoom("general"); err != nil {
		t.Fatalf("LeaveRoom() error = %v", err)
	}
	if conn.hasTopic(topics.ChatRoom("general")) {
		t.Fatal("left room is still subscribed")
	}
	if got := a.JoinedRooms(); !slices.Equal(got, []string{"random"}) {
		t.Fatalf("JoinedRooms() = %v, want [random]", got)
	}
	if err := a.JoinRoom("  "); !errors.Is(err, errEmptyRoom) {
		t.Fatalf("JoinRoom(blank) error = %v, want errEmptyRoom", err)
	}
}

func TestRunContext_WithoutCredentialSource(t *testing.T) {
	api := newAPIServer(t, "")
	a := newTestApp(t, api, &fakeBroker{}, config.Options{}, Callbacks{})
	if err := a.RunContext(context.Background()); !errors.Is(err, ErrNoCredentialSource) {
		t.Fatalf("RunContext() error = %v, want ErrNoCredentialSource", err)
	}
}

func TestRenewTokens_FallsBackToLogin(t *testing.T) {
	api := newAPIServer(t, "access-2", func(api *apiServer) { api.refreshCode = http.StatusUnauthorized })
	a := newTestApp(t, api, &fakeBroker{}, config.Options{Username: "alice", Password: "pw"}, Callbacks{})
	a.tokens.set(client.Tokens{AccessToken: "access-1", RefreshToken: "refresh-old"})

	tokens, err := a.renewTokens(context.Background())
	if err != nil {
		t.Fatalf("renewTokens() error = %v", err)
	}
	if tokens.AccessToken != "access-2" {
		t.Fatalf("AccessToken = %q, want access-2", tokens.AccessToken)
	}
	if api.refreshes.Load() != 1 || api.logins.Load() != 1 {
		t.Fatalf("refreshes = %d logins = %d, want 1 and 1", api.refreshes.Load(), api.logins.Load())
	}

	a.opts.Username = ""
	if _, err := a.renewTokens(context.Background()); !client.IsUnauthorized(err) {
		t.Fatalf("renewTokens() without login error = %v, want unauthorized", err)
	}
}

func TestRefreshDelay(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		cred credential.Credential
		want time.Duration
	}{
		{name: "invalid", cred: credential.Credential{}, want: 0},
		{
			name: "ahead of lead",
			cred: credential.Credential{Kind: credential.Valid, ExpiresAt: now.Add(10 * time.Minute)},
			want: 9 * time.Minute,
		},
		{
			name: "inside lead",
			cred: credential.Credential{Kind: credential.Valid, ExpiresAt: now.Add(30 * time.Second)},
			want: minRefreshWait,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refreshDelay(tt.cred, time.Minute, now); got != tt.want {
				t.Fatalf("refreshDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuntimeStatusStateDedupes(t *testing.T) {
	var s runtimeStatusState
	if _, _, changed := s.update(runstatus.Connecting); !changed {
		t.Fatal("first update should change")
	}
	if _, _, changed := s.update(" " + runstatus.Connecting + " "); changed {
		t.Fatal("repeated status should not change")
	}
	previous, next, changed := s.update(runstatus.Connected)
	if !changed || previous != runstatus.Connecting || next != runstatus.Connected {
		t.Fatalf("update() = %q, %q, %v", previous, next, changed)
	}
}
