package app

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"chatwire/internal/logging"
	"chatwire/internal/realtime"
	"chatwire/internal/runstatus"
	"chatwire/internal/topics"
)

var errEmptyRoom = errors.New("room id is required")

type roomState struct {
	mu     sync.Mutex
	joined []string
	loaded bool
}

func (s *roomState) join(room string) bool {
	room = strings.TrimSpace(room)
	if room == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.joined, room) {
		return false
	}
	s.joined = append(s.joined, room)
	return true
}

func (s *roomState) leave(room string) bool {
	room = strings.TrimSpace(room)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.joined, room)
	if i < 0 {
		return false
	}
	s.joined = slices.Delete(s.joined, i, i+1)
	return true
}

func (s *roomState) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.joined)
}

// subscriptionSet tracks the live subscription per topic on the current
// connection.
type subscriptionSet struct {
	mu     sync.Mutex
	topics map[string]realtime.Unsubscribe
}

// ensure calls subscribe unless topic already has a live subscription.
func (s *subscriptionSet) ensure(topic string, subscribe func() realtime.Unsubscribe) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic]; ok {
		return false
	}
	s.topics[topic] = subscribe()
	return true
}

func (s *subscriptionSet) take(topic string) realtime.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsub := s.topics[topic]
	delete(s.topics, topic)
	return unsub
}

func (s *subscriptionSet) reset() {
	s.mu.Lock()
	clear(s.topics)
	s.mu.Unlock()
}

func (s *subscriptionSet) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		out = append(out, topic)
	}
	slices.Sort(out)
	return out
}

func (a *ChatApp) subscribeAll() {
	a.subscribe(topics.Invitations, topics.JSON(a.onInvitation))
	a.subscribe(topics.Notifications, topics.JSON(a.onNotification))
	a.subscribe(topics.Signaling, topics.JSON(a.onSignal))
	for _, room := range a.rooms.list() {
		a.subscribeRoom(room)
	}
}

func (a *ChatApp) subscribeRoom(room string) {
	a.subscribe(topics.ChatRoom(room), topics.JSON(func(msg topics.ChatMessage, err error) {
		if msg.RoomID == "" {
			msg.RoomID = room
		}
		a.onChatMessage(msg, err)
	}))
}

func (a *ChatApp) subscribe(topic string, handler realtime.Handler) {
	if a.session.State() != realtime.Connected {
		return
	}
	added := a.subs.ensure(topic, func() realtime.Unsubscribe {
		return a.session.Subscribe(topic, handler)
	})
	if added {
		a.logger.Debug("subscribed topic", logging.Field("topic", topic))
	}
}

// JoinRoom adds room to the joined set and subscribes to it when connected.
func (a *ChatApp) JoinRoom(room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return errEmptyRoom
	}
	if a.rooms.join(room) {
		a.logger.Info("joined room", logging.Field("room", room))
		a.notifyJoined()
	}
	a.subscribeRoom(room)
	return nil
}

func (a *ChatApp) LeaveRoom(room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return errEmptyRoom
	}
	if a.rooms.leave(room) {
		a.logger.Info("left room", logging.Field("room", room))
		a.notifyJoined()
	}
	if unsub := a.subs.take(topics.ChatRoom(room)); unsub != nil {
		unsub()
	}
	return nil
}

func (a *ChatApp) JoinedRooms() []string {
	return a.rooms.list()
}

func (a *ChatApp) SendChat(room string, content string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return errEmptyRoom
	}
	body, contentType, err := topics.Encode(topics.ChatMessage{
		RoomID:  room,
		Sender:  a.session.Identity(),
		Content: content,
	})
	if err != nil {
		return err
	}
	return a.session.Publish(topics.ChatSend(room), contentType, body)
}

func (a *ChatApp) SendSignal(signal topics.Signal) error {
	body, contentType, err := topics.Encode(signal)
	if err != nil {
		return err
	}
	return a.session.Publish(topics.SignalSend, contentType, body)
}

// ensureRooms loads the room list once per run. Without configured rooms
// every listed room is joined.
func (a *ChatApp) ensureRooms(ctx context.Context) {
	a.rooms.mu.Lock()
	loaded := a.rooms.loaded
	a.rooms.mu.Unlock()
	if loaded {
		return
	}

	rooms, err := a.client.FetchRooms(ctx, a.tokens.access())
	if err != nil {
		a.logger.Warn("failed to fetch rooms", logging.Field("error", err))
		return
	}
	a.rooms.mu.Lock()
	a.rooms.loaded = true
	joinAll := len(a.rooms.joined) == 0
	a.rooms.mu.Unlock()

	a.setRuntimeStatus(runstatus.RoomsReceived)
	a.logger.Info("rooms loaded", logging.Field("count", len(rooms)))
	if a.hooks.OnRoomsUpdate != nil {
		a.hooks.OnRoomsUpdate(slices.Clone(rooms))
	}
	if joinAll {
		for _, room := range rooms {
			a.rooms.join(room.ID)
		}
		a.notifyJoined()
	}
	a.subscribeAll()
	if a.session.State() == realtime.Connected {
		a.setRuntimeStatus(runstatus.Connected)
	}
}

func (a *ChatApp) notifyJoined() {
	if a.hooks.OnJoinedRooms != nil {
		a.hooks.OnJoinedRooms(a.rooms.list())
	}
}

func (a *ChatApp) onChatMessage(msg topics.ChatMessage, err error) {
	if err != nil {
		a.logger.Warn("malformed chat message", logging.Field("room", msg.RoomID), logging.Field("error", err))
		return
	}
	if a.hooks.OnChatMessage != nil {
		a.hooks.OnChatMessage(msg)
	}
}

func (a *ChatApp) onInvitation(inv topics.Invitation, err error) {
	if err != nil {
		a.logger.Warn("malformed invitation", logging.Field("error", err))
		return
	}
	if a.hooks.OnInvitation != nil {
		a.hooks.OnInvitation(inv)
	}
}

func (a *ChatApp) onNotification(n topics.Notification, err error) {
	if err != nil {
		a.logger.Warn("malformed notification", logging.Field("error", err))
		return
	}
	if a.hooks.OnNotification != nil {
		a.hooks.OnNotification(n)
	}
}

func (a *ChatApp) onSignal(s topics.Signal, err error) {
	if err != nil {
		a.logger.Warn("malformed signal", logging.Field("error", err))
		return
	}
	if a.hooks.OnSignal != nil {
		a.hooks.OnSignal(s)
	}
}
