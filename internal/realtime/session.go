// Package realtime keeps at most one broker connection per logged-in
// identity and multiplexes topic subscriptions over it.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chatwire/internal/credential"
	"chatwire/internal/logging"
	"chatwire/internal/stompws"
)

const defaultTeardownTimeout = 2 * time.Second

type State int

const (
	Idle State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "idle"
	}
}

// Change is delivered to watchers on every state transition. Err is set when
// the transition was caused by a failed handshake or a dropped transport.
//
// Watchers may observe changes out of order when a transport drop races a
// new connection. Epoch never decreases across transitions, so a change with
// a lower Epoch than one already seen is stale.
type Change struct {
	State    State
	Identity string
	Err      error
	Epoch    uint64
}

// Unsubscribe detaches a handler. It is idempotent and never fails.
type Unsubscribe func()

type Options struct {
	Factory         Factory
	Gate            credential.Gate
	TeardownTimeout time.Duration
	Logger          *logging.Logger
}

type Session struct {
	factory         Factory
	gate            credential.Gate
	teardownTimeout time.Duration
	logger          *logging.Logger

	// connectSlot serializes connection attempts.
	connectSlot chan struct{}

	mu        sync.Mutex
	closed    bool
	state     State
	identity  string
	transport Transport
	epoch     uint64

	desired    credential.Credential
	desiredSeq uint64

	pendingIdentity string
	pendingCancel   context.CancelCauseFunc

	subs      map[uint64]*subscription
	nextSubID uint64

	watchers    map[int]func(Change)
	nextWatcher int
}

type subscription struct {
	topic  string
	cancel func()
}

func New(opts Options) *Session {
	if opts.Factory == nil {
		panic("realtime.New: factory must not be nil")
	}
	timeout := opts.TeardownTimeout
	if timeout <= 0 {
		timeout = defaultTeardownTimeout
	}
	return &Session{
		factory:         opts.Factory,
		gate:            opts.Gate,
		teardownTimeout: timeout,
		logger:          opts.Logger.Component("realtime"),
		connectSlot:     make(chan struct{}, 1),
		subs:            map[uint64]*subscription{},
		watchers:        map[int]func(Change){},
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the identity bound to the current connection, or "" when
// not connected.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SetCredential records raw as the session's credential and brings the
// connection in line with it. A refreshed token for the connected identity is
// a no-op; a new identity replaces the connection; an empty or invalid token
// tears it down. ctx bounds waiting for an earlier attempt and the handshake.
func (s *Session) SetCredential(ctx context.Context, raw string) error {
	cred := s.gate.Inspect(raw)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.desired = cred
	s.desiredSeq++
	if s.pendingCancel != nil && (!cred.Valid() || cred.Identity != s.pendingIdentity) {
		s.pendingCancel(ErrSuperseded)
	}
	s.mu.Unlock()

	return s.reconcile(ctx)
}

// Close logs out and makes every later SetCredential fail with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.desired = credential.Credential{}
	s.desiredSeq++
	if s.pendingCancel != nil {
		s.pendingCancel(ErrClosed)
	}
	s.mu.Unlock()

	if err := s.reconcile(context.Background()); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

func (s *Session) reconcile(ctx context.Context) error {
	select {
	case s.connectSlot <- struct{}{}:
	case <-ctx.Done():
		return context.Cause(ctx)
	}
	defer func() { <-s.connectSlot }()

	s.mu.Lock()
	cred := s.desired
	if !cred.Valid() {
		wasIdle := s.state == Idle
		old := s.detachLocked()
		s.state = Idle
		epoch := s.epoch
		s.mu.Unlock()

		s.deactivate(old)
		if !wasIdle {
			s.logger.Info("realtime session idle")
			s.notify(Change{State: Idle, Epoch: epoch})
		}
		return nil
	}
	if s.transport != nil && s.identity == cred.Identity {
		s.mu.Unlock()
		return nil
	}
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	old := s.detachLocked()
	s.state = Connecting
	epoch := s.epoch
	seq := s.desiredSeq
	openCtx, cancel := context.WithCancelCause(ctx)
	s.pendingCancel = cancel
	s.pendingIdentity = cred.Identity
	s.mu.Unlock()

	// The previous connection must be gone before another socket is opened.
	s.deactivate(old)
	s.notify(Change{State: Connecting, Identity: cred.Identity, Epoch: epoch})
	s.logger.Debug("opening realtime connection", logging.Field("identity", cred.Identity))

	transport, err := s.factory.Open(openCtx, cred.Raw)
	cause := context.Cause(openCtx)
	cancel(nil)

	s.mu.Lock()
	s.pendingCancel = nil
	s.pendingIdentity = ""
	if err != nil {
		s.state = Idle
		s.mu.Unlock()
		if errors.Is(cause, ErrSuperseded) || errors.Is(cause, ErrClosed) {
			s.notify(Change{State: Idle, Epoch: epoch})
			return fmt.Errorf("%w: %w", ErrSuperseded, err)
		}
		s.logger.Warn("realtime handshake failed", logging.Field("identity", cred.Identity), logging.Field("error", err))
		s.notify(Change{State: Idle, Err: err, Epoch: epoch})
		return err
	}

	superseded := s.closed || (s.desiredSeq != seq && (!s.desired.Valid() || s.desired.Identity != cred.Identity))
	if superseded {
		s.state = Idle
		s.mu.Unlock()
		s.logger.Debug("discarding superseded realtime connection", logging.Field("identity", cred.Identity))
		s.deactivate(transport)
		s.notify(Change{State: Idle, Epoch: epoch})
		return ErrSuperseded
	}

	s.transport = transport
	s.identity = cred.Identity
	s.state = Connected
	s.epoch++
	epoch = s.epoch
	s.mu.Unlock()

	go s.watchTransport(transport, epoch)
	s.logger.Info("realtime session connected", logging.Field("identity", cred.Identity))
	s.notify(Change{State: Connected, Identity: cred.Identity, Epoch: epoch})
	return nil
}

// detachLocked forgets the current transport and invalidates its
// subscriptions. The caller deactivates the returned transport.
func (s *Session) detachLocked() Transport {
	old := s.transport
	s.transport = nil
	s.identity = ""
	if old != nil {
		s.epoch++
	}
	clear(s.subs)
	return old
}

func (s *Session) deactivate(t Transport) {
	if t == nil {
		return
	}
	if err := t.Deactivate(s.teardownTimeout); err != nil {
		s.logger.Debug("realtime teardown incomplete", logging.Field("error", err))
	}
}

func (s *Session) watchTransport(t Transport, epoch uint64) {
	<-t.Done()

	s.mu.Lock()
	if s.epoch != epoch || s.transport != t {
		s.mu.Unlock()
		return
	}
	identity := s.identity
	s.detachLocked()
	s.state = Idle
	epoch = s.epoch
	s.mu.Unlock()

	err := t.Err()
	if err == nil {
		err = stompws.ErrConnectionClosed
	}
	s.logger.Warn("realtime connection lost", logging.Field("identity", identity), logging.Field("error", err))
	s.notify(Change{State: Idle, Err: err, Epoch: epoch})
}

// Subscribe attaches handler to topic on the current connection. Outside the
// Connected state the request is dropped and the returned Unsubscribe does
// nothing; callers re-subscribe when Watch reports Connected.
func (s *Session) Subscribe(topic string, handler Handler) Unsubscribe {
	noop := func() {}
	if handler == nil {
		return noop
	}

	s.mu.Lock()
	if s.state != Connected || s.transport == nil {
		s.mu.Unlock()
		s.logger.Debug("subscription dropped while not connected", logging.Field("topic", topic))
		return noop
	}
	t := s.transport
	s.nextSubID++
	id := s.nextSubID
	sub := &subscription{topic: topic}
	s.subs[id] = sub
	s.mu.Unlock()

	cancel, err := t.Subscribe(topic, handler)
	if err != nil {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		s.logger.Debug("subscription failed", logging.Field("topic", topic), logging.Field("error", err))
		return noop
	}

	s.mu.Lock()
	if _, live := s.subs[id]; !live {
		// Torn down while subscribing.
		s.mu.Unlock()
		cancel()
		return noop
	}
	sub.cancel = cancel
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			live, ok := s.subs[id]
			delete(s.subs, id)
			s.mu.Unlock()
			if ok && live.cancel != nil {
				live.cancel()
			}
		})
	}
}

// Publish sends body to destination over the current connection.
func (s *Session) Publish(destination, contentType string, body []byte) error {
	s.mu.Lock()
	closed := s.closed
	t := s.transport
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if t == nil {
		return ErrNotConnected
	}
	return t.Send(destination, contentType, body)
}

// Watch registers fn for state changes and returns its cancel func. fn runs
// on the goroutine that caused the change and must not block.
func (s *Session) Watch(fn func(Change)) func() {
	if fn == nil {
		panic("realtime.Session.Watch: callback must not be nil")
	}
	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) notify(change Change) {
	s.mu.Lock()
	callbacks := make([]func(Change), 0, len(s.watchers))
	for _, fn := range s.watchers {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(change)
	}
}
