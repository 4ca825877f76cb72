package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"chatwire/internal/client"
	"chatwire/internal/config"
	"chatwire/internal/credential"
	"chatwire/internal/credsource"
	"chatwire/internal/logging"
	"chatwire/internal/realtime"
	"chatwire/internal/runstatus"
	"chatwire/internal/topics"
)

const (
	reconnectDelay    = 2 * time.Second
	reconnectMaxDelay = 30 * time.Second
)

type ChatApp struct {
	opts    config.Options
	client  *client.ChatClient
	session *realtime.Session
	gate    credential.Gate
	logger  *logging.Logger
	hooks   Callbacks
	status  runtimeStatusState

	tokens tokenState
	rooms  roomState
	subs   subscriptionSet

	// kick wakes the connect loop; a pending kick is never duplicated.
	kick chan struct{}

	// changeMu serializes session changes; lastEpoch drops stale ones.
	changeMu  sync.Mutex
	lastEpoch uint64

	reconnectDelay    time.Duration
	reconnectMaxDelay time.Duration
	refreshRetryDelay time.Duration
	now               func() time.Time
}

type Callbacks struct {
	OnStatusChange func(string)
	OnRoomsUpdate  func([]client.Room)
	OnJoinedRooms  func([]string)
	OnChatMessage  func(topics.ChatMessage)
	OnInvitation   func(topics.Invitation)
	OnNotification func(topics.Notification)
	OnSignal       func(topics.Signal)
}

type Deps struct {
	Client  *client.ChatClient
	Session *realtime.Session
	Gate    credential.Gate
}

func New(opts config.Options, deps Deps, logger *logging.Logger, hooks Callbacks) *ChatApp {
	if deps.Client == nil {
		panic("app.New: client must not be nil")
	}
	if deps.Session == nil {
		panic("app.New: session must not be nil")
	}
	if logger == nil {
		panic("app.New: logger must not be nil")
	}
	a := &ChatApp{
		opts:              opts,
		client:            deps.Client,
		session:           deps.Session,
		gate:              deps.Gate,
		logger:            logger.Component("app"),
		hooks:             hooks,
		kick:              make(chan struct{}, 1),
		reconnectDelay:    reconnectDelay,
		reconnectMaxDelay: reconnectMaxDelay,
		refreshRetryDelay: refreshRetryDelay,
		now:               time.Now,
	}
	a.subs.topics = map[string]realtime.Unsubscribe{}
	for _, room := range opts.Rooms {
		a.rooms.join(room)
	}
	return a
}

func (a *ChatApp) Run() error {
	return a.RunContext(context.Background())
}

// RunContext keeps the realtime session in line with the current credential
// until ctx ends. The session is closed on return.
func (a *ChatApp) RunContext(ctx context.Context) error {
	a.logger.Info("chat app starting",
		logging.Field("token_file", a.opts.TokenFile),
		logging.Field("username", a.opts.Username),
		logging.Field("rooms", a.rooms.list()),
	)
	stopWatch := a.session.Watch(func(change realtime.Change) { a.handleSessionChange(ctx, change) })
	defer func() {
		stopWatch()
		_ = a.session.Close()
		a.subs.reset()
		a.setRuntimeStatus(runstatus.Disconnected)
		a.logger.Info("chat app stopped")
	}()

	switch {
	case strings.TrimSpace(a.opts.TokenFile) != "":
		watcher := credsource.New(credsource.Options{Path: a.opts.TokenFile}, a.logger)
		watchErr := make(chan error, 1)
		go func() {
			watchErr <- watcher.Run(ctx, func(token string) { a.onTokenFileChange(ctx, token) })
		}()
		return a.connectLoop(ctx, watchErr)
	case strings.TrimSpace(a.opts.Username) != "":
		tokens, err := a.login(ctx)
		if err != nil {
			return err
		}
		a.tokens.set(tokens)
		a.setRuntimeStatus(runstatus.Authenticated)
		go a.runRefreshLoop(ctx)
		a.wake()
		return a.connectLoop(ctx, nil)
	default:
		return ErrNoCredentialSource
	}
}

func (a *ChatApp) connectLoop(ctx context.Context, watchErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("stopping connect loop: context canceled", logging.Field("error", ctx.Err()))
			return nil
		case err := <-watchErr:
			if err != nil {
				return fmt.Errorf("token file watcher stopped: %w", err)
			}
			return nil
		case <-a.kick:
		}

		err := a.connectWithRetry(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if client.IsUnauthorized(err) {
				a.setRuntimeStatus(runstatus.DisconnectedAuth)
				if a.opts.TokenFile == "" {
					return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
				}
				a.logger.Warn("broker rejected token; waiting for a new one", logging.Field("error", err))
				continue
			}
			a.logger.Warn("realtime connect failed", logging.Field("error", err))
			continue
		}
		if a.session.State() == realtime.Connected {
			a.ensureRooms(ctx)
		}
	}
}

// connectWithRetry hands the current token to the session and retries
// handshake failures with exponential backoff. Auth rejections stop the retry.
func (a *ChatApp) connectWithRetry(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = a.reconnectDelay
	retry.MaxInterval = a.reconnectMaxDelay

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := a.session.SetCredential(ctx, a.tokens.access())
		switch {
		case err == nil, errors.Is(err, realtime.ErrSuperseded):
			return struct{}{}, nil
		case errors.Is(err, realtime.ErrClosed), client.IsUnauthorized(err):
			return struct{}{}, backoff.Permanent(err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(err)
			}
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(retry),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.setRuntimeStatus(runstatus.Reconnecting)
			a.logger.Debug("retrying realtime connect",
				logging.Field("error", err),
				logging.Field("next_retry", next.String()))
		}),
	)
	return err
}

func (a *ChatApp) wake() {
	select {
	case a.kick <- struct{}{}:
	default:
	}
}

func (a *ChatApp) handleSessionChange(ctx context.Context, change realtime.Change) {
	a.changeMu.Lock()
	defer a.changeMu.Unlock()
	if change.Epoch < a.lastEpoch {
		a.logger.Debug("ignoring stale session change",
			logging.Field("state", change.State.String()),
			logging.Field("epoch", change.Epoch),
			logging.Field("current_epoch", a.lastEpoch))
		return
	}
	a.lastEpoch = change.Epoch

	switch change.State {
	case realtime.Connecting:
		// Subscriptions never carry over to the next connection.
		a.subs.reset()
		a.setRuntimeStatus(runstatus.Connecting)
	case realtime.Connected:
		a.logger.Debug("session connected; subscribing topics", logging.Field("identity", change.Identity))
		a.setRuntimeStatus(runstatus.Connected)
		a.subscribeAll()
	case realtime.Idle:
		a.subs.reset()
		if ctx.Err() != nil {
			return
		}
		switch {
		case change.Err == nil:
			a.setRuntimeStatus(runstatus.Disconnected)
		case client.IsUnauthorized(change.Err):
			a.setRuntimeStatus(runstatus.DisconnectedAuth)
		default:
			a.setRuntimeStatus(runstatus.Reconnecting)
			a.wake()
		}
	}
}

func (a *ChatApp) notifyStatus(status string) {
	if a.hooks.OnStatusChange == nil {
		return
	}
	a.hooks.OnStatusChange(status)
}

func (a *ChatApp) setRuntimeStatus(status string) {
	previous, next, changed := a.status.update(status)
	if !changed {
		return
	}
	a.logger.Debug("runtime status transition",
		logging.Field("from", previous),
		logging.Field("to", next),
	)
	a.notifyStatus(status)
}

type runtimeStatusState struct {
	mu      sync.Mutex
	current string
}

func (s *runtimeStatusState) update(status string) (string, string, bool) {
	trimmed := strings.TrimSpace(status)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == trimmed {
		return s.current, trimmed, false
	}
	previous := s.current
	s.current = trimmed
	return previous, trimmed, true
}
