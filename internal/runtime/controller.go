package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatwire/internal/client"
	"chatwire/internal/config"
	"chatwire/internal/logging"
	"chatwire/internal/topics"
)

var (
	ErrAlreadyRunning = errors.New("chat client is already running")
	ErrNotRunning     = errors.New("chat client is not running")
)

// Controller runs at most one chat service at a time and forwards UI
// actions to it.
type Controller struct {
	rootCtx context.Context

	mu     sync.Mutex
	active *activeRun
	// done is closed once the most recent run has fully exited, OnExit included.
	done chan struct{}

	newService func(config.Options, *logging.Logger, StartHooks) (Service, error)
}

type activeRun struct {
	service Service
	cancel  context.CancelFunc
}

type StartHooks struct {
	OnRoomsUpdate  func([]client.Room)
	OnJoinedRooms  func([]string)
	OnStatus       func(string)
	OnChatMessage  func(topics.ChatMessage)
	OnInvitation   func(topics.Invitation)
	OnNotification func(topics.Notification)
	OnSignal       func(topics.Signal)
	OnExit         func(error)
}

func NewController(rootCtx context.Context) *Controller {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	return &Controller{rootCtx: rootCtx, newService: NewServiceWithHooks}
}

// Start builds a service from opts and runs it in the background until Stop
// or the root context ends.
func (c *Controller) Start(opts config.Options, logger *logging.Logger, hooks StartHooks) error {
	if logger == nil {
		panic("runtime.Controller.Start: logger must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return ErrAlreadyRunning
	}
	logger.Debug("runtime start requested",
		logging.Field("api_url", opts.APIURL),
		logging.Field("rooms", opts.Rooms),
	)

	service, err := c.newService(opts, logger, hooks)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(c.rootCtx)
	run := &activeRun{service: service, cancel: cancel}
	done := make(chan struct{})
	c.active = run
	c.done = done

	go func() {
		defer close(done)
		defer cancel()
		runErr := service.RunContext(ctx)
		logRunExit(logger, runErr)

		c.mu.Lock()
		if c.active == run {
			c.active = nil
		}
		c.mu.Unlock()
		if hooks.OnExit != nil {
			hooks.OnExit(runErr)
		}
	}()
	return nil
}

func logRunExit(logger *logging.Logger, err error) {
	switch {
	case err == nil:
		logger.Info("runtime service exited")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug("runtime service canceled", logging.Field("error", err))
	default:
		logger.Warn("runtime service exited with error", logging.Field("error", err))
	}
}

func (c *Controller) with(fn func(Service) error) error {
	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run == nil {
		return ErrNotRunning
	}
	return fn(run.service)
}

func (c *Controller) SendChat(room string, content string) error {
	return c.with(func(s Service) error { return s.SendChat(room, content) })
}

func (c *Controller) JoinRoom(room string) error {
	return c.with(func(s Service) error { return s.JoinRoom(room) })
}

func (c *Controller) LeaveRoom(room string) error {
	return c.with(func(s Service) error { return s.LeaveRoom(room) })
}

func (c *Controller) SendSignal(signal topics.Signal) error {
	return c.with(func(s Service) error { return s.SendSignal(signal) })
}

// JoinedRooms returns nil when nothing is running.
func (c *Controller) JoinedRooms() []string {
	var rooms []string
	_ = c.with(func(s Service) error {
		rooms = s.JoinedRooms()
		return nil
	})
	return rooms
}

func (c *Controller) Stop() {
	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run != nil {
		run.cancel()
	}
}

// Wait blocks until the latest run has exited. A non-positive timeout waits
// forever; otherwise it reports whether the run finished in time.
func (c *Controller) Wait(timeout time.Duration) bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return true
	}
	if timeout <= 0 {
		<-done
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *Controller) StopAndWait(timeout time.Duration) bool {
	c.Stop()
	return c.Wait(timeout)
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}
