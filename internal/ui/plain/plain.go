// Package plain is the line-oriented front end: inbound events are printed to
// stdout and stdin lines are chat commands.
package plain

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"chatwire/internal/client"
	"chatwire/internal/config"
	"chatwire/internal/logging"
	"chatwire/internal/runctx"
	"chatwire/internal/runtime"
	"chatwire/internal/topics"
	"chatwire/internal/ui/command"
)

const (
	outputBufferSize = 256
	stopTimeout      = 5 * time.Second
	runErrorExitCode = 1
	startExitCode    = 2
)

type chatTarget interface {
	SendChat(room string, content string) error
	JoinRoom(room string) error
	LeaveRoom(room string) error
	SendSignal(signal topics.Signal) error
}

func Run(rootCtx context.Context, buildVersion string, opts config.Options) int {
	logger := logging.New(opts.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	defer func() {
		_ = logger.Close()
	}()
	logger.Info("starting chatwire", logging.Field("version", buildVersion), logging.Field("mode", "plain"))

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	lines := make(chan string, outputBufferSize)
	emit := func(line string) {
		runctx.SendOrDone(ctx, "plain output", logger, lines, line)
	}
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		runctx.Pump(ctx, "plain printer", logger, lines, func(line string) {
			_, _ = fmt.Fprintln(os.Stdout, line)
		})
	}()

	selected := &roomSelection{}
	exited := make(chan error, 1)
	controller := runtime.NewController(ctx)
	err := controller.Start(opts, logger, runtime.StartHooks{
		OnStatus: func(status string) { emit(formatStatus(status)) },
		OnRoomsUpdate: func(rooms []client.Room) {
			emit(FormatRooms(rooms))
		},
		OnJoinedRooms: func(rooms []string) {
			selected.sync(rooms)
			emit(formatJoined(rooms, selected.get()))
		},
		OnChatMessage:  func(msg topics.ChatMessage) { emit(formatChat(msg)) },
		OnInvitation:   func(inv topics.Invitation) { emit(FormatInvitation(inv)) },
		OnNotification: func(n topics.Notification) { emit(FormatNotification(n)) },
		OnSignal:       func(sig topics.Signal) { emit(FormatSignal(sig)) },
		OnExit:         func(err error) { exited <- err },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return startExitCode
	}

	input := make(chan string)
	go scanLines(os.Stdin, input)

	code := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-exited:
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				code = runErrorExitCode
			}
			break loop
		case line, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if handleLine(controller, selected, line, emit) {
				break loop
			}
		}
	}

	if !controller.StopAndWait(stopTimeout) {
		logger.Warn("chat client did not stop in time")
	}
	cancel()
	<-printed
	return code
}

func scanLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// handleLine runs one input line and reports whether the user asked to quit.
func handleLine(target chatTarget, selected *roomSelection, line string, emit func(string)) bool {
	cmd, err := command.Parse(line)
	if err != nil {
		emit("error: " + err.Error())
		return false
	}
	switch cmd.Kind {
	case command.Say:
		room := selected.get()
		if room == "" {
			emit("no room selected; use /join <room>")
			return false
		}
		if err := target.SendChat(room, cmd.Arg); err != nil {
			emit("send failed: " + err.Error())
		}
	case command.Join:
		if err := target.JoinRoom(cmd.Arg); err != nil {
			emit("join failed: " + err.Error())
			return false
		}
		selected.set(cmd.Arg)
	case command.Leave:
		room := cmd.Arg
		if room == "" {
			room = selected.get()
		}
		if room == "" {
			emit("no room selected")
			return false
		}
		if err := target.LeaveRoom(room); err != nil {
			emit("leave failed: " + err.Error())
		}
	case command.Select:
		selected.set(cmd.Arg)
		emit("now talking in " + cmd.Arg)
	case command.Signal:
		sig := topics.Signal{Type: cmd.Arg, To: cmd.To, RoomID: selected.get()}
		if err := target.SendSignal(sig); err != nil {
			emit("signal failed: " + err.Error())
		}
	case command.Help:
		emit(command.Usage)
	case command.Quit:
		return true
	}
	return false
}

type roomSelection struct {
	mu      sync.Mutex
	current string
}

func (s *roomSelection) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *roomSelection) set(room string) {
	s.mu.Lock()
	s.current = room
	s.mu.Unlock()
}

// sync keeps the selection inside the joined set, falling back to the first
// joined room.
func (s *roomSelection) sync(joined []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(joined, s.current) {
		return
	}
	s.current = ""
	if len(joined) > 0 {
		s.current = joined[0]
	}
}
