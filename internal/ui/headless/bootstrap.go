package headless

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"chatwire/internal/config"
	"chatwire/internal/logging"
	"chatwire/internal/runtime"
	"chatwire/internal/topics"
	headlessview "chatwire/internal/ui/headless/view"
)

const (
	logChannelBufferSize    = 512
	statusChannelBufferSize = 16
	joinedChannelBufferSize = 8
	chatChannelBufferSize   = 256
	noticeChannelBufferSize = 64
	tickInterval            = time.Second
	runErrorExitCode        = 1
)

// Run drives the terminal UI until the user quits or rootCtx ends.
func Run(rootCtx context.Context, buildVersion string, opts config.Options) int {
	defer forceDisableMouseTracking()

	logger := logging.New(false)
	logger.SetDebugEnabled(opts.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	logger.SetTerminalOutputEnabled(false)
	defer func() {
		_ = logger.Close()
	}()
	logger.Info("starting chatwire TUI", logging.Field("version", buildVersion))

	m := newHeadlessModel(rootCtx, buildVersion, opts, logger)
	zone.NewGlobal()
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(rootCtx))
	m.program = program
	result, runErr := program.Run()
	if model, _ := result.(*headlessModel); model != nil {
		model.cleanup()
	} else {
		m.cleanup()
	}
	if runErr != nil && rootCtx.Err() == nil {
		fmt.Fprintln(os.Stderr, runErr)
		return runErrorExitCode
	}
	return 0
}

func forceDisableMouseTracking() {
	_, _ = os.Stdout.WriteString("\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l\x1b[?1015l")
}

func newHeadlessModel(rootCtx context.Context, buildVersion string, opts config.Options, logger *logging.Logger) *headlessModel {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	runCtx, runCancel := context.WithCancel(rootCtx)

	m := &headlessModel{
		buildVersion: buildVersion,
		modelDeps: modelDeps{
			runner:     runtime.NewController(runCtx),
			logger:     logger,
			opts:       opts,
			runCtx:     runCtx,
			rootCancel: runCancel,
		},
		modelChannels: modelChannels{
			logCh:    make(chan string, logChannelBufferSize),
			statusCh: make(chan string, statusChannelBufferSize),
			joinedCh: make(chan []string, joinedChannelBufferSize),
			chatCh:   make(chan topics.ChatMessage, chatChannelBufferSize),
			noticeCh: make(chan string, noticeChannelBufferSize),
		},
		modelRuntime: modelRuntime{
			status: "Idle",
			kind:   headlessview.StatusIdle,
		},
		ui: headlessview.NewState(opts.Username, opts.Debug),
	}

	m.unsubscribe = logger.Subscribe(func(event logging.Event) {
		sendLatest(m.logCh, logging.FormatEventANSI(event))
	})
	return m
}

func (m *headlessModel) Init() tea.Cmd {
	return tea.Batch(
		waitFor(m.logCh, func(line string) tea.Msg { return logMsg(line) }),
		waitFor(m.statusCh, func(status string) tea.Msg { return statusMsg(status) }),
		waitFor(m.joinedCh, func(rooms []string) tea.Msg { return joinedMsg(rooms) }),
		waitFor(m.chatCh, func(msg topics.ChatMessage) tea.Msg { return chatMsg(msg) }),
		waitFor(m.noticeCh, func(line string) tea.Msg { return noticeMsg(line) }),
		m.ui.Spinner.Tick,
		tickCmd(),
		m.startChatCmd(),
	)
}

// waitFor reads one value from ch and wraps it as a message. A closed channel
// yields nil so the read is not rescheduled.
func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

// sendLatest queues v, dropping the oldest entry when ch is full.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
