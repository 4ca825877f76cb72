package headless

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatwire/internal/config"
	"chatwire/internal/logging"
	"chatwire/internal/runtime"
	"chatwire/internal/topics"
	"chatwire/internal/ui/headless/activity"
	headlessview "chatwire/internal/ui/headless/view"
)

type logMsg string
type statusMsg string
type joinedMsg []string
type chatMsg topics.ChatMessage
type noticeMsg string
type tickMsg struct{}

type runDoneMsg struct {
	err error
}

type startResultMsg struct {
	err error
}

type quitNowMsg struct{}

type modelDeps struct {
	runner      *runtime.Controller
	logger      *logging.Logger
	opts        config.Options
	runCtx      context.Context
	unsubscribe func()
	rootCancel  context.CancelFunc
	program     *tea.Program
}

type modelChannels struct {
	logCh    chan string
	statusCh chan string
	joinedCh chan []string
	chatCh   chan topics.ChatMessage
	noticeCh chan string
}

type modelRuntime struct {
	running    bool
	connecting bool
	quitting   bool
	status     string
	kind       int

	roomRows            []activity.Row
	lastActivityRefresh time.Time
}

type headlessModel struct {
	buildVersion string
	modelDeps
	modelChannels
	modelRuntime
	cleanupOnce sync.Once
	ui          headlessview.State
}
