package headless

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatwire/internal/logging"
	"chatwire/internal/topics"
	"chatwire/internal/ui/headless/activity"
	"chatwire/internal/ui/headless/theme"
	headlessview "chatwire/internal/ui/headless/view"
)

const mouseDrainDelay = 120 * time.Millisecond

func (m *headlessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		if _, ok := msg.(quitNowMsg); ok {
			m.cleanup()
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ui = m.ui.WithWindowSize(msg.Width, msg.Height)
		return m, nil
	case logMsg:
		m.ui.AppendLog(string(msg))
		return m, waitFor(m.logCh, func(line string) tea.Msg { return logMsg(line) })
	case statusMsg:
		m.applyRuntimeStatus(string(msg))
		return m, waitFor(m.statusCh, func(status string) tea.Msg { return statusMsg(status) })
	case joinedMsg:
		m.ui.SetRooms(msg)
		m.refreshActivity()
		return m, waitFor(m.joinedCh, func(rooms []string) tea.Msg { return joinedMsg(rooms) })
	case chatMsg:
		m.appendChat(topics.ChatMessage(msg))
		return m, waitFor(m.chatCh, func(msg topics.ChatMessage) tea.Msg { return chatMsg(msg) })
	case noticeMsg:
		m.ui.AppendNotice(string(msg))
		return m, waitFor(m.noticeCh, func(line string) tea.Msg { return noticeMsg(line) })
	case startResultMsg:
		if msg.err != nil {
			m.connecting = false
			m.showRunError(msg.err)
		}
		return m, nil
	case runDoneMsg:
		m.running = false
		m.connecting = false
		if msg.err != nil {
			m.logger.Warn("chat client stopped", logging.Field("error", msg.err))
			m.showRunError(msg.err)
			return m, nil
		}
		m.status = "Idle"
		m.kind = headlessview.StatusIdle
		return m, nil
	case tickMsg:
		if time.Since(m.lastActivityRefresh) >= activity.RefreshRate {
			m.refreshActivity()
		}
		return m, tickCmd()
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	m.ui.Spinner, cmd = m.ui.Spinner.Update(msg)
	if cmd != nil {
		return m, cmd
	}
	m.ui.Input, cmd = m.ui.Input.Update(msg)
	return m, cmd
}

func (m *headlessModel) showRunError(err error) {
	m.status = "Disconnected (error)"
	m.kind = headlessview.StatusError
	m.ui.ErrorModalText = err.Error()
}

func (m *headlessModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected := m.ui.Selected
	next, cmd, effect := headlessview.ReduceKey(m.ui, msg)
	m.ui = next
	if m.ui.Selected != selected {
		m.refreshActivity()
	}
	switch effect {
	case headlessview.KeyEffectSubmit:
		return m, m.submitInput()
	case headlessview.KeyEffectRequestQuit:
		return m, m.requestQuitCmd()
	case headlessview.KeyEffectConfirmQuitAccept:
		return m, m.beginQuitCmd()
	case headlessview.KeyEffectLogsToggled:
		m.logger.Debug("log panel toggled", logging.Field("visible", m.ui.ShowLogs))
	}
	return m, cmd
}

func (m *headlessModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	selected := m.ui.Selected
	next, cmd, effect := headlessview.ReduceMouse(m.ui, msg)
	m.ui = next
	if m.ui.Selected != selected {
		m.refreshActivity()
	}
	switch effect {
	case headlessview.MouseEffectRequestQuit:
		return m, tea.Batch(cmd, m.requestQuitCmd())
	case headlessview.MouseEffectConfirmQuitAccept:
		return m, tea.Batch(cmd, m.beginQuitCmd())
	}
	return m, cmd
}

func (m *headlessModel) appendChat(msg topics.ChatMessage) {
	at := msg.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	m.ui.AppendChat(msg.RoomID, renderChatLine(msg, at, m.ui.Identity), at)
	m.refreshActivity()
}

func renderChatLine(msg topics.ChatMessage, at time.Time, identity string) string {
	sender := msg.Sender
	if sender == "" {
		sender = "?"
	}
	style := theme.SenderStyle
	if identity != "" && sender == identity {
		style = theme.OwnSenderStyle
	}
	return theme.TimeStyle.Render(at.Local().Format("15:04")) + " " + style.Render(sender) + " " + msg.Content
}

func (m *headlessModel) requestQuitCmd() tea.Cmd {
	if m.running || m.connecting {
		m.ui.ConfirmQuit = true
		m.ui.ConfirmQuitChoice = headlessview.ConfirmQuitChoiceCancel
		return nil
	}
	return m.beginQuitCmd()
}

func (m *headlessModel) beginQuitCmd() tea.Cmd {
	if m.running || m.connecting {
		m.status = "Stopping..."
		m.kind = headlessview.StatusStopping
	}
	m.quitting = true
	m.ui.ConfirmQuit = false
	return quitProgramCmd()
}

func quitProgramCmd() tea.Cmd {
	return tea.Sequence(func() tea.Msg {
		return tea.DisableMouse()
	}, waitForMouseDrainCmd(), func() tea.Msg {
		return quitNowMsg{}
	})
}

func waitForMouseDrainCmd() tea.Cmd {
	return func() tea.Msg {
		time.Sleep(mouseDrainDelay)
		return nil
	}
}
