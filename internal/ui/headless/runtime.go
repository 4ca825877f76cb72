package headless

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatwire/internal/client"
	"chatwire/internal/runctx"
	"chatwire/internal/runstatus"
	"chatwire/internal/runtime"
	"chatwire/internal/topics"
	"chatwire/internal/ui/command"
	"chatwire/internal/ui/headless/activity"
	headlessview "chatwire/internal/ui/headless/view"
	"chatwire/internal/ui/plain"
)

func (m *headlessModel) startChatCmd() tea.Cmd {
	m.connecting = true
	m.status = "Starting"
	m.kind = headlessview.StatusConnecting
	opts := m.opts

	hooks := m.startHooks()
	return func() tea.Msg {
		err := m.runner.Start(opts, m.logger, hooks)
		return startResultMsg{err: err}
	}
}

// startHooks feeds runtime events into the model's channels. Status and joined-room
// updates keep only the latest values; chat and notices block until the UI
// reads them or the run ends.
func (m *headlessModel) startHooks() runtime.StartHooks {
	return runtime.StartHooks{
		OnStatus:      func(status string) { sendLatest(m.statusCh, status) },
		OnJoinedRooms: func(rooms []string) { sendLatest(m.joinedCh, rooms) },
		OnChatMessage: func(msg topics.ChatMessage) {
			runctx.SendOrDone(m.runCtx, "chat message", m.logger, m.chatCh, msg)
		},
		OnRoomsUpdate:  m.onRoomsUpdate,
		OnInvitation:   func(inv topics.Invitation) { m.sendNotice(plain.FormatInvitation(inv)) },
		OnNotification: func(n topics.Notification) { m.sendNotice(plain.FormatNotification(n)) },
		OnSignal:       func(sig topics.Signal) { m.sendNotice(plain.FormatSignal(sig)) },
		OnExit:         m.onRuntimeExit,
	}
}

func (m *headlessModel) sendNotice(line string) {
	runctx.SendOrDone(m.runCtx, "notice", m.logger, m.noticeCh, line)
}

func (m *headlessModel) onRoomsUpdate(rooms []client.Room) {
	m.sendNotice(plain.FormatRooms(rooms))
}

func (m *headlessModel) onRuntimeExit(runErr error) {
	if m.program == nil {
		return
	}
	m.program.Send(runDoneMsg{err: runErr})
}

func (m *headlessModel) applyRuntimeStatus(status string) {
	switch runstatus.Key(status) {
	case runstatus.KeyAuthenticated, runstatus.KeyConnecting, runstatus.KeyReconnecting:
		m.kind = headlessview.StatusConnecting
		m.connecting = true
	case runstatus.KeyRoomsReceived:
		m.kind = headlessview.StatusConnecting
	case runstatus.KeyConnected:
		m.kind = headlessview.StatusConnected
		m.running = true
		m.connecting = false
	case runstatus.KeyDisconnected:
		m.kind = headlessview.StatusIdle
		m.connecting = false
	case runstatus.KeyDisconnectedAuth:
		m.kind = headlessview.StatusError
		m.connecting = false
	}
	m.status = status
}

// submitInput runs the input line as a chat command.
func (m *headlessModel) submitInput() tea.Cmd {
	line := m.ui.Input.Value()
	m.ui.Input.Reset()
	cmd, err := command.Parse(line)
	if err != nil {
		m.ui.AppendNotice("error: " + err.Error())
		return nil
	}
	switch cmd.Kind {
	case command.Say:
		if m.ui.Selected == "" {
			m.ui.AppendNotice("no room selected; use /join <room>")
			return nil
		}
		if err := m.runner.SendChat(m.ui.Selected, cmd.Arg); err != nil {
			m.ui.AppendNotice("send failed: " + err.Error())
		}
	case command.Join:
		if err := m.runner.JoinRoom(cmd.Arg); err != nil {
			m.ui.AppendNotice("join failed: " + err.Error())
			return nil
		}
		m.ui.SetRooms(m.runner.JoinedRooms())
		m.ui.SelectRoom(cmd.Arg)
		m.refreshActivity()
	case command.Leave:
		room := cmd.Arg
		if room == "" {
			room = m.ui.Selected
		}
		if room == "" {
			m.ui.AppendNotice("no room selected")
			return nil
		}
		if err := m.runner.LeaveRoom(room); err != nil {
			m.ui.AppendNotice("leave failed: " + err.Error())
			return nil
		}
		m.ui.SetRooms(m.runner.JoinedRooms())
		m.refreshActivity()
	case command.Select:
		if !m.ui.SelectRoom(cmd.Arg) {
			m.ui.AppendNotice("not in room " + cmd.Arg + "; use /join " + cmd.Arg)
			return nil
		}
		m.refreshActivity()
	case command.Signal:
		sig := topics.Signal{Type: cmd.Arg, To: cmd.To, RoomID: m.ui.Selected}
		if err := m.runner.SendSignal(sig); err != nil {
			m.ui.AppendNotice("signal failed: " + err.Error())
		}
	case command.Help:
		m.ui.AppendNotice(command.Usage)
	case command.Quit:
		return m.requestQuitCmd()
	}
	return nil
}

func (m *headlessModel) refreshActivity() {
	m.lastActivityRefresh = time.Now()
	m.roomRows = activity.Compute(m.ui.Rooms, m.ui.Selected, m.ui.Stats, m.lastActivityRefresh)
}

func (m *headlessModel) cleanup() {
	m.cleanupOnce.Do(func() {
		m.logger.Debug("headless cleanup started")
		if m.rootCancel != nil {
			m.rootCancel()
		}
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		if !m.runner.StopAndWait(stopTimeout) {
			m.logger.Warn("chat client did not stop in time")
		}
		m.logger.Debug("headless cleanup complete")
	})
}

const stopTimeout = 5 * time.Second
