package view

import (
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"chatwire/internal/ui/headless/activity"
	"chatwire/internal/ui/headless/keyboard"
	"chatwire/internal/ui/headless/render"
	"chatwire/internal/ui/headless/theme"
)

const (
	defaultInputCharLimit = 2000
	transcriptLineLimit   = 500
	logLineLimit          = 2000
	defaultViewWidth      = 80
	defaultViewHeight     = 20
	roomsPaneWidth        = 28
	minPageWidth          = 24
	minViewportDimension  = 1
	minChatHeight         = 3
	logPanelHeight        = 10
	// header + gap, input frame + gap, help line, outer frame borders
	chromeRows = 2 + 4 + 1 + 2
	// pane border + padding
	paneInset = 4
)

// noRoom keys the transcript shown before any room is joined.
const noRoom = ""

type State struct {
	Input    textinput.Model
	HelpView help.Model
	Keys     keyboard.Map
	Spinner  spinner.Model

	Identity    string
	Rooms       []string
	Selected    string
	Transcripts map[string][]string
	Stats       map[string]activity.Stats

	ChatView   viewport.Model
	FollowChat bool
	LogView    viewport.Model
	LogLines   []string
	ShowLogs   bool
	FollowLogs bool

	Width  int
	Height int

	ConfirmQuit       bool
	ConfirmQuitChoice int
	ErrorModalText    string
	HoverZone         string
}

func NewState(identity string, debug bool) State {
	input := textinput.New()
	input.CharLimit = defaultInputCharLimit
	input.Width = defaultViewWidth
	input.Prompt = "> "
	input.Placeholder = "type a message or /join <room>"
	input.Focus()

	helpView := help.New()
	helpView.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	helpView.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpView.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return State{
		Input:       input,
		HelpView:    helpView,
		Keys:        keyboard.New(),
		Spinner:     spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.FocusStyle)),
		Identity:    strings.TrimSpace(identity),
		Transcripts: map[string][]string{},
		Stats:       map[string]activity.Stats{},
		ChatView:    viewport.New(defaultViewWidth, defaultViewHeight),
		FollowChat:  true,
		LogView:     viewport.New(defaultViewWidth, logPanelHeight),
		ShowLogs:    debug,
		FollowLogs:  true,
	}
}

func (s State) WithWindowSize(width int, height int) State {
	s.Width = width
	s.Height = height
	s.Layout()
	return s
}

func (s State) ContentWidth() int {
	width := max(s.Width, 1)
	// Some Windows terminals wrap a styled line that lands on the last column.
	if runtime.GOOS == "windows" && width > 1 {
		width--
	}
	return width
}

func (s State) PageWidth() int {
	return max(s.ContentWidth()-theme.PanelStyle.GetHorizontalFrameSize(), minPageWidth)
}

func (s State) chatPaneWidth() int {
	return max(s.PageWidth()-roomsPaneWidth-outerPaneGap, minPageWidth)
}

// Layout sizes the viewports from the window size.
func (s *State) Layout() {
	chatHeight := s.Height - chromeRows - paneInset
	if s.ShowLogs {
		chatHeight -= logPanelHeight + paneInset
	}
	s.ChatView.Width = max(s.chatPaneWidth()-paneInset, minViewportDimension)
	s.ChatView.Height = max(chatHeight, minChatHeight)
	s.LogView.Width = max(s.PageWidth()-paneInset-scrollBarWidth, minViewportDimension)
	s.LogView.Height = logPanelHeight
	s.Input.Width = max(s.PageWidth()-paneInset-len(s.Input.Prompt), minViewportDimension)
	s.refreshChat()
	s.refreshLogs()
}

// SetRooms replaces the joined room list. The selection stays put when the
// selected room is still joined, otherwise it moves to the first room.
func (s *State) SetRooms(joined []string) {
	s.Rooms = slices.Clone(joined)
	if !slices.Contains(s.Rooms, s.Selected) {
		s.Selected = noRoom
		if len(s.Rooms) > 0 {
			s.Selected = s.Rooms[0]
		}
		s.FollowChat = true
	}
	s.clearUnread(s.Selected)
	s.refreshChat()
}

// SelectRoom switches the transcript to room. Unknown rooms are ignored.
func (s *State) SelectRoom(room string) bool {
	if !slices.Contains(s.Rooms, room) {
		return false
	}
	s.Selected = room
	s.FollowChat = true
	s.clearUnread(room)
	s.refreshChat()
	return true
}

func (s *State) CycleRoom(delta int) {
	if len(s.Rooms) == 0 {
		return
	}
	i := slices.Index(s.Rooms, s.Selected)
	if i < 0 {
		i = 0
	} else {
		i = (i + delta + len(s.Rooms)) % len(s.Rooms)
	}
	s.SelectRoom(s.Rooms[i])
}

// AppendChat adds a rendered line to room's transcript and updates its
// activity.
func (s *State) AppendChat(room string, line string, at time.Time) {
	s.appendTranscript(room, line)
	st := s.Stats[room]
	st.Last = at
	if room != s.Selected {
		st.Unread++
	}
	s.Stats[room] = st
	if room == s.Selected {
		s.refreshChat()
	}
}

// AppendNotice shows line in the transcript currently on screen.
func (s *State) AppendNotice(line string) {
	s.appendTranscript(s.Selected, theme.NoticeStyle.Render(line))
	s.refreshChat()
}

func (s *State) AppendLog(line string) {
	s.LogLines = appendLimited(s.LogLines, splitLines(line), logLineLimit)
	s.refreshLogs()
}

func (s *State) appendTranscript(room string, line string) {
	s.Transcripts[room] = appendLimited(s.Transcripts[room], []string{line}, transcriptLineLimit)
}

func (s *State) clearUnread(room string) {
	if st, ok := s.Stats[room]; ok {
		st.Unread = 0
		s.Stats[room] = st
	}
}

func (s *State) refreshChat() {
	wasAtBottom := s.ChatView.AtBottom()
	lines := s.Transcripts[s.Selected]
	s.ChatView.SetContent(render.Wrap(strings.Join(lines, "\n"), s.ChatView.Width))
	if s.FollowChat || wasAtBottom {
		s.ChatView.GotoBottom()
		s.FollowChat = true
	}
}

func (s *State) refreshLogs() {
	wasAtBottom := s.LogView.AtBottom()
	s.LogView.SetContent(render.Wrap(strings.Join(s.LogLines, "\n"), s.LogView.Width))
	if s.FollowLogs || wasAtBottom {
		s.LogView.GotoBottom()
		s.FollowLogs = true
	}
}

func appendLimited(lines []string, next []string, limit int) []string {
	lines = append(lines, next...)
	if len(lines) > limit {
		lines = append([]string(nil), lines[len(lines)-limit:]...)
	}
	return lines
}

func splitLines(input string) []string {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
