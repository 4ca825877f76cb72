package keyboard

import "github.com/charmbracelet/bubbles/key"

type Map struct {
	Send        key.Binding
	NextRoom    key.Binding
	PrevRoom    key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	ToggleLogs  key.Binding
	FollowLogs  key.Binding
	Quit        key.Binding
	Activate    key.Binding
	ModalToggle key.Binding
}

func New() Map {
	return Map{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NextRoom: key.NewBinding(
			key.WithKeys("ctrl+n", "ctrl+down"),
			key.WithHelp("ctrl+n", "next room"),
		),
		PrevRoom: key.NewBinding(
			key.WithKeys("ctrl+p", "ctrl+up"),
			key.WithHelp("ctrl+p", "prev room"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "logs"),
		),
		FollowLogs: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "follow logs"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "confirm"),
		),
		ModalToggle: key.NewBinding(
			key.WithKeys("tab", "up", "down", "left", "right"),
			key.WithHelp("tab/arrows", "toggle"),
		),
	}
}

func (m Map) ShortHelp() []key.Binding {
	return []key.Binding{m.Send, m.NextRoom, m.PrevRoom, m.ToggleLogs, m.Quit}
}

func (m Map) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.Send, m.NextRoom, m.PrevRoom},
		{m.ScrollUp, m.ScrollDown},
		{m.ToggleLogs, m.FollowLogs, m.Quit},
	}
}
