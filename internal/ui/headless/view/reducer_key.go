package view

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyEffect int

const (
	KeyEffectNone KeyEffect = iota
	KeyEffectSubmit
	KeyEffectRequestQuit
	KeyEffectConfirmQuitAccept
	KeyEffectLogsToggled
)

const (
	ConfirmQuitChoiceCancel = 0
	ConfirmQuitChoiceQuit   = 1
	confirmChoiceCount      = 2
)

// ReduceKey applies msg to state. Keys that are not bindings go to the input
// line; the returned command belongs to the input.
func ReduceKey(state State, msg tea.KeyMsg) (State, tea.Cmd, KeyEffect) {
	if state.ErrorModalText != "" {
		if msg.String() == "esc" || key.Matches(msg, state.Keys.Activate) {
			state.ErrorModalText = ""
		}
		return state, nil, KeyEffectNone
	}

	if state.ConfirmQuit {
		switch {
		case msg.String() == "esc":
			state.ConfirmQuit = false
		case key.Matches(msg, state.Keys.ModalToggle):
			state.ConfirmQuitChoice = (state.ConfirmQuitChoice + 1) % confirmChoiceCount
		case key.Matches(msg, state.Keys.Activate):
			if state.ConfirmQuitChoice == ConfirmQuitChoiceQuit {
				return state, nil, KeyEffectConfirmQuitAccept
			}
			state.ConfirmQuit = false
		}
		return state, nil, KeyEffectNone
	}

	switch {
	case key.Matches(msg, state.Keys.Quit):
		return state, nil, KeyEffectRequestQuit
	case key.Matches(msg, state.Keys.Send):
		return state, nil, KeyEffectSubmit
	case key.Matches(msg, state.Keys.NextRoom):
		state.CycleRoom(1)
		return state, nil, KeyEffectNone
	case key.Matches(msg, state.Keys.PrevRoom):
		state.CycleRoom(-1)
		return state, nil, KeyEffectNone
	case key.Matches(msg, state.Keys.ScrollUp):
		state.ChatView.HalfPageUp()
		state.FollowChat = false
		return state, nil, KeyEffectNone
	case key.Matches(msg, state.Keys.ScrollDown):
		state.ChatView.HalfPageDown()
		state.FollowChat = state.ChatView.AtBottom()
		return state, nil, KeyEffectNone
	case key.Matches(msg, state.Keys.ToggleLogs):
		state.ShowLogs = !state.ShowLogs
		state.Layout()
		return state, nil, KeyEffectLogsToggled
	case key.Matches(msg, state.Keys.FollowLogs) && state.ShowLogs:
		state.FollowLogs = true
		state.LogView.GotoBottom()
		return state, nil, KeyEffectNone
	}

	var cmd tea.Cmd
	state.Input, cmd = state.Input.Update(msg)
	return state, cmd, KeyEffectNone
}
