package view

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

type MouseEffect int

const (
	MouseEffectNone MouseEffect = iota
	MouseEffectRequestQuit
	MouseEffectConfirmQuitAccept
	MouseEffectLogsToggled
)

// ReduceMouse handles clicks on marked zones and wheel scrolling over the
// chat and log panes.
func ReduceMouse(state State, msg tea.MouseMsg) (State, tea.Cmd, MouseEffect) {
	state.HoverZone = hoveredZone(state, msg)

	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		return reduceWheel(state, msg)
	}
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return state, nil, MouseEffectNone
	}

	if state.ErrorModalText != "" {
		return state, nil, MouseEffectNone
	}
	if state.ConfirmQuit {
		switch state.HoverZone {
		case zoneDialogQuitCancel:
			state.ConfirmQuit = false
		case zoneDialogQuitAccept:
			return state, nil, MouseEffectConfirmQuitAccept
		}
		return state, nil, MouseEffectNone
	}

	switch {
	case state.HoverZone == zoneQuit:
		return state, nil, MouseEffectRequestQuit
	case state.HoverZone == zoneLogsToggle:
		state.ShowLogs = !state.ShowLogs
		state.Layout()
		return state, nil, MouseEffectLogsToggled
	case strings.HasPrefix(state.HoverZone, zoneRoomPrefix):
		state.SelectRoom(strings.TrimPrefix(state.HoverZone, zoneRoomPrefix))
	}
	return state, nil, MouseEffectNone
}

func reduceWheel(state State, msg tea.MouseMsg) (State, tea.Cmd, MouseEffect) {
	var cmd tea.Cmd
	switch {
	case state.ShowLogs && zone.Get(zoneLogPane).InBounds(msg):
		state.LogView, cmd = state.LogView.Update(msg)
		state.FollowLogs = state.LogView.AtBottom()
	default:
		state.ChatView, cmd = state.ChatView.Update(msg)
		state.FollowChat = state.ChatView.AtBottom()
	}
	return state, cmd, MouseEffectNone
}

func hoveredZone(state State, msg tea.MouseMsg) string {
	var candidates []string
	switch {
	case state.ErrorModalText != "":
		return ""
	case state.ConfirmQuit:
		candidates = []string{zoneDialogQuitCancel, zoneDialogQuitAccept}
	default:
		candidates = []string{zoneLogsToggle, zoneQuit}
		for _, room := range state.Rooms {
			candidates = append(candidates, zoneRoom(room))
		}
	}
	for _, id := range candidates {
		if zone.Get(id).InBounds(msg) {
			return id
		}
	}
	return ""
}
