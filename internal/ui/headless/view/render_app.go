package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"chatwire/internal/ui/headless/activity"
	"chatwire/internal/ui/headless/render"
	"chatwire/internal/ui/headless/theme"
)

// Runtime is the connection state the model projects into each frame.
type Runtime struct {
	BuildVersion string
	Running      bool
	Connecting   bool
	Status       string
	StatusKind   int
	Rooms        []activity.Row
}

const (
	outerPaneGap          = 2
	frameInnerInset       = 4
	dialogHorizontalInset = 8
	quitDialogWidth       = 64
	errorDialogWidth      = 78
	roomRowHeight         = 2
)

func RenderApp(state *State, rt Runtime) string {
	if state.Width == 0 {
		return "initializing..."
	}

	base := renderBase(state, rt)
	if state.ErrorModalText != "" {
		return renderModalOverlay(state, base, renderErrorDialog(state))
	}
	if state.ConfirmQuit {
		return renderModalOverlay(state, base, renderQuitConfirmDialog(state))
	}
	return base
}

func renderBase(state *State, rt Runtime) string {
	sections := []string{
		renderHeader(state, rt),
		renderPanes(state, rt),
		renderFrame(state.Input.View(), state.PageWidth()),
	}
	if state.ShowLogs {
		sections = append(sections, renderLogPanel(state))
	}
	sections = append(sections, theme.HelpStyle.Render(state.HelpView.View(state.Keys)))
	return renderFrame(strings.Join(sections, "\n"), state.ContentWidth())
}

func renderFrame(content string, width int) string {
	return render.Frame(content, width, theme.PanelStyle)
}

func renderHeader(state *State, rt Runtime) string {
	title := theme.TitleStyle.Render("chatwire (" + rt.BuildVersion + ")")
	status := RenderStatus(rt.Status, rt.StatusKind)
	if rt.Connecting {
		status = state.Spinner.View() + " " + status
	}
	logsLabel := "Logs"
	if state.ShowLogs {
		logsLabel = "Hide Logs"
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		RenderButton(zoneLogsToggle, logsLabel, false, state.HoverZone == zoneLogsToggle),
		" ",
		RenderButton(zoneQuit, "Quit", false, state.HoverZone == zoneQuit),
	)
	left := lipgloss.JoinVertical(lipgloss.Left, title, "Status: "+status)
	gap := max(state.PageWidth()-lipgloss.Width(left)-lipgloss.Width(buttons), 1)
	return lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", gap), buttons)
}

func renderPanes(state *State, rt Runtime) string {
	height := state.ChatView.Height
	rooms := render.FrameHeight(renderRoomList(state, rt, roomsPaneWidth-frameInnerInset, height), roomsPaneWidth, height+1, theme.PanelStyle)

	title := "No room"
	if state.Selected != noRoom {
		title = "#" + state.Selected
	}
	chatBody := theme.TitleStyle.Render(title) + "\n" + state.ChatView.View()
	if len(state.Transcripts[state.Selected]) == 0 {
		chatBody = theme.TitleStyle.Render(title) + "\n" + renderPlaceholder(state, rt)
	}
	chat := zone.Mark(zoneChatPane, render.FrameHeight(chatBody, state.chatPaneWidth(), height+1, theme.PanelStyle))

	return lipgloss.JoinHorizontal(lipgloss.Top, rooms, strings.Repeat(" ", outerPaneGap), chat)
}

func renderRoomList(state *State, rt Runtime, width int, height int) string {
	lines := []string{theme.TitleStyle.Render("Rooms")}
	if len(rt.Rooms) == 0 {
		lines = append(lines, theme.HelpStyle.Render("none joined"))
		return strings.Join(lines, "\n")
	}
	for _, row := range rt.Rooms {
		if len(lines)+roomRowHeight > height {
			lines = append(lines, theme.HelpStyle.Render("…"))
			break
		}
		lines = append(lines, RenderRoomRow(row, width, state.HoverZone == zoneRoom(row.Room)))
	}
	return strings.Join(lines, "\n")
}

func renderPlaceholder(state *State, rt Runtime) string {
	text := "No messages yet"
	switch {
	case !rt.Running && !rt.Connecting:
		text = "Not connected"
	case state.Selected == noRoom:
		text = "Use /join <room> to start chatting"
	}
	return lipgloss.NewStyle().
		Width(state.ChatView.Width).
		Height(state.ChatView.Height).
		AlignHorizontal(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Foreground(lipgloss.Color("245")).
		Render(text)
}

func renderLogPanel(state *State) string {
	followHint := theme.HelpStyle.Render("ctrl+f follow")
	toolbar := lipgloss.JoinHorizontal(lipgloss.Center, theme.TitleStyle.Render("Logs"), "  ", followHint)
	withBar := WithScrollBar(state.LogView.View(), state.LogView.Width, state.LogView.Height, state.LogView.ScrollPercent())
	return zone.Mark(zoneLogPane, renderFrame(toolbar+"\n"+withBar, state.PageWidth()))
}

func renderQuitConfirmDialog(state *State) string {
	buttonRow := lipgloss.JoinHorizontal(lipgloss.Top,
		RenderButton(zoneDialogQuitCancel, "Cancel", state.ConfirmQuitChoice == ConfirmQuitChoiceCancel, state.HoverZone == zoneDialogQuitCancel),
		"  ",
		RenderButton(zoneDialogQuitAccept, "Quit", state.ConfirmQuitChoice == ConfirmQuitChoiceQuit, state.HoverZone == zoneDialogQuitAccept),
	)
	dialogWidth := min(state.ContentWidth()-dialogHorizontalInset, quitDialogWidth)
	buttonLine := lipgloss.NewStyle().
		Width(max(dialogWidth-frameInnerInset, 1)).
		AlignHorizontal(lipgloss.Center).
		Render(buttonRow)

	body := strings.Join([]string{
		theme.TitleStyle.Render("Quit while connected?"),
		"This will close the chat connection.",
		buttonLine,
		theme.HelpStyle.Render("tab/arrow switch • enter confirms"),
	}, "\n")
	return renderFrame(body, dialogWidth)
}

func renderErrorDialog(state *State) string {
	body := strings.Join([]string{
		theme.ErrorStyle.Render("Error"),
		state.ErrorModalText,
		theme.HelpStyle.Render("Press Enter or Esc to close"),
	}, "\n")
	return renderFrame(body, min(state.ContentWidth()-dialogHorizontalInset, errorDialogWidth))
}

func renderModalOverlay(state *State, base string, dialog string) string {
	faded := theme.ModalBackdrop.Render(base)
	overlay := lipgloss.Place(state.Width, state.Height, lipgloss.Center, lipgloss.Center, dialog)
	return faded + "\n" + overlay
}
