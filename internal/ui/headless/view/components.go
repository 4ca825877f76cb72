package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"chatwire/internal/ui/headless/activity"
	"chatwire/internal/ui/headless/render"
	"chatwire/internal/ui/headless/theme"
)

const (
	StatusIdle = iota
	StatusConnecting
	StatusConnected
	StatusStopping
	StatusError
)

const (
	minComponentWidth = 1
	scrollbarMinThumb = 0
	scrollBarWidth    = 2
)

func RenderStatus(status string, kind int) string {
	switch kind {
	case StatusConnected:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status)
	case StatusConnecting:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render(status)
	case StatusStopping:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(status)
	case StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(status)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(status)
	}
}

func RoomDotStyle(kind activity.Kind) (string, lipgloss.Style) {
	dot := "●"
	switch kind {
	case activity.Active:
		return dot, lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case activity.Idle:
		return dot, lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	default:
		return "○", lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	}
}

// RenderRoomRow draws one room entry as a name line and a detail line,
// clipped to width and marked as a clickable zone.
func RenderRoomRow(row activity.Row, width int, hovered bool) string {
	dot, dotStyle := RoomDotStyle(row.Kind)
	prefix := dotStyle.Render(dot) + " "
	available := max(width-ansi.StringWidth(prefix), minComponentWidth)
	name := render.TruncateDisplayWidth(row.Room, available)
	if pad := available - ansi.StringWidth(name); pad > 0 {
		name += strings.Repeat(" ", pad)
	}

	style := theme.RoomStyle
	switch {
	case row.Selected:
		style = theme.RoomSelectedStyle
	case hovered:
		style = theme.RoomHoverStyle
	}
	detail := "  " + theme.HelpStyle.Render(render.TruncateDisplayWidth(row.Detail, available))
	return zone.Mark(zoneRoom(row.Room), prefix+style.Render(name)+"\n"+detail)
}

func RenderButton(id string, label string, focused bool, hovered bool) string {
	style := theme.ButtonStyle
	switch {
	case focused:
		style = theme.ButtonFocusedStyle
	case hovered:
		style = theme.ButtonHoverStyle
	}
	return zone.Mark(id, style.Render(label))
}

func WithScrollBar(content string, width int, height int, percent float64) string {
	if height <= 0 {
		return content
	}
	width = max(width, minComponentWidth)
	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	thumb := int(percent * float64(height-1))
	thumb = max(thumb, scrollbarMinThumb)
	if thumb >= height {
		thumb = height - 1
	}
	barInactive := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("┊")
	barActive := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render("▯")

	out := make([]string, 0, height)
	for i := range height {
		bar := barInactive
		if i == thumb {
			bar = barActive
		}
		text := ansi.Cut(lines[i], 0, width)
		if pad := width - ansi.StringWidth(text); pad > 0 {
			text += strings.Repeat(" ", pad)
		}
		out = append(out, text+" "+bar)
	}
	return strings.Join(out, "\n")
}
