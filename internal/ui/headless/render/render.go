package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Frame renders content inside panelStyle so the whole box is width columns.
func Frame(content string, width int, panelStyle lipgloss.Style) string {
	innerWidth := max(width-panelStyle.GetHorizontalFrameSize(), 1)
	return panelStyle.Width(innerWidth).Render(content)
}

// FrameHeight is Frame with a fixed number of content rows.
func FrameHeight(content string, width int, height int, panelStyle lipgloss.Style) string {
	innerWidth := max(width-panelStyle.GetHorizontalFrameSize(), 1)
	return panelStyle.Width(innerWidth).Height(max(height, 1)).Render(content)
}

func TruncateDisplayWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(value) <= width {
		return value
	}
	if width == 1 {
		return "…"
	}
	limit := max(width-ansi.StringWidth("…"), 0)
	var b strings.Builder
	current := 0
	for _, r := range value {
		w := ansi.StringWidth(string(r))
		if current+w > limit {
			break
		}
		b.WriteRune(r)
		current += w
	}
	return b.String() + "…"
}

// Wrap soft-wraps text to width, keeping ANSI styling intact.
func Wrap(text string, width int) string {
	if width <= 0 || text == "" {
		return text
	}
	return ansi.Wrap(text, width, "")
}
