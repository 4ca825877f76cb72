package logging

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var forceLipglossColorOnce sync.Once

func ensureLipglossColorOutput() {
	forceLipglossColorOnce.Do(func() {
		lipgloss.SetColorProfile(termenv.TrueColor)
	})
}

// FormatEventANSI renders one event for the TUI log pane. The component field
// becomes a tag in front of the message; room and identity values are
// highlighted.
func FormatEventANSI(event Event) string {
	ensureLipglossColorOutput()
	ts := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(event.Time.Format("15:04:05.000"))
	levelLabel, levelStyle := levelBadge(event.Level)
	msg := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render(event.Message)

	head := []string{ts, " ", levelStyle.Render(levelLabel), " "}
	if component, ok := event.Fields["component"].(string); ok && component != "" {
		head = append(head, lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Render("["+component+"]"), " ")
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, append(head, msg)...)

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	valStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	markStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	var parts, blocks []string
	for _, key := range orderedFieldKeys(event.Level, event.Fields) {
		if key == "component" {
			continue
		}
		value := event.Fields[key]
		if pretty, ok := prettyJSONString(value); ok {
			blocks = append(blocks, renderJSONFieldBlock(key, pretty))
			continue
		}
		style := valStyle
		if key == "room" || key == "identity" {
			style = markStyle
		}
		parts = append(parts, keyStyle.Render(key)+sepStyle.Render("=")+style.Render(formatFieldValue(value)))
	}
	if len(parts) > 0 {
		line += "  " + strings.Join(parts, " ")
	}
	for _, block := range blocks {
		line += "\n  " + block
	}
	return line + "\n"
}

func renderJSONFieldBlock(key string, pretty string) string {
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	header := keyStyle.Render(key) + sepStyle.Render("=")
	body := colorizePrettyJSON(pretty)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("245")).
		Padding(0, 1).
		Render(body)
	return header + "\n" + box
}

func colorizePrettyJSON(pretty string) string {
	punct := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	field := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	lines := strings.Split(pretty, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, colorizeJSONLine(line, punct, field))
	}
	return strings.Join(out, "\n")
}

func colorizeJSONLine(line string, punct lipgloss.Style, field lipgloss.Style) string {
	var b strings.Builder
	inString := false
	escaped := false
	for _, r := range line {
		switch {
		case r == '"':
			b.WriteString(punct.Render(string(r)))
			if !escaped {
				inString = !inString
			}
			escaped = false
		case inString && r == '\\':
			b.WriteString(field.Render(string(r)))
			escaped = !escaped
		case !inString && (r == '{' || r == '}' || r == '[' || r == ']' || r == ':' || r == ','):
			b.WriteString(punct.Render(string(r)))
			escaped = false
		default:
			if r == ' ' || r == '\t' {
				b.WriteRune(r)
			} else {
				b.WriteString(field.Render(string(r)))
			}
			escaped = false
		}
	}
	return b.String()
}
