package theme

import "github.com/charmbracelet/lipgloss"

var (
	PanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	FocusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	HelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	SenderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	OwnSenderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	TimeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	NoticeStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))

	RoomStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	RoomSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("27"))
	RoomHoverStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236"))

	ModalBackdrop = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	ButtonStyle        = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	ButtonFocusedStyle = ButtonStyle.BorderForeground(lipgloss.Color("10")).Foreground(lipgloss.Color("10"))
	ButtonHoverStyle   = ButtonStyle.BorderForeground(lipgloss.Color("15")).Foreground(lipgloss.Color("15"))
)
