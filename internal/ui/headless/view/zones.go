package view

const (
	zoneLogsToggle = "toggle-logs"
	zoneQuit       = "quit"
	zoneChatPane   = "chat-pane"
	zoneLogPane    = "log-pane"

	zoneDialogQuitCancel = "dialog-quit-cancel"
	zoneDialogQuitAccept = "dialog-quit-accept"

	zoneRoomPrefix = "room:"
)

func zoneRoom(room string) string {
	return zoneRoomPrefix + room
}
