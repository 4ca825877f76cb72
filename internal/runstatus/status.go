package runstatus

import "strings"

const (
	Authenticated    = "Authenticated"
	RoomsReceived    = "Rooms received"
	Connecting       = "Connecting"
	Connected        = "Connected"
	Reconnecting     = "Reconnecting"
	Disconnected     = "Disconnected"
	DisconnectedAuth = "Disconnected (auth)"
)

const (
	KeyAuthenticated    = "authenticated"
	KeyRoomsReceived    = "rooms received"
	KeyConnecting       = "connecting"
	KeyConnected        = "connected"
	KeyReconnecting     = "reconnecting"
	KeyDisconnected     = "disconnected"
	KeyDisconnectedAuth = "disconnected (auth)"
)

func Key(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
