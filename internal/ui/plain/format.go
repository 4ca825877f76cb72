package plain

import (
	"fmt"
	"strings"

	"chatwire/internal/client"
	"chatwire/internal/topics"
)

const timeLayout = "15:04"

func formatStatus(status string) string {
	return "* status: " + status
}

func FormatRooms(rooms []client.Room) string {
	if len(rooms) == 0 {
		return "* no rooms available"
	}
	names := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if room.Name != room.ID {
			names = append(names, fmt.Sprintf("%s (%s)", room.ID, room.Name))
			continue
		}
		names = append(names, room.ID)
	}
	return "* rooms: " + strings.Join(names, ", ")
}

func formatJoined(rooms []string, selected string) string {
	if len(rooms) == 0 {
		return "* joined: none"
	}
	line := "* joined: " + strings.Join(rooms, ", ")
	if selected != "" {
		line += " (talking in " + selected + ")"
	}
	return line
}

func formatChat(msg topics.ChatMessage) string {
	sender := msg.Sender
	if sender == "" {
		sender = "?"
	}
	line := fmt.Sprintf("[%s] %s: %s", msg.RoomID, sender, msg.Content)
	if !msg.Timestamp.IsZero() {
		line = msg.Timestamp.Local().Format(timeLayout) + " " + line
	}
	return line
}

func FormatInvitation(inv topics.Invitation) string {
	room := inv.RoomID
	if inv.RoomName != "" {
		room = inv.RoomName + " (" + inv.RoomID + ")"
	}
	return fmt.Sprintf("* %s invited you to %s; /join %s", inv.From, room, inv.RoomID)
}

func FormatNotification(n topics.Notification) string {
	if n.Type == "" {
		return "* notice: " + n.Message
	}
	return fmt.Sprintf("* %s: %s", n.Type, n.Message)
}

func FormatSignal(sig topics.Signal) string {
	from := sig.From
	if from == "" {
		from = "?"
	}
	line := fmt.Sprintf("* call %s from %s", sig.Type, from)
	if sig.RoomID != "" {
		line += " in " + sig.RoomID
	}
	return line
}
