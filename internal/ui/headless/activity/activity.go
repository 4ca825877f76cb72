// Package activity summarises per-room chat activity for the room list.
package activity

import (
	"fmt"
	"time"
)

const RefreshRate = 30 * time.Second

const activeWindow = 5 * time.Minute

type Kind int

const (
	Quiet Kind = iota
	Active
	Idle
)

// Stats is what the UI records per room as messages arrive.
type Stats struct {
	Unread int
	Last   time.Time
}

type Row struct {
	Room     string
	Kind     Kind
	Selected bool
	Detail   string
}

// Compute returns one row per joined room, in the order given.
func Compute(rooms []string, selected string, stats map[string]Stats, now time.Time) []Row {
	rows := make([]Row, 0, len(rooms))
	for _, room := range rooms {
		st := stats[room]
		row := Row{Room: room, Kind: Quiet, Selected: room == selected, Detail: "no messages"}
		if !st.Last.IsZero() {
			age := now.Sub(st.Last)
			if age <= activeWindow {
				row.Kind = Active
			} else {
				row.Kind = Idle
			}
			row.Detail = "last " + formatAge(age)
		}
		if st.Unread > 0 {
			row.Detail = fmt.Sprintf("%d new, %s", st.Unread, row.Detail)
		}
		rows = append(rows, row)
	}
	return rows
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(age/(24*time.Hour)))
	}
}
