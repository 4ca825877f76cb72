package activity

import (
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	stats := map[string]Stats{
		"general": {Unread: 2, Last: now.Add(-30 * time.Second)},
		"ops":     {Last: now.Add(-2 * time.Hour)},
	}

	rows := Compute([]string{"general", "ops", "random"}, "ops", stats, now)
	if len(rows) != 3 {
		t.Fatalf("Compute() returned %d rows, want 3", len(rows))
	}

	want := []Row{
		{Room: "general", Kind: Active, Detail: "2 new, last just now"},
		{Room: "ops", Kind: Idle, Selected: true, Detail: "last 2h ago"},
		{Room: "random", Kind: Quiet, Detail: "no messages"},
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d = %#v, want %#v", i, rows[i], want[i])
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{age: 10 * time.Second, want: "just now"},
		{age: 7 * time.Minute, want: "7m ago"},
		{age: 3 * time.Hour, want: "3h ago"},
		{age: 50 * time.Hour, want: "2d ago"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.age); got != tt.want {
			t.Fatalf("formatAge(%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}
