// Package command parses the chat input line shared by the terminal front
// ends.
package command

import (
	"fmt"
	"strings"
)

type Kind int

const (
	None Kind = iota
	Say
	Join
	Leave
	Select
	Quit
	Help
	Signal
)

type Command struct {
	Kind Kind
	Arg  string
	// To is the peer a Signal is addressed to.
	To string
}

const Usage = "/join <room>  /leave [room]  /room <room>  /signal <user> <type>  /help  /quit  (plain text sends to the selected room, //text sends /text)"

// Parse turns one input line into a Command. Blank lines parse to None.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: Say, Arg: line}, nil
	}
	// "//" escapes a message that starts with a slash.
	if strings.HasPrefix(line, "//") {
		return Command{Kind: Say, Arg: line[1:]}, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "join", "j":
		if arg == "" {
			return Command{}, fmt.Errorf("/join needs a room id")
		}
		return Command{Kind: Join, Arg: arg}, nil
	case "leave", "part":
		return Command{Kind: Leave, Arg: arg}, nil
	case "room", "r":
		if arg == "" {
			return Command{}, fmt.Errorf("/room needs a room id")
		}
		return Command{Kind: Select, Arg: arg}, nil
	case "signal", "call":
		to, kind, _ := strings.Cut(arg, " ")
		kind = strings.TrimSpace(kind)
		if to == "" || kind == "" {
			return Command{}, fmt.Errorf("/signal needs a user and a type")
		}
		return Command{Kind: Signal, To: to, Arg: kind}, nil
	case "quit", "q", "exit":
		return Command{Kind: Quit}, nil
	case "help", "?":
		return Command{Kind: Help}, nil
	default:
		return Command{}, fmt.Errorf("unknown command /%s", name)
	}
}
