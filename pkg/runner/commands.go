package runner

import (
	"strconv"
	"strings"
)

// CommandKind identifies a chat command.
type CommandKind int

const (
	// CommandNone means the line is a message for the agent.
	CommandNone CommandKind = iota
	CommandQuit
	CommandClear
	CommandSuggest
	// CommandPick selects a suggested question by Command.Index.
	CommandPick
)

// Command is a parsed chat command.
type Command struct {
	Kind CommandKind
	// Index is the 0-based suggestion index for CommandPick.
	Index int
}

// ParseCommand recognises the chat commands. Anything else is CommandNone.
func ParseCommand(line string) Command {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	switch trimmed {
	case "/q", "/quit", "/exit":
		return Command{Kind: CommandQuit}
	case "/clear":
		return Command{Kind: CommandClear}
	case "/suggest":
		return Command{Kind: CommandSuggest}
	}

	if rest, ok := strings.CutPrefix(trimmed, "/"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return Command{Kind: CommandPick, Index: n - 1}
		}
	}
	return Command{Kind: CommandNone}
}
