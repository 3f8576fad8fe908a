package domain

import "time"

// CommandContext describes where a chat command came from and where replies go.
type CommandContext struct {
	Room       string
	Sender     string
	Message    string
	ReceivedAt time.Time
}

func NewCommandContext(room, sender, message string) *CommandContext {
	return &CommandContext{
		Room:       room,
		Sender:     sender,
		Message:    message,
		ReceivedAt: time.Now(),
	}
}
