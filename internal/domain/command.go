package domain

type CommandType string

const (
	CommandStart   CommandType = "start"
	CommandHint    CommandType = "hint"
	CommandGuess   CommandType = "guess"
	CommandScore   CommandType = "score"
	CommandStats   CommandType = "stats"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

func (c CommandType) IsValid() bool {
	switch c {
	case CommandStart, CommandHint, CommandGuess, CommandScore,
		CommandStats, CommandHelp, CommandUnknown:
		return true
	default:
		return false
	}
}
