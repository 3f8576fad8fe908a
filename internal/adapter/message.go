package adapter

import (
	"regexp"
	"strings"

	"github.com/kapu/quien-soy-bot-go/internal/constants"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/iris"
	"github.com/kapu/quien-soy-bot-go/internal/util"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// ParamGuess is the Params key holding the guessed name.
const ParamGuess = "guess"

var commandAliases = map[string]domain.CommandType{
	"empezar":   domain.CommandStart,
	"start":     domain.CommandStart,
	"jugar":     domain.CommandStart,
	"nuevo":     domain.CommandStart,
	"otro":      domain.CommandStart,
	"pista":     domain.CommandHint,
	"hint":      domain.CommandHint,
	"adivina":   domain.CommandGuess,
	"guess":     domain.CommandGuess,
	"es":        domain.CommandGuess,
	"puntos":    domain.CommandScore,
	"score":     domain.CommandScore,
	"marcador":  domain.CommandScore,
	"historial": domain.CommandStats,
	"stats":     domain.CommandStats,
	"ayuda":     domain.CommandHelp,
	"help":      domain.CommandHelp,
	"comandos":  domain.CommandHelp,
}

// MessageAdapter converts chat lines to game commands.
type MessageAdapter struct {
	prefix      string
	bareGuesses bool
}

type Option func(*MessageAdapter)

// WithBareGuesses makes any prefix-less line a guess. The terminal client
// uses it; chat rooms do not, so ordinary conversation is never judged.
func WithBareGuesses() Option {
	return func(ma *MessageAdapter) {
		ma.bareGuesses = true
	}
}

func NewMessageAdapter(prefix string, opts ...Option) *MessageAdapter {
	ma := &MessageAdapter{prefix: prefix}
	for _, opt := range opts {
		opt(ma)
	}
	return ma
}

type ParsedCommand struct {
	Type       domain.CommandType
	Params     map[string]any
	RawMessage string
}

// Guess returns the guessed name, or "" for other commands.
func (pc *ParsedCommand) Guess() string {
	if pc == nil {
		return ""
	}
	guess, _ := pc.Params[ParamGuess].(string)
	return guess
}

func (ma *MessageAdapter) ParseMessage(message *iris.Message) *ParsedCommand {
	if message == nil {
		return ma.createUnknownCommand("")
	}
	return ma.ParseText(message.Msg)
}

func (ma *MessageAdapter) ParseText(raw string) *ParsedCommand {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ma.createUnknownCommand("")
	}

	if !strings.HasPrefix(text, ma.prefix) {
		if ma.bareGuesses {
			return ma.createGuessCommand(text, text)
		}
		return ma.createUnknownCommand(text)
	}

	parts := strings.Fields(strings.TrimSpace(text[len(ma.prefix):]))
	if len(parts) == 0 {
		return ma.createUnknownCommand(text)
	}

	commandType, ok := commandAliases[util.FoldKey(parts[0])]
	if !ok {
		return ma.createUnknownCommand(text)
	}

	if commandType == domain.CommandGuess {
		return ma.createGuessCommand(strings.Join(parts[1:], " "), text)
	}

	return &ParsedCommand{
		Type:       commandType,
		Params:     make(map[string]any),
		RawMessage: text,
	}
}

func (ma *MessageAdapter) createGuessCommand(guess, rawMessage string) *ParsedCommand {
	return &ParsedCommand{
		Type:       domain.CommandGuess,
		Params:     map[string]any{ParamGuess: sanitizeGuess(guess)},
		RawMessage: rawMessage,
	}
}

func (ma *MessageAdapter) createUnknownCommand(text string) *ParsedCommand {
	return &ParsedCommand{
		Type:       domain.CommandUnknown,
		Params:     make(map[string]any),
		RawMessage: text,
	}
}

func sanitizeGuess(input string) string {
	normalized := util.CollapseSpaces(controlCharsPattern.ReplaceAllString(input, " "))
	runes := []rune(normalized)
	if len(runes) > constants.GameLimits.MaxGuessLength {
		return strings.TrimSpace(string(runes[:constants.GameLimits.MaxGuessLength]))
	}
	return normalized
}
