package command

import (
	"context"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/game"
)

type HintCommand struct {
	deps *Dependencies
}

func NewHintCommand(deps *Dependencies) *HintCommand {
	return &HintCommand{deps: deps}
}

func (c *HintCommand) Type() domain.CommandType {
	return domain.CommandHint
}

func (c *HintCommand) Description() string {
	return "Revela la siguiente pista"
}

func (c *HintCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	snap, changed := c.deps.Session.RevealHint()
	switch {
	case changed:
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatHintRevealed(snap))
	case snap.Status == game.StatusPlaying:
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatNoMoreHints(snap))
	default:
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatNoRound())
	}
}
