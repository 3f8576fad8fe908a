package command

import (
	"context"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
)

type HelpCommand struct {
	deps *Dependencies
}

func NewHelpCommand(deps *Dependencies) *HelpCommand {
	return &HelpCommand{deps: deps}
}

func (c *HelpCommand) Type() domain.CommandType {
	return domain.CommandHelp
}

func (c *HelpCommand) Description() string {
	return "Muestra la ayuda"
}

func (c *HelpCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatHelp())
}
