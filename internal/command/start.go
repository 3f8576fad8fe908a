package command

import (
	"context"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"go.uber.org/zap"
)

type StartCommand struct {
	deps *Dependencies
}

func NewStartCommand(deps *Dependencies) *StartCommand {
	return &StartCommand{deps: deps}
}

func (c *StartCommand) Type() domain.CommandType {
	return domain.CommandStart
}

func (c *StartCommand) Description() string {
	return "Empieza una ronda con un personaje nuevo"
}

func (c *StartCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if err := c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatLoading()); err != nil {
		c.deps.logger().Warn("Failed to send loading message", zap.Error(err))
	}

	snap, err := c.deps.Session.StartRound(ctx)
	if err != nil {
		return c.deps.reportSessionError(cmdCtx, err)
	}

	c.deps.logger().Info("Round started from chat",
		zap.String("room", cmdCtx.Room),
		zap.String("sender", cmdCtx.Sender),
		zap.String("round_id", snap.RoundID),
	)
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatRoundStarted(snap))
}
