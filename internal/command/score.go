package command

import (
	"context"

	"github.com/kapu/quien-soy-bot-go/internal/constants"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/game"
)

type ScoreCommand struct {
	deps *Dependencies
}

func NewScoreCommand(deps *Dependencies) *ScoreCommand {
	return &ScoreCommand{deps: deps}
}

func (c *ScoreCommand) Type() domain.CommandType {
	return domain.CommandScore
}

func (c *ScoreCommand) Description() string {
	return "Muestra la puntuación total"
}

func (c *ScoreCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	snap := c.deps.Session.Snapshot()
	message := c.deps.Formatter.FormatScore(snap)
	if snap.Status == game.StatusPlaying {
		message += "\n\n" + c.deps.Formatter.FormatRoundStatus(snap)
	}
	return c.deps.SendMessage(cmdCtx.Room, message)
}

type StatsCommand struct {
	deps *Dependencies
}

func NewStatsCommand(deps *Dependencies) *StatsCommand {
	return &StatsCommand{deps: deps}
}

func (c *StatsCommand) Type() domain.CommandType {
	return domain.CommandStats
}

func (c *StatsCommand) Description() string {
	return "Lista las últimas partidas"
}

func (c *StatsCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	window := c.deps.StatsWindow
	if window <= 0 {
		window = constants.GameLimits.StatsWindow
	}
	snap := c.deps.Session.Snapshot()
	recent := c.deps.Session.Recent(window)
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatStats(recent, snap.Score))
}
