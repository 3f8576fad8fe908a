package command

import (
	"context"

	"github.com/kapu/quien-soy-bot-go/internal/adapter"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/game"
	"go.uber.org/zap"
)

type Command interface {
	Type() domain.CommandType
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// GameSession is the part of *game.Session the commands drive.
type GameSession interface {
	StartRound(ctx context.Context) (game.Snapshot, error)
	RevealHint() (game.Snapshot, bool)
	SubmitGuessWithNotice(ctx context.Context, text string, accepted func(game.Snapshot)) (game.GuessResult, error)
	Snapshot() game.Snapshot
	Recent(n int) []domain.RoundSummary
}

// ImageResolver finds a picture of a revealed character. It never fails;
// unknown characters get a placeholder.
type ImageResolver interface {
	Resolve(ctx context.Context, character *domain.Character) string
}

type Dependencies struct {
	Session     GameSession
	Formatter   *adapter.ResponseFormatter
	Images      ImageResolver
	StatsWindow int
	SendMessage func(room, message string) error
	SendError   func(room, message string) error
	// SendImage relays a picture by URL. Nil when the transport is text only.
	SendImage func(room, imageURL string) error
	Logger    *zap.Logger
}

func (d *Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// reportSessionError tells the room about a gateway failure. Superseded
// responses are dropped silently since a newer round already answered.
func (d *Dependencies) reportSessionError(cmdCtx *domain.CommandContext, err error) error {
	if isSuperseded(err) {
		d.logger().Debug("Dropped reply for superseded round", zap.String("room", cmdCtx.Room))
		return nil
	}
	return d.SendError(cmdCtx.Room, d.Formatter.FormatGatewayError(err))
}
