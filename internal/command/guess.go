package command

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/kapu/quien-soy-bot-go/internal/adapter"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/game"
	"go.uber.org/zap"
)

type GuessCommand struct {
	deps *Dependencies
}

func NewGuessCommand(deps *Dependencies) *GuessCommand {
	return &GuessCommand{deps: deps}
}

func (c *GuessCommand) Type() domain.CommandType {
	return domain.CommandGuess
}

func (c *GuessCommand) Description() string {
	return "Intenta adivinar el personaje"
}

func (c *GuessCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	guess, _ := params[adapter.ParamGuess].(string)
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatGuessUsage())
	}

	notice := func(game.Snapshot) {
		if err := c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatChecking()); err != nil {
			c.deps.logger().Warn("Failed to send checking message", zap.Error(err))
		}
	}

	result, err := c.deps.Session.SubmitGuessWithNotice(ctx, guess, notice)
	if err != nil {
		return c.deps.reportSessionError(cmdCtx, err)
	}

	c.deps.logger().Debug("Guess evaluated",
		zap.String("room", cmdCtx.Room),
		zap.String("sender", cmdCtx.Sender),
		zap.String("outcome", string(result.Outcome)),
	)

	switch result.Outcome {
	case game.OutcomeCorrect, game.OutcomeLost:
		imageURL := ""
		if c.deps.Images != nil {
			imageURL = c.deps.Images.Resolve(ctx, result.Snapshot.Character)
		}
		if err := c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatRoundFinished(result, imageURL)); err != nil {
			return err
		}
		c.sendPicture(cmdCtx.Room, imageURL)
		return nil
	case game.OutcomeWrong:
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatWrongGuess(guess, result))
	default:
		// another guess is being judged; only a missing round gets a reply
		if result.Snapshot.Status != game.StatusPlaying {
			return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatNoRound())
		}
		return nil
	}
}

// sendPicture follows the finished screen with the picture itself. A failed
// upload leaves the URL in the text as the only reference.
func (c *GuessCommand) sendPicture(room, imageURL string) {
	if c.deps.SendImage == nil || imageURL == "" {
		return
	}
	if err := c.deps.SendImage(room, imageURL); err != nil {
		c.deps.logger().Warn("Failed to send character picture", zap.String("room", room), zap.Error(err))
	}
}

func isSuperseded(err error) bool {
	return stderrors.Is(err, game.ErrSuperseded)
}
