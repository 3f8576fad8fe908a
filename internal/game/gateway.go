package game

import (
	"context"
	stderrors "errors"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// CharacterSource produces a new character whose name is not in exclude.
type CharacterSource interface {
	FetchCharacter(ctx context.Context, exclude []string) (*domain.Character, error)
}

// GuessJudge decides whether guess names the same person as canonicalName.
// It is expected to tolerate misspellings, partial names and nicknames.
type GuessJudge interface {
	JudgeGuess(ctx context.Context, guess, canonicalName string) (bool, error)
}

// Gateway is everything the session needs from the outside world.
type Gateway interface {
	CharacterSource
	GuessJudge
}

type combinedGateway struct {
	CharacterSource
	GuessJudge
}

// CombineGateway pairs independent source and judge implementations.
func CombineGateway(source CharacterSource, judge GuessJudge) Gateway {
	return combinedGateway{CharacterSource: source, GuessJudge: judge}
}

type chainedSource struct {
	sources []CharacterSource
	logger  *zap.Logger
}

// ChainSources tries each source in order and returns the first valid
// character. Nil sources are skipped.
func ChainSources(logger *zap.Logger, sources ...CharacterSource) CharacterSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	filtered := make([]CharacterSource, 0, len(sources))
	for _, source := range sources {
		if source != nil {
			filtered = append(filtered, source)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &chainedSource{sources: filtered, logger: logger}
}

func (c *chainedSource) FetchCharacter(ctx context.Context, exclude []string) (*domain.Character, error) {
	if len(c.sources) == 0 {
		return nil, errors.NewGenerationError("no character source configured", "chain", nil)
	}

	var errs []error
	for i, source := range c.sources {
		character, err := source.FetchCharacter(ctx, exclude)
		if err == nil {
			if i > 0 {
				c.logger.Info("Character served by fallback source", zap.Int("source_index", i))
			}
			return character, nil
		}

		c.logger.Warn("Character source failed",
			zap.Int("source_index", i),
			zap.Error(err),
		)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.NewGenerationError("all character sources failed", "chain", stderrors.Join(errs...))
}
