package catalog

import (
	"context"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"go.uber.org/zap"
)

// Source mirrors game.CharacterSource so the catalog package stays free of
// the game package.
type Source interface {
	FetchCharacter(ctx context.Context, exclude []string) (*domain.Character, error)
}

// Saver stores characters. *Repository satisfies it.
type Saver interface {
	Save(ctx context.Context, character *domain.Character) error
}

// ArchivingSource saves every character its inner source produces. Save
// failures are logged and never fail the fetch.
type ArchivingSource struct {
	inner       Source
	saver       Saver
	saveTimeout time.Duration
	logger      *zap.Logger
}

func NewArchivingSource(inner Source, saver Saver, logger *zap.Logger) *ArchivingSource {
	return &ArchivingSource{
		inner:       inner,
		saver:       saver,
		saveTimeout: 5 * time.Second,
		logger:      logger,
	}
}

func (a *ArchivingSource) FetchCharacter(ctx context.Context, exclude []string) (*domain.Character, error) {
	character, err := a.inner.FetchCharacter(ctx, exclude)
	if err != nil {
		return nil, err
	}

	// the round must not wait on the archive or be cancelled with it
	copied := *character
	copied.Hints = append([]string(nil), character.Hints...)
	go func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
		defer cancel()
		if err := a.saver.Save(saveCtx, &copied); err != nil {
			a.logger.Warn("Failed to archive generated character",
				zap.String("name", copied.Name),
				zap.Error(err),
			)
			return
		}
		a.logger.Debug("Archived generated character", zap.String("name", copied.Name))
	}()

	return character, nil
}
