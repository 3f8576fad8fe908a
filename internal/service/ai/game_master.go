package ai

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/constants"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/prompt"
	"github.com/kapu/quien-soy-bot-go/internal/util"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// JSONGenerator is the part of ModelManager the game master depends on.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error)
}

func int64Ptr(v int64) *int64 { return &v }

var characterSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":     {Type: genai.TypeString, Description: "Nombre completo del personaje"},
		"category": {Type: genai.TypeString, Description: "Categoría (Música, Deporte, Cine...)"},
		"hints": {
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			MinItems: int64Ptr(domain.HintCount),
			MaxItems: int64Ptr(domain.HintCount),
		},
		"description":      {Type: genai.TypeString, Description: "Breve descripción biográfica"},
		"imageSearchQuery": {Type: genai.TypeString, Description: "Búsqueda para encontrar una imagen"},
	},
	Required:         []string{"name", "category", "hints", "description", "imageSearchQuery"},
	PropertyOrdering: []string{"name", "category", "hints", "description", "imageSearchQuery"},
}

var verdictSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isCorrect": {Type: genai.TypeBoolean},
	},
	Required: []string{"isCorrect"},
}

type verdictResponse struct {
	IsCorrect *bool `json:"isCorrect"`
}

type GameMasterConfig struct {
	Theme           string
	Language        string
	GenerateTimeout time.Duration
	JudgeTimeout    time.Duration
}

// GameMaster is the LLM-backed character source and guess judge.
type GameMaster struct {
	generator JSONGenerator
	prompts   *prompt.PromptBuilder
	verdicts  *VerdictCache
	cfg       GameMasterConfig
	logger    *zap.Logger
}

// NewGameMaster wires the generator. verdicts may be nil to disable caching.
func NewGameMaster(generator JSONGenerator, prompts *prompt.PromptBuilder, verdicts *VerdictCache, cfg GameMasterConfig, logger *zap.Logger) *GameMaster {
	if cfg.Theme == "" {
		cfg.Theme = "la cultura española"
	}
	if cfg.Language == "" {
		cfg.Language = "español"
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = constants.GameLimits.GenerateTimeout
	}
	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = constants.GameLimits.JudgeTimeout
	}
	if prompts == nil {
		prompts = prompt.NewPromptBuilder()
	}
	return &GameMaster{
		generator: generator,
		prompts:   prompts,
		verdicts:  verdicts,
		cfg:       cfg,
		logger:    logger,
	}
}

func (gm *GameMaster) FetchCharacter(ctx context.Context, exclude []string) (*domain.Character, error) {
	if len(exclude) > constants.GameLimits.MaxExcludedNames {
		exclude = exclude[len(exclude)-constants.GameLimits.MaxExcludedNames:]
	}

	text := gm.prompts.BuildCharacterPrompt(prompt.CharacterPromptData{
		Theme:       gm.cfg.Theme,
		Language:    gm.cfg.Language,
		HintCount:   domain.HintCount,
		ExcludeList: exclude,
	})

	ctx, cancel := context.WithTimeout(ctx, gm.cfg.GenerateTimeout)
	defer cancel()

	var character domain.Character
	metadata, err := gm.generator.GenerateJSON(ctx, text, PresetCreative, &character, &GenerateOptions{
		SystemInstruction: prompt.CharacterSystemInstruction,
		ResponseSchema:    characterSchema,
	})
	if err != nil {
		return nil, errors.NewGenerationError(generationFailureMessage(err), "ai", err)
	}

	character.Normalize()
	if err := character.Validate(); err != nil {
		gm.logger.Warn("Generated character rejected",
			zap.String("provider", metadata.Provider),
			zap.String("name", character.Name),
			zap.Error(err),
		)
		return nil, errors.NewGenerationError("generated character is malformed", "ai", err)
	}

	if util.ContainsFold(exclude, character.Name) {
		gm.logger.Warn("Generator repeated an excluded character", zap.String("name", character.Name))
		return nil, errors.NewGenerationError("generated character was already played", "ai", nil)
	}

	gm.logger.Info("Character generated",
		zap.String("provider", metadata.Provider),
		zap.String("model", metadata.Model),
		zap.Bool("fallback", metadata.UsedFallback),
		zap.String("category", character.Category),
	)

	return &character, nil
}

func (gm *GameMaster) JudgeGuess(ctx context.Context, guess, canonicalName string) (bool, error) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return false, nil
	}
	if len([]rune(guess)) > constants.GameLimits.MaxGuessLength {
		guess = string([]rune(guess)[:constants.GameLimits.MaxGuessLength])
	}

	if util.FoldKey(guess) == util.FoldKey(canonicalName) {
		return true, nil
	}

	if correct, ok := gm.verdicts.Lookup(ctx, canonicalName, guess); ok {
		gm.logger.Debug("Verdict served from cache", zap.Bool("correct", correct))
		return correct, nil
	}

	text := gm.prompts.BuildJudgePrompt(prompt.JudgePromptData{Guess: guess, Answer: canonicalName})

	ctx, cancel := context.WithTimeout(ctx, gm.cfg.JudgeTimeout)
	defer cancel()

	var verdict verdictResponse
	if _, err := gm.generator.GenerateJSON(ctx, text, PresetPrecise, &verdict, &GenerateOptions{
		SystemInstruction: prompt.JudgeSystemInstruction,
		ResponseSchema:    verdictSchema,
	}); err != nil {
		return false, errors.NewJudgeError("verdict request failed", guess, err)
	}
	if verdict.IsCorrect == nil {
		return false, errors.NewJudgeError("verdict is missing isCorrect", guess, nil)
	}

	gm.verdicts.Store(ctx, canonicalName, guess, *verdict.IsCorrect)
	return *verdict.IsCorrect, nil
}

func generationFailureMessage(err error) string {
	switch {
	case stderrors.Is(err, ErrServiceUnavailable):
		return "character generator unavailable"
	case stderrors.Is(err, context.DeadlineExceeded):
		return "character generation timed out"
	default:
		return "character generation failed"
	}
}
