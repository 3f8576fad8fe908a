package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/adapter"
	"github.com/kapu/quien-soy-bot-go/internal/bot"
	"github.com/kapu/quien-soy-bot-go/internal/config"
	"github.com/kapu/quien-soy-bot-go/internal/constants"
	"github.com/kapu/quien-soy-bot-go/internal/game"
	"github.com/kapu/quien-soy-bot-go/internal/iris"
	"github.com/kapu/quien-soy-bot-go/internal/prompt"
	"github.com/kapu/quien-soy-bot-go/internal/service/ai"
	"github.com/kapu/quien-soy-bot-go/internal/service/cache"
	"github.com/kapu/quien-soy-bot-go/internal/service/catalog"
	"github.com/kapu/quien-soy-bot-go/internal/service/database"
	"github.com/kapu/quien-soy-bot-go/internal/service/image"
	"github.com/kapu/quien-soy-bot-go/internal/util"
	"go.uber.org/zap"
)

const irisPingTimeout = 5 * time.Second

// Container bundles the assembled game services. The chat bot and the
// terminal client share it.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Session   *game.Session
	Formatter *adapter.ResponseFormatter
	Images    *image.Resolver
	Models    *ai.ModelManager
	Catalog   *catalog.Repository

	closers []func()
}

// Build assembles the game stack: optional redis and postgres, the model
// manager, the character sources and the session. Chat transport is created
// later by NewBot so the terminal client never needs Iris.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if err := util.SetTimezone(cfg.Game.Timezone); err != nil {
		logger.Warn("Unknown timezone, keeping UTC", zap.String("timezone", cfg.Game.Timezone), zap.Error(err))
	}

	formatter, err := adapter.NewResponseFormatter(cfg.Bot.Prefix, cfg.Game.Tag())
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}
	c.Formatter = formatter

	// Shared cache
	var (
		verdictStore ai.RemoteStore
		imageStore   image.Store
	)
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:      cfg.Redis.Host,
			Port:      cfg.Redis.Port,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: "quiensoy:",
		}, logger)
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", cacheErr)
		}
		c.closers = append(c.closers, func() {
			_ = cacheSvc.Close()
		})
		if waitErr := cacheSvc.WaitUntilReady(ctx, constants.RedisConfig.ReadyTimeout); waitErr != nil {
			return nil, fmt.Errorf("redis not ready: %w", waitErr)
		}
		verdictStore = cacheSvc
		imageStore = cacheSvc
	}

	// Character catalog
	if cfg.Postgres.Enabled {
		postgresSvc, dbErr := database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if dbErr != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", dbErr)
		}
		c.closers = append(c.closers, func() {
			_ = postgresSvc.Close()
		})

		repo := catalog.NewRepository(postgresSvc.GetDB(), logger)
		if schemaErr := repo.EnsureSchema(ctx); schemaErr != nil {
			return nil, fmt.Errorf("failed to prepare catalog schema: %w", schemaErr)
		}
		c.Catalog = repo
		c.logCatalog(ctx)
	}

	// AI stack
	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:       cfg.Gemini.APIKey,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		DefaultGeminiModel: cfg.Gemini.Model,
		DefaultOpenAIModel: cfg.OpenAI.Model,
		EnableFallback:     cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}
	c.Models = modelManager

	verdicts := ai.NewVerdictCache(constants.CacheLimits.VerdictEntries, cfg.Game.VerdictCacheTTL, verdictStore, logger)
	gameMaster := ai.NewGameMaster(modelManager, prompt.NewPromptBuilder(), verdicts, ai.GameMasterConfig{
		Theme:    cfg.Game.Theme,
		Language: cfg.Game.Language,
	}, logger)

	source := buildCharacterSource(cfg, gameMaster, c.Catalog, logger)
	c.Session = game.NewSession(game.CombineGateway(source, gameMaster), logger)

	base, _ := cfg.Game.Tag().Base()
	c.Images = image.NewResolver(image.Config{
		Language: base.String(),
		Disabled: !cfg.Game.ImageLookup,
	}, imageStore, logger)

	logger.Info("Game services assembled",
		zap.String("character_source", cfg.Game.CharacterSource),
		zap.Bool("archive_generated", cfg.Game.ArchiveGenerated),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("postgres", cfg.Postgres.Enabled),
	)

	return c, nil
}

// buildCharacterSource orders the configured sources: the generator first and
// the catalog as fallback.
func buildCharacterSource(cfg *config.Config, gameMaster *ai.GameMaster, repo *catalog.Repository, logger *zap.Logger) game.CharacterSource {
	var sources []game.CharacterSource
	if cfg.Game.UsesAI() {
		var generated game.CharacterSource = gameMaster
		if cfg.Game.ArchiveGenerated && repo != nil {
			generated = catalog.NewArchivingSource(gameMaster, repo, logger)
		}
		sources = append(sources, generated)
	}
	if cfg.Game.UsesCatalog() && repo != nil {
		sources = append(sources, repo)
	}
	return game.ChainSources(logger, sources...)
}

func (c *Container) logCatalog(ctx context.Context) {
	count, err := c.Catalog.Count(ctx)
	if err != nil {
		c.Logger.Warn("Failed to count catalog characters", zap.Error(err))
		return
	}
	categories, err := c.Catalog.Categories(ctx)
	if err != nil {
		c.Logger.Warn("Failed to list catalog categories", zap.Error(err))
	}
	c.Logger.Info("Character catalog ready",
		zap.Int("characters", count),
		zap.Int("categories", len(categories)),
		zap.Any("by_category", categories),
	)
}

// NewBot creates the Iris transport and a bot bound to the shared session.
// An unreachable Iris is only logged; the websocket keeps reconnecting.
func (c *Container) NewBot(ctx context.Context) (*bot.Bot, error) {
	if c == nil || c.Session == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	if err := c.Config.ValidateChat(); err != nil {
		return nil, err
	}

	irisClient := iris.NewClient(c.Config.Iris.BaseURL, c.Logger)
	pingCtx, cancel := context.WithTimeout(ctx, irisPingTimeout)
	if err := irisClient.Ping(pingCtx); err != nil {
		c.Logger.Warn("Iris health check failed", zap.String("base_url", c.Config.Iris.BaseURL), zap.Error(err))
	}
	cancel()

	irisWS := iris.NewWebSocket(
		c.Config.Iris.WSURL,
		constants.WebSocketConfig.MaxReconnectAttempts,
		constants.WebSocketConfig.ReconnectDelay,
		c.Logger,
	)
	irisWS.OnStateChange(func(state iris.WebSocketState) {
		c.Logger.Debug("Iris connection state", zap.String("state", state.String()))
	})

	return bot.NewBot(&bot.Dependencies{
		Rooms:          c.Config.Kakao.Rooms,
		Concurrency:    c.Config.Bot.Concurrency,
		StatsWindow:    c.Config.Game.StatsWindow,
		Stream:         irisWS,
		Sender:         irisClient,
		MessageAdapter: adapter.NewMessageAdapter(c.Config.Bot.Prefix),
		Formatter:      c.Formatter,
		Session:        c.Session,
		Images:         c.Images,
		Logger:         c.Logger,
	})
}

// Close releases infrastructure in reverse creation order.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
