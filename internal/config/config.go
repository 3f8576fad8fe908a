package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Character sources accepted by GAME_CHARACTER_SOURCE.
const (
	SourceAI           = "ai"
	SourceCatalog      = "catalog"
	SourceAIAndCatalog = "ai+catalog"
)

type Config struct {
	Iris     IrisConfig
	Kakao    KakaoConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Game     GameConfig
	Logging  LoggingConfig
	Bot      BotConfig
}

type IrisConfig struct {
	BaseURL string
	WSURL   string
}

type KakaoConfig struct {
	Rooms []string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type GameConfig struct {
	Locale           string
	Language         string
	Theme            string
	Timezone         string
	CharacterSource  string
	ArchiveGenerated bool
	VerdictCacheTTL  time.Duration
	StatsWindow      int
	ImageLookup      bool
}

// Tag parses Locale. Validate guarantees it succeeds on a loaded config.
func (g GameConfig) Tag() language.Tag {
	tag, err := language.Parse(g.Locale)
	if err != nil {
		return language.Spanish
	}
	return tag
}

// UsesAI reports whether the generator takes part in character selection.
func (g GameConfig) UsesAI() bool {
	return g.CharacterSource == SourceAI || g.CharacterSource == SourceAIAndCatalog
}

// UsesCatalog reports whether stored characters take part in selection.
func (g GameConfig) UsesCatalog() bool {
	return g.CharacterSource == SourceCatalog || g.CharacterSource == SourceAIAndCatalog
}

type LoggingConfig struct {
	Level string
	File  string
}

type BotConfig struct {
	Prefix      string
	Concurrency int
}

// Load reads the environment, after an optional .env file, and validates the
// settings every entry point needs. Chat-specific checks live in
// ValidateChat.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Iris: IrisConfig{
			BaseURL: getEnv("IRIS_BASE_URL", "http://localhost:3000"),
			WSURL:   getEnv("IRIS_WS_URL", "ws://localhost:3000/ws"),
		},
		Kakao: KakaoConfig{
			Rooms: parseCommaSeparated(getEnv("KAKAO_ROOMS", "")),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "quiensoy"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "quiensoy"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Game: GameConfig{
			Locale:           getEnv("GAME_LOCALE", "es-ES"),
			Language:         getEnv("GAME_LANGUAGE", "español"),
			Theme:            getEnv("GAME_THEME", "la cultura española"),
			Timezone:         getEnv("GAME_TIMEZONE", "Europe/Madrid"),
			CharacterSource:  strings.ToLower(getEnv("GAME_CHARACTER_SOURCE", SourceAI)),
			ArchiveGenerated: getEnvBool("GAME_ARCHIVE_GENERATED", false),
			VerdictCacheTTL:  getEnvDuration("GAME_VERDICT_CACHE_TTL", 24*time.Hour),
			StatsWindow:      getEnvInt("GAME_STATS_WINDOW", 5),
			ImageLookup:      getEnvBool("GAME_IMAGE_LOOKUP", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Bot: BotConfig{
			Prefix:      getEnv("BOT_PREFIX", "!"),
			Concurrency: getEnvInt("BOT_CONCURRENCY", 4),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Game.CharacterSource {
	case SourceAI, SourceCatalog, SourceAIAndCatalog:
	default:
		return fmt.Errorf("GAME_CHARACTER_SOURCE must be one of %s, %s, %s", SourceAI, SourceCatalog, SourceAIAndCatalog)
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Game.UsesCatalog() && !c.Postgres.Enabled {
		return fmt.Errorf("GAME_CHARACTER_SOURCE=%s requires POSTGRES_ENABLED=true", c.Game.CharacterSource)
	}
	if c.Game.ArchiveGenerated && !c.Postgres.Enabled {
		return fmt.Errorf("GAME_ARCHIVE_GENERATED requires POSTGRES_ENABLED=true")
	}
	if _, err := language.Parse(c.Game.Locale); err != nil {
		return fmt.Errorf("GAME_LOCALE %q is not a valid language tag: %w", c.Game.Locale, err)
	}
	if c.Game.StatsWindow <= 0 {
		return fmt.Errorf("GAME_STATS_WINDOW must be positive")
	}
	if c.Bot.Concurrency <= 0 {
		return fmt.Errorf("BOT_CONCURRENCY must be positive")
	}
	return nil
}

// ValidateChat checks the settings only the chat bot needs.
func (c *Config) ValidateChat() error {
	if c.Iris.BaseURL == "" {
		return fmt.Errorf("IRIS_BASE_URL is required")
	}
	if c.Iris.WSURL == "" {
		return fmt.Errorf("IRIS_WS_URL is required")
	}
	if len(c.Kakao.Rooms) == 0 {
		return fmt.Errorf("KAKAO_ROOMS is required")
	}
	if c.Bot.Prefix == "" {
		return fmt.Errorf("BOT_PREFIX is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
