package config

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Game.CharacterSource != SourceAI || !cfg.Game.UsesAI() || cfg.Game.UsesCatalog() {
		t.Fatalf("unexpected character source: %q", cfg.Game.CharacterSource)
	}
	if cfg.Game.Tag().String() != "es-ES" {
		t.Fatalf("unexpected locale: %v", cfg.Game.Tag())
	}
	if cfg.Game.StatsWindow != 5 || cfg.Game.VerdictCacheTTL != 24*time.Hour {
		t.Fatalf("unexpected game defaults: %+v", cfg.Game)
	}
	if cfg.Bot.Prefix != "!" || cfg.Bot.Concurrency != 4 {
		t.Fatalf("unexpected bot defaults: %+v", cfg.Bot)
	}
	if cfg.Redis.Enabled || cfg.Postgres.Enabled {
		t.Fatal("storage backends should be opt-in")
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GAME_CHARACTER_SOURCE", "AI+Catalog")
	t.Setenv("POSTGRES_ENABLED", "true")
	t.Setenv("GAME_VERDICT_CACHE_TTL", "90m")
	t.Setenv("KAKAO_ROOMS", "Sala 1, Sala 2 ,")
	t.Setenv("GAME_LOCALE", "en-GB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Game.UsesAI() || !cfg.Game.UsesCatalog() {
		t.Fatalf("expected both sources, got %q", cfg.Game.CharacterSource)
	}
	if cfg.Game.VerdictCacheTTL != 90*time.Minute {
		t.Fatalf("unexpected ttl: %v", cfg.Game.VerdictCacheTTL)
	}
	if len(cfg.Kakao.Rooms) != 2 || cfg.Kakao.Rooms[1] != "Sala 2" {
		t.Fatalf("unexpected rooms: %q", cfg.Kakao.Rooms)
	}
	if cfg.Game.Tag().String() != language.BritishEnglish.String() {
		t.Fatalf("unexpected tag: %v", cfg.Game.Tag())
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Gemini: GeminiConfig{APIKey: "k"},
			Game:   GameConfig{Locale: "es-ES", CharacterSource: SourceAI, StatsWindow: 5},
			Bot:    BotConfig{Prefix: "!", Concurrency: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errHas string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown source", func(c *Config) { c.Game.CharacterSource = "wiki" }, "GAME_CHARACTER_SOURCE"},
		{"missing gemini key", func(c *Config) { c.Gemini.APIKey = "" }, "GEMINI_API_KEY"},
		{"catalog without postgres", func(c *Config) { c.Game.CharacterSource = SourceCatalog }, "POSTGRES_ENABLED"},
		{"archive without postgres", func(c *Config) { c.Game.ArchiveGenerated = true }, "GAME_ARCHIVE_GENERATED"},
		{"bad locale", func(c *Config) { c.Game.Locale = "not a tag!" }, "GAME_LOCALE"},
		{"zero stats window", func(c *Config) { c.Game.StatsWindow = 0 }, "GAME_STATS_WINDOW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errHas == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errHas) {
				t.Fatalf("expected error containing %q, got %v", tt.errHas, err)
			}
		})
	}
}

func TestValidateChat(t *testing.T) {
	cfg := &Config{
		Iris: IrisConfig{BaseURL: "http://iris", WSURL: "ws://iris/ws"},
		Bot:  BotConfig{Prefix: "!"},
	}
	if err := cfg.ValidateChat(); err == nil || !strings.Contains(err.Error(), "KAKAO_ROOMS") {
		t.Fatalf("expected missing rooms error, got %v", err)
	}
	cfg.Kakao.Rooms = []string{"Sala"}
	if err := cfg.ValidateChat(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
