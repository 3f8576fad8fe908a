package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/app"
	"github.com/kapu/quien-soy-bot-go/internal/config"
	"github.com/kapu/quien-soy-bot-go/internal/util"
	"go.uber.org/zap"
)

var version = "dev"

const (
	buildTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "quien-soy bot: %v\n", err)
		os.Exit(1)
	}
}

// run plays in the configured KakaoTalk rooms until SIGINT/SIGTERM or until
// the Iris stream gives up.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateChat(); err != nil {
		return err
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("¿Quién Soy? bot starting",
		zap.String("version", version),
		zap.String("theme", cfg.Game.Theme),
		zap.String("locale", cfg.Game.Locale),
		zap.Strings("rooms", cfg.Kakao.Rooms),
	)

	buildCtx, cancelBuild := context.WithTimeout(ctx, buildTimeout)
	container, err := app.Build(buildCtx, cfg, logger)
	cancelBuild()
	if err != nil {
		logger.Error("Failed to assemble game services", zap.Error(err))
		return err
	}
	defer container.Close()

	kakaoBot, err := container.NewBot(ctx)
	if err != nil {
		logger.Error("Failed to initialize bot", zap.Error(err))
		return err
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- kakaoBot.Start(ctx)
	}()

	var botErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case botErr = <-runErr:
		if botErr != nil {
			logger.Error("Message stream stopped", zap.Error(botErr))
		}
	}
	stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := kakaoBot.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Iris stream did not close cleanly", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return botErr
}
