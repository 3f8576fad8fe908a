package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/adapter"
	"github.com/kapu/quien-soy-bot-go/internal/app"
	"github.com/kapu/quien-soy-bot-go/internal/command"
	"github.com/kapu/quien-soy-bot-go/internal/config"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/util"
	"go.uber.org/zap"
)

const (
	commandPrefix = "/"
	terminalRoom  = "terminal"
)

func run(ctx context.Context, opts *Options, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}

	// Logs share the terminal with the game unless a file is given.
	level := cfg.Logging.Level
	if cfg.Logging.File == "" {
		level = "error"
	}
	logger, err := util.NewLogger(level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	buildCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer container.Close()

	r := newREPL(container.Session, container.Formatter, container.Images, cfg.Game.StatsWindow, out, logger)
	return r.Run(ctx, in)
}

// repl feeds terminal lines through the same command registry the chat bot
// uses. Lines without the prefix are guesses.
type repl struct {
	parser     *adapter.MessageAdapter
	dispatcher command.Dispatcher
	formatter  *adapter.ResponseFormatter
	out        io.Writer
	logger     *zap.Logger
}

func newREPL(session command.GameSession, formatter *adapter.ResponseFormatter, images command.ImageResolver, statsWindow int, out io.Writer, logger *zap.Logger) *repl {
	r := &repl{
		parser:    adapter.NewMessageAdapter(commandPrefix, adapter.WithBareGuesses()),
		formatter: formatter,
		out:       out,
		logger:    logger,
	}
	registry := command.NewGameRegistry(&command.Dependencies{
		Session:     session,
		Formatter:   formatter,
		Images:      images,
		StatsWindow: statsWindow,
		SendMessage: r.print,
		SendError:   r.print,
		Logger:      logger,
	})
	r.dispatcher = command.NewSequentialDispatcher(registry, command.DefaultNormalize)
	return r
}

func (r *repl) Run(ctx context.Context, in io.Reader) error {
	_ = r.print(terminalRoom, r.formatter.FormatHelp())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "\n> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isQuit(line) {
			fmt.Fprintln(r.out, "¡Hasta la próxima!")
			return nil
		}
		r.handle(ctx, line)
	}
	return scanner.Err()
}

func (r *repl) handle(ctx context.Context, line string) {
	parsed := r.parser.ParseText(line)
	if parsed.Type == domain.CommandUnknown {
		_ = r.print(terminalRoom, r.formatter.FormatHelp())
		return
	}

	cmdCtx := domain.NewCommandContext(terminalRoom, "", line)
	event := command.CommandEvent{Type: parsed.Type, Params: parsed.Params}
	if _, err := r.dispatcher.Publish(ctx, cmdCtx, event); err != nil {
		r.logger.Error("Command failed", zap.String("command", parsed.Type.String()), zap.Error(err))
	}
}

func (r *repl) print(_ string, message string) error {
	_, err := fmt.Fprintln(r.out, message)
	return err
}

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case commandPrefix + "quit", commandPrefix + "salir", commandPrefix + "exit":
		return true
	default:
		return false
	}
}
