package bot

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/adapter"
	"github.com/kapu/quien-soy-bot-go/internal/command"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/iris"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// MessageStream delivers chat messages until ctx is cancelled.
type MessageStream interface {
	Run(ctx context.Context, handle iris.MessageHandler) error
	Close() error
}

// Sender posts replies to a chat room.
type Sender interface {
	SendMessage(ctx context.Context, room, message string) error
	SendImageURL(ctx context.Context, room, imageURL string) error
}

type Dependencies struct {
	Rooms          []string
	Concurrency    int
	StatsWindow    int
	Stream         MessageStream
	Sender         Sender
	MessageAdapter *adapter.MessageAdapter
	Formatter      *adapter.ResponseFormatter
	Session        command.GameSession
	Images         command.ImageResolver
	Logger         *zap.Logger
}

// Bot reads chat messages from the allowed rooms and runs the matching game
// command. Handlers run on a bounded pool so a slow verdict does not stall
// the message stream.
type Bot struct {
	stream      MessageStream
	sender      Sender
	adapter     *adapter.MessageAdapter
	dispatcher  command.Dispatcher
	registry    *command.Registry
	rooms       map[string]struct{}
	concurrency int
	logger      *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil {
		return nil, fmt.Errorf("bot dependencies must not be nil")
	}
	if deps.Stream == nil || deps.Sender == nil {
		return nil, fmt.Errorf("bot requires a message stream and a sender")
	}
	if deps.MessageAdapter == nil || deps.Formatter == nil || deps.Session == nil {
		return nil, fmt.Errorf("bot requires a message adapter, formatter and session")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	rooms := make(map[string]struct{}, len(deps.Rooms))
	for _, room := range deps.Rooms {
		rooms[room] = struct{}{}
	}

	b := &Bot{
		stream:      deps.Stream,
		sender:      deps.Sender,
		adapter:     deps.MessageAdapter,
		rooms:       rooms,
		concurrency: concurrency,
		logger:      logger,
	}

	b.registry = command.NewGameRegistry(&command.Dependencies{
		Session:     deps.Session,
		Formatter:   deps.Formatter,
		Images:      deps.Images,
		StatsWindow: deps.StatsWindow,
		SendMessage: b.send,
		SendError:   b.send,
		SendImage:   b.sendImage,
		Logger:      logger,
	})
	b.dispatcher = command.NewSequentialDispatcher(b.registry, command.DefaultNormalize)

	return b, nil
}

// Start blocks until ctx is cancelled or the message stream gives up.
// In-flight handlers are awaited before it returns.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}
	b.running = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	b.logger.Info("Bot listening",
		zap.Int("rooms", len(b.rooms)),
		zap.Strings("commands", b.registry.Names()),
		zap.Int("concurrency", b.concurrency),
	)

	p := pool.New().WithMaxGoroutines(b.concurrency)
	err := b.stream.Run(ctx, func(message *iris.Message) {
		if !b.accepts(message) {
			return
		}
		p.Go(func() {
			b.HandleMessage(ctx, message)
		})
	})
	p.Wait()

	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleMessage parses one message and runs its command synchronously.
func (b *Bot) HandleMessage(ctx context.Context, message *iris.Message) {
	if !b.accepts(message) {
		return
	}

	parsed := b.adapter.ParseMessage(message)
	if parsed.Type == domain.CommandUnknown {
		return
	}

	cmdCtx := domain.NewCommandContext(message.Room, message.SenderName(), parsed.RawMessage)
	b.logger.Debug("Dispatching command",
		zap.String("room", cmdCtx.Room),
		zap.String("sender", cmdCtx.Sender),
		zap.String("command", parsed.Type.String()),
	)

	event := command.CommandEvent{Type: parsed.Type, Params: parsed.Params}
	if _, err := b.dispatcher.Publish(ctx, cmdCtx, event); err != nil {
		b.logger.Error("Command failed",
			zap.String("room", cmdCtx.Room),
			zap.String("command", parsed.Type.String()),
			zap.Error(err),
		)
	}
}

func (b *Bot) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- b.stream.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) accepts(message *iris.Message) bool {
	if message == nil || message.Room == "" {
		return false
	}
	if len(b.rooms) == 0 {
		return true
	}
	_, ok := b.rooms[message.Room]
	return ok
}

func (b *Bot) send(room, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := b.sender.SendMessage(ctx, room, message); err != nil {
		b.logger.Warn("Failed to send reply", zap.String("room", room), zap.Error(err))
		return err
	}
	return nil
}

func (b *Bot) sendImage(room, imageURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return b.sender.SendImageURL(ctx, room, imageURL)
}
