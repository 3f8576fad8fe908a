package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
)

var (
	// ErrUnknownCommand is returned when no handler serves a command type.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicateCommand is returned when a second handler claims a type.
	ErrDuplicateCommand = errors.New("command already registered")
)

// Registry maps parsed command types to their handlers, one handler per type.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.CommandType]Command
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.CommandType]Command)}
}

// Register binds handler to the type it reports.
func (r *Registry) Register(handler Command) error {
	if handler == nil {
		return fmt.Errorf("command handler must not be nil")
	}
	cmdType := handler.Type()
	if !cmdType.IsValid() || cmdType == domain.CommandUnknown {
		return fmt.Errorf("%w: %q cannot be registered", ErrUnknownCommand, cmdType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.handlers[cmdType]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmdType)
	}
	r.handlers[cmdType] = handler
	return nil
}

func (r *Registry) mustRegister(handlers ...Command) {
	for _, handler := range handlers {
		if err := r.Register(handler); err != nil {
			panic(err)
		}
	}
}

// Execute runs the handler for cmdType.
func (r *Registry) Execute(ctx context.Context, cmdCtx *domain.CommandContext, cmdType domain.CommandType, params map[string]any) error {
	if r == nil {
		return fmt.Errorf("command registry is nil")
	}

	r.mu.RLock()
	handler, ok := r.handlers[cmdType]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmdType)
	}
	return handler.Execute(ctx, cmdCtx, params)
}

// Names lists the registered command types in alphabetical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for cmdType := range r.handlers {
		names = append(names, cmdType.String())
	}
	sort.Strings(names)
	return names
}
