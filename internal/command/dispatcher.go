package command

import (
	"context"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
)

// CommandEvent is one parsed chat command waiting to run.
type CommandEvent struct {
	Type   domain.CommandType
	Params map[string]any
}

// Dispatcher runs command events against a registry.
type Dispatcher interface {
	Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error)
}

// NormalizeFunc rewrites a parsed command before it reaches the registry.
type NormalizeFunc func(domain.CommandType, map[string]any) (domain.CommandType, map[string]any)

type sequentialDispatcher struct {
	registry  *Registry
	normalize NormalizeFunc
}

// NewSequentialDispatcher creates a dispatcher that executes command events in
// the order they are received.
func NewSequentialDispatcher(registry *Registry, normalize NormalizeFunc) Dispatcher {
	return &sequentialDispatcher{registry: registry, normalize: normalize}
}

func (d *sequentialDispatcher) Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error) {
	if d == nil || d.registry == nil || d.normalize == nil {
		return 0, nil
	}

	executed := 0
	for _, event := range events {
		if event.Type == domain.CommandUnknown {
			continue
		}

		normalizedParams := cloneParams(event.Params)
		cmdType, params := d.normalize(event.Type, normalizedParams)
		if err := d.registry.Execute(ctx, cmdCtx, cmdType, params); err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}

// DefaultNormalize passes the command through unchanged.
func DefaultNormalize(cmdType domain.CommandType, params map[string]any) (domain.CommandType, map[string]any) {
	return cmdType, params
}

func cloneParams(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	clone := make(map[string]any, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}
