package runner

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Middleware decorates a Dialogue.
type Middleware func(ports.Dialogue) ports.Dialogue

// Chain applies middlewares so that the first one is the outermost.
func Chain(d ports.Dialogue, mws ...Middleware) ports.Dialogue {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

// Sanitize rejects or cleans messages with SanitizeInput before they reach the engine.
func Sanitize() Middleware {
	return func(next ports.Dialogue) ports.Dialogue {
		return &sanitizing{Dialogue: next}
	}
}

type sanitizing struct {
	ports.Dialogue
}

func (s *sanitizing) ProcessMessage(ctx context.Context, sessionID, message string) (domain.TurnResult, error) {
	clean, err := SanitizeInput(message)
	if err != nil {
		return domain.TurnResult{}, fmt.Errorf("rejected message: %w", err)
	}
	return s.Dialogue.ProcessMessage(ctx, sessionID, clean)
}
