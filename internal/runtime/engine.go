package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/policy"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/redact"
	"github.com/aretw0/parley/pkg/respond"
	"github.com/aretw0/parley/pkg/session"
	"github.com/aretw0/parley/pkg/slots"
)

// DefaultCollaboratorTimeout bounds each call into the classifier, extractor and backend.
const DefaultCollaboratorTimeout = 2 * time.Second

// Engine is the dialogue orchestrator. It sequences one turn through
// redaction, classification, extraction, slot filling, the safety gate,
// the policy, the backend and the response generator.
type Engine struct {
	sessions *session.Manager

	classifier ports.IntentClassifier
	extractor  ports.EntityExtractor
	backend    ports.Backend

	redactor  *redact.Redactor
	filler    *slots.Filler
	policy    *policy.Policy
	gate      *policy.Gate
	generator *respond.Generator

	observers []ports.TurnObserver
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithClassifier sets the intent classifier. Turns fail with
// domain.ErrClassifierNotConfigured until one is set.
func WithClassifier(c ports.IntentClassifier) EngineOption {
	return func(e *Engine) { e.classifier = c }
}

// WithExtractor sets the entity extractor. Without one, slots are never filled from messages.
func WithExtractor(x ports.EntityExtractor) EngineOption {
	return func(e *Engine) { e.extractor = x }
}

// WithBackend sets the backend adapter.
func WithBackend(b ports.Backend) EngineOption {
	return func(e *Engine) { e.backend = b }
}

// WithRedactor replaces the default PII redactor.
func WithRedactor(r *redact.Redactor) EngineOption {
	return func(e *Engine) { e.redactor = r }
}

// WithFiller replaces the default slot filler.
func WithFiller(f *slots.Filler) EngineOption {
	return func(e *Engine) { e.filler = f }
}

// WithPolicy replaces the default dialogue policy.
func WithPolicy(p *policy.Policy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithGate replaces the default safety gate.
func WithGate(g *policy.Gate) EngineOption {
	return func(e *Engine) { e.gate = g }
}

// WithGenerator replaces the default response generator.
func WithGenerator(g *respond.Generator) EngineOption {
	return func(e *Engine) { e.generator = g }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) { e.hooks = hooks }
}

// WithObserver registers a TurnObserver notified after every committed turn.
func WithObserver(o ports.TurnObserver) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCollaboratorTimeout bounds each collaborator call. Zero disables the bound.
func WithCollaboratorTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = d }
}

// WithClock overrides the time source used for turn timestamps and latency.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an orchestrator over the given session manager.
// Components not provided through options use their defaults.
func NewEngine(sessions *session.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		sessions: sessions,
		logger:   logging.NewNop(),
		timeout:  DefaultCollaboratorTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.redactor == nil {
		e.redactor = redact.Default()
	}
	if e.filler == nil {
		e.filler = slots.New(slots.WithClock(e.now), slots.WithLogger(e.logger))
	}
	if e.policy == nil {
		e.policy = policy.New(e.filler)
	}
	if e.gate == nil {
		e.gate = policy.NewGate()
	}
	if e.generator == nil {
		e.generator = respond.New()
	}
	return e
}

// Sessions returns the session manager used by the engine.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Redactor returns the PII redactor applied to history and responses.
func (e *Engine) Redactor() *redact.Redactor {
	return e.redactor
}
var _ ports.Dialogue = (*Engine)(nil)
