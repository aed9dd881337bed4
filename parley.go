package parley

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/runtime"
	loamAdapter "github.com/aretw0/parley/pkg/adapters/loam"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/policy"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/redact"
	"github.com/aretw0/parley/pkg/respond"
	"github.com/aretw0/parley/pkg/session"
	"github.com/aretw0/parley/pkg/slots"
)

// Version is the engine version reported by the health endpoints.
const Version = "1.0.0"

// Engine is the high-level entry point for the Parley library.
// It wires the session store, the policy components and the collaborators
// into the orchestrator and exposes the dialogue operations.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	store    ports.SessionStore
	logger   *slog.Logger
}

var _ ports.Dialogue = (*Engine)(nil)

type config struct {
	store       ports.SessionStore
	middlewares []middleware.Middleware
	locker      ports.DistributedLocker

	classifier ports.IntentClassifier
	extractor  ports.EntityExtractor
	backend    ports.Backend

	templates   []respond.Template
	sources     []ports.TemplateSource
	templateDir string

	redactor          *redact.Redactor
	required          slots.RequiredTable
	clarifyThreshold  float64
	escalateThreshold float64
	maxFallbacks      int
	highRisk          []string
	keywords          []string

	historyWindow int
	idleTTL       time.Duration
	timeout       time.Duration
	hasTimeout    bool

	hooks     domain.LifecycleHooks
	observers []ports.TurnObserver
	logger    *slog.Logger
	now       func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*config)

// WithStore sets the session store. The default is an in-memory store whose
// entries expire after the idle TTL.
func WithStore(store ports.SessionStore) Option {
	return func(c *config) { c.store = store }
}

// WithStoreMiddleware wraps the session store, first middleware outermost.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(c *config) { c.middlewares = append(c.middlewares, mws...) }
}

// WithLocker adds a distributed lock around every session access.
func WithLocker(l ports.DistributedLocker) Option {
	return func(c *config) { c.locker = l }
}

// WithClassifier sets the intent classifier. It is required before the first turn.
func WithClassifier(cl ports.IntentClassifier) Option {
	return func(c *config) { c.classifier = cl }
}

// WithExtractor sets the entity extractor.
func WithExtractor(x ports.EntityExtractor) Option {
	return func(c *config) { c.extractor = x }
}

// WithBackend sets the backend adapter.
func WithBackend(b ports.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithTemplates adds or replaces response templates by intent.
func WithTemplates(ts ...respond.Template) Option {
	return func(c *config) { c.templates = append(c.templates, ts...) }
}

// WithTemplateSource loads templates from src when the engine is created.
func WithTemplateSource(src ports.TemplateSource) Option {
	return func(c *config) { c.sources = append(c.sources, src) }
}

// WithTemplateDir loads templates from a directory of Markdown documents.
func WithTemplateDir(dir string) Option {
	return func(c *config) { c.templateDir = dir }
}

// WithRedactor replaces the default PII redactor.
func WithRedactor(r *redact.Redactor) Option {
	return func(c *config) { c.redactor = r }
}

// WithRequiredSlots replaces the required-slot table.
func WithRequiredSlots(table slots.RequiredTable) Option {
	return func(c *config) { c.required = table }
}

// WithClarifyThreshold sets the confidence below which the policy clarifies.
func WithClarifyThreshold(t float64) Option {
	return func(c *config) { c.clarifyThreshold = t }
}

// WithEscalateThreshold sets the confidence below which clarification becomes escalation.
func WithEscalateThreshold(t float64) Option {
	return func(c *config) { c.escalateThreshold = t }
}

// WithMaxFallbacks escalates once a session has fallen back n times in a row. Zero disables it.
func WithMaxFallbacks(n int) Option {
	return func(c *config) { c.maxFallbacks = n }
}

// WithHighRiskIntents replaces the set of intents that require confirmation.
func WithHighRiskIntents(intents ...string) Option {
	return func(c *config) { c.highRisk = intents }
}

// WithSensitiveKeywords replaces the keywords the safety gate refuses.
func WithSensitiveKeywords(kw ...string) Option {
	return func(c *config) { c.keywords = kw }
}

// WithHistoryWindow bounds the turns kept per session.
func WithHistoryWindow(n int) Option {
	return func(c *config) { c.historyWindow = n }
}

// WithIdleTTL expires sessions idle for longer than ttl when Sweep runs.
func WithIdleTTL(ttl time.Duration) Option {
	return func(c *config) { c.idleTTL = ttl }
}

// WithCollaboratorTimeout bounds each classifier, extractor and backend call.
func WithCollaboratorTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) { c.hooks = c.hooks.Merge(hooks) }
}

// WithObserver is notified of every committed turn.
func WithObserver(o ports.TurnObserver) Option {
	return func(c *config) { c.observers = append(c.observers, o) }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// New initializes a new Parley Engine.
func New(opts ...Option) (*Engine, error) {
	c := &config{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		c.store = memory.NewStore(memory.WithClock(c.now), memory.WithTTL(c.idleTTL))
	}
	store := middleware.Chain(c.store, c.middlewares...)

	generator, err := c.generator()
	if err != nil {
		return nil, err
	}

	redactor := c.redactor
	if redactor == nil {
		redactor = redact.Default()
	}

	fillerOpts := []slots.Option{slots.WithClock(c.now), slots.WithLogger(c.logger)}
	if c.required != nil {
		fillerOpts = append(fillerOpts, slots.WithRequired(c.required))
	}
	filler := slots.New(fillerOpts...)

	var policyOpts []policy.Option
	if c.clarifyThreshold > 0 {
		policyOpts = append(policyOpts, policy.WithClarifyThreshold(c.clarifyThreshold))
	}
	if c.highRisk != nil {
		policyOpts = append(policyOpts, policy.WithHighRisk(c.highRisk...))
	}

	var gateOpts []policy.GateOption
	if c.escalateThreshold > 0 {
		gateOpts = append(gateOpts, policy.WithEscalateThreshold(c.escalateThreshold))
	}
	if c.maxFallbacks > 0 {
		gateOpts = append(gateOpts, policy.WithMaxFallbacks(c.maxFallbacks))
	}
	if c.keywords != nil {
		gateOpts = append(gateOpts, policy.WithKeywords(c.keywords...))
	}

	sessionOpts := []session.Option{
		session.WithLogger(c.logger),
		session.WithClock(c.now),
		session.WithIdleTTL(c.idleTTL),
	}
	if c.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(c.locker))
	}
	if c.historyWindow > 0 {
		sessionOpts = append(sessionOpts, session.WithHistoryWindow(c.historyWindow))
	}
	sessions := session.NewManager(store, sessionOpts...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithClassifier(c.classifier),
		runtime.WithExtractor(c.extractor),
		runtime.WithBackend(c.backend),
		runtime.WithRedactor(redactor),
		runtime.WithFiller(filler),
		runtime.WithPolicy(policy.New(filler, policyOpts...)),
		runtime.WithGate(policy.NewGate(gateOpts...)),
		runtime.WithGenerator(generator),
		runtime.WithLifecycleHooks(c.hooks),
		runtime.WithLogger(c.logger),
		runtime.WithClock(c.now),
	}
	if c.hasTimeout {
		runtimeOpts = append(runtimeOpts, runtime.WithCollaboratorTimeout(c.timeout))
	}
	for _, o := range c.observers {
		runtimeOpts = append(runtimeOpts, runtime.WithObserver(o))
	}

	return &Engine{
		runtime:  runtime.NewEngine(sessions, runtimeOpts...),
		sessions: sessions,
		store:    store,
		logger:   c.logger,
	}, nil
}

func (c *config) generator() (*respond.Generator, error) {
	sources := c.sources
	if c.templateDir != "" {
		loader, err := loamAdapter.Open(c.templateDir)
		if err != nil {
			return nil, err
		}
		sources = append(sources, loader)
	}

	templates := make([]respond.Template, 0, len(c.templates))
	for _, src := range sources {
		ts, err := src.LoadTemplates(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
		templates = append(templates, ts...)
	}
	// Explicit templates win over loaded ones.
	templates = append(templates, c.templates...)

	return respond.New(respond.WithTemplates(templates...)), nil
}

// ProcessMessage runs one full turn for the session, creating it on first use.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message string) (domain.TurnResult, error) {
	return e.runtime.ProcessMessage(ctx, sessionID, message)
}

// GetSession returns a copy of the session or domain.ErrSessionNotFound.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.runtime.GetSession(ctx, sessionID)
}

// DeleteSession removes the session entirely.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.runtime.DeleteSession(ctx, sessionID)
}

// ListSessions summarises every live session, most recently active first.
func (e *Engine) ListSessions(ctx context.Context) ([]domain.Summary, error) {
	return e.runtime.ListSessions(ctx)
}

// Recent returns the last k turns of the session as "role: message" lines.
func (e *Engine) Recent(ctx context.Context, sessionID string, k int) (string, error) {
	return e.runtime.Recent(ctx, sessionID, k)
}

// Sweep expires idle sessions once and reports how many were removed.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	return e.sessions.Sweep(ctx)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	e.sessions.RunSweeper(ctx, interval)
}

// Store returns the session store, including any middlewares.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}

// Redactor returns the PII redactor applied to history and responses.
func (e *Engine) Redactor() *redact.Redactor {
	return e.runtime.Redactor()
}
