// Package cli assembles the engine from configuration for the parley commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/offline"
	"github.com/aretw0/parley/pkg/adapters/process"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
)

// BuildOptions controls how BuildEngine wires the engine.
type BuildOptions struct {
	Config config.Config
	Logger *slog.Logger

	// Debug logs every turn through lifecycle hooks.
	Debug bool
	// CarryOver lets the offline classifier reuse the last intent for bare
	// slot answers. Only safe with a single conversation per process.
	CarryOver bool
	// Extra options are applied last.
	Extra []parley.Option
}

// Stack is an engine together with the resources it owns.
type Stack struct {
	Engine  *parley.Engine
	closers []func() error
}

// Close releases the store connection, if any.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// BuildEngine initializes an engine with standard CLI conventions: offline
// collaborators, allow-listed process backends over the mock bank, and the
// store and middlewares the configuration selects.
func BuildEngine(ctx context.Context, opts BuildOptions) (*Stack, error) {
	cfg := opts.Config
	logger := opts.Logger

	stack := &Stack{}
	engineOpts := []parley.Option{parley.WithLogger(logger)}

	// 1. Store
	if cfg.Redis.Addr != "" {
		ttl := cfg.Redis.TTL
		if ttl == 0 {
			ttl = cfg.SessionTTL
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(ttl),
		)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		stack.closers = append(stack.closers, rs.Close)
		engineOpts = append(engineOpts,
			parley.WithStore(rs),
			parley.WithLocker(redis.NewLocker(rs.Client(), cfg.Redis.Prefix+"lock:")),
		)
	} else {
		engineOpts = append(engineOpts, parley.WithStore(memory.NewStore(
			memory.WithTTL(cfg.SessionTTL),
			memory.WithMaxSessions(cfg.MaxSessions),
		)))
	}

	// 2. Store middlewares: scrub first, then seal.
	mws := []middleware.Middleware{middleware.NewPIIMiddleware(nil, cfg.MaskSlots)}
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	engineOpts = append(engineOpts, parley.WithStoreMiddleware(mws...))

	// 3. Collaborators
	var classifierOpts []offline.ClassifierOption
	if opts.CarryOver {
		classifierOpts = append(classifierOpts, offline.WithCarryOver())
	}
	backend, err := buildBackend(cfg.BackendsFile)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts,
		parley.WithClassifier(offline.NewKeywordClassifier(classifierOpts...)),
		parley.WithExtractor(offline.NewPatternExtractor()),
		parley.WithBackend(backend),
	)

	// 4. Templates, only when the directory exists.
	if cfg.TemplatesDir != "" {
		if _, err := os.Stat(cfg.TemplatesDir); err == nil {
			engineOpts = append(engineOpts, parley.WithTemplateDir(cfg.TemplatesDir))
		} else {
			logger.Debug("Templates directory not found, using built-in templates", "dir", cfg.TemplatesDir)
		}
	}

	// 5. Policy
	engineOpts = append(engineOpts,
		parley.WithHistoryWindow(cfg.HistoryWindow),
		parley.WithIdleTTL(cfg.SessionTTL),
		parley.WithClarifyThreshold(cfg.ClarifyThreshold),
		parley.WithEscalateThreshold(cfg.EscalateThreshold),
		parley.WithMaxFallbacks(cfg.MaxFallbacks),
		parley.WithCollaboratorTimeout(cfg.CollaboratorTimeout),
	)

	if opts.Debug {
		engineOpts = append(engineOpts, parley.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	engineOpts = append(engineOpts, opts.Extra...)

	engine, err := parley.New(engineOpts...)
	if err != nil {
		stack.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	stack.Engine = engine
	return stack, nil
}

// buildBackend registers the commands in path over the mock bank.
// Commands run from the directory holding the backends file.
func buildBackend(path string) (ports.Backend, error) {
	bank := offline.NewBank()
	if path == "" {
		return bank, nil
	}
	backends, err := process.LoadBackends(path)
	if err != nil {
		return nil, err
	}
	return process.New(
		process.WithRegistry(backends),
		process.WithBaseDir(filepath.Dir(path)),
		process.WithFallback(bank),
	), nil
}
