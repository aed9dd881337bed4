// Package process fulfils intents by running allow-listed local commands.
//
// Slots reach the command only through environment variables, never as
// arguments: PARLEY_INTENT, PARLEY_SLOTS (a JSON object) and one
// PARLEY_SLOT_<NAME> per slot. The command answers with a JSON object on stdout.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// ErrNotRegistered is returned for intents without a command and without a fallback backend.
var ErrNotRegistered = errors.New("no backend command registered for intent")

var envKeyRe = regexp.MustCompile(`[^A-Z0-9_]`)

// Backend implements ports.Backend over local processes.
// It follows a strict registry pattern: only registered commands run.
type Backend struct {
	registry map[string]registeredProcess
	baseDir  string
	fallback ports.Backend
}

type registeredProcess struct {
	command string
	args    []string
	env     map[string]string
}

var _ ports.Backend = (*Backend)(nil)

// Option configures the backend.
type Option func(*Backend)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(backends map[string]BackendConfig) Option {
	return func(b *Backend) {
		for intent, cfg := range backends {
			b.registry[intent] = registeredProcess{command: cfg.Command, args: cfg.Args, env: cfg.Environment}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(b *Backend) { b.baseDir = dir }
}

// WithFallback answers intents that have no registered command.
func WithFallback(fallback ports.Backend) Option {
	return func(b *Backend) { b.fallback = fallback }
}

// New creates a process backend.
func New(opts ...Option) *Backend {
	b := &Backend{registry: make(map[string]registeredProcess)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a trusted command for intent.
func (b *Backend) Register(intent, command string, args ...string) {
	b.registry[intent] = registeredProcess{command: command, args: args}
}

// Intents lists the intents with a registered command.
func (b *Backend) Intents() []string {
	out := make([]string, 0, len(b.registry))
	for intent := range b.registry {
		out = append(out, intent)
	}
	return out
}

// Query runs the command registered for intent.
func (b *Backend) Query(ctx context.Context, intent string, filled domain.Slots) (map[string]any, error) {
	proc, ok := b.registry[intent]
	if !ok {
		if b.fallback != nil {
			return b.fallback.Query(ctx, intent, filled)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, intent)
	}

	cmd := exec.CommandContext(ctx, proc.command, proc.args...)
	cmd.Dir = b.baseDir

	env, err := slotEnv(intent, filled)
	if err != nil {
		return nil, err
	}
	for k, v := range proc.env {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	trimmed := strings.TrimSpace(stdout.String())
	if strings.HasPrefix(trimmed, "{") {
		var result map[string]any
		if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
			return nil, fmt.Errorf("invalid JSON from %s: %w", intent, err)
		}
		return result, nil
	}

	// Plain text answers become a message field.
	return map[string]any{"message": trimmed}, nil
}

func slotEnv(intent string, filled domain.Slots) ([]string, error) {
	raw, err := json.Marshal(filled.Strings())
	if err != nil {
		return nil, fmt.Errorf("failed to encode slots: %w", err)
	}

	env := []string{
		"PARLEY_INTENT=" + intent,
		"PARLEY_SLOTS=" + string(raw),
	}
	for name, v := range filled {
		key := envKeyRe.ReplaceAllString(strings.ToUpper(name), "_")
		env = append(env, fmt.Sprintf("PARLEY_SLOT_%s=%s", key, v.String()))
	}
	return env, nil
}
