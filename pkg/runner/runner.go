package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/ports"
)

// ContentRenderer transforms a bot reply before it is written, e.g. Markdown to ANSI.
type ContentRenderer func(string) (string, error)

// Runner is the interactive chat loop over a Dialogue.
type Runner struct {
	dialogue  ports.Dialogue
	sessionID string
	input     io.Reader
	output    io.Writer
	renderer  ContentRenderer
	prompt    string
	banner    string
	debug     bool
	logger    *slog.Logger
}

// Option configures the Runner.
type Option func(*Runner)

// WithSessionID sets the conversation to continue or create.
func WithSessionID(id string) Option {
	return func(r *Runner) { r.sessionID = id }
}

// WithIO sets the input and output streams. Defaults are Stdin and Stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.input = in
		r.output = out
	}
}

// WithRenderer sets the reply renderer.
func WithRenderer(fn ContentRenderer) Option {
	return func(r *Runner) { r.renderer = fn }
}

// WithPrompt sets the input prompt.
func WithPrompt(p string) Option {
	return func(r *Runner) { r.prompt = p }
}

// WithBanner prints text once before the first prompt.
func WithBanner(text string) Option {
	return func(r *Runner) { r.banner = text }
}

// WithDebug prints intent, confidence, action and state after every reply.
func WithDebug(on bool) Option {
	return func(r *Runner) { r.debug = on }
}

// WithLogger sets the logger for rejected or failed turns.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner.
func New(d ports.Dialogue, opts ...Option) *Runner {
	r := &Runner{
		dialogue: d,
		input:    os.Stdin,
		output:   os.Stdout,
		prompt:   "> ",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the conversation the runner talks to.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// Run reads one message per line until EOF, "exit" or "quit", or until ctx is done.
// Rejected input is reported and the loop continues; other errors end it.
func (r *Runner) Run(ctx context.Context) error {
	if r.sessionID == "" {
		return errors.New("session id must be set")
	}
	lines := bufio.NewScanner(r.input)

	if r.banner != "" {
		fmt.Fprintln(r.output, r.banner)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.output, r.prompt)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}

		text := strings.TrimSpace(lines.Text())
		switch text {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(r.output, "Bye!")
			return nil
		}

		res, err := r.dialogue.ProcessMessage(ctx, r.sessionID, text)
		if err != nil {
			if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) || errors.Is(err, ErrEmptyInput) {
				r.logger.Debug("input rejected", "session_id", r.sessionID, "err", err)
				fmt.Fprintln(r.output, "Sorry, I can't read that message.")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("turn failed: %w", err)
		}

		out := res.Response
		if r.renderer != nil {
			if rendered, err := r.renderer(out); err == nil {
				out = rendered
			}
		}
		fmt.Fprintln(r.output, strings.TrimSpace(out))

		if r.debug {
			fmt.Fprintf(r.output, "  [intent=%s confidence=%.2f action=%s state=%s]\n", res.Intent, res.Confidence, res.Action, res.State)
		}
	}
}
