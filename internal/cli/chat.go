package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
)

// ChatOptions configures RunChat.
type ChatOptions struct {
	SessionID string
	In        io.Reader
	Out       io.Writer
	// Interactive enables the banner and Markdown rendering.
	Interactive bool
	Debug       bool
	Logger      *slog.Logger
}

// RunChat runs the REPL over d until the user leaves or ctx is done.
func RunChat(ctx context.Context, d ports.Dialogue, opts ChatOptions) error {
	runnerOpts := []runner.Option{
		runner.WithSessionID(opts.SessionID),
		runner.WithDebug(opts.Debug),
	}
	if opts.In != nil && opts.Out != nil {
		runnerOpts = append(runnerOpts, runner.WithIO(opts.In, opts.Out))
	}
	if opts.Logger != nil {
		runnerOpts = append(runnerOpts, runner.WithLogger(opts.Logger))
	}
	if opts.Interactive {
		runnerOpts = append(runnerOpts,
			runner.WithBanner(tui.Banner()),
			runner.WithRenderer(tui.NewRenderer()),
		)
	} else {
		runnerOpts = append(runnerOpts,
			runner.WithRenderer(tui.Plain),
			runner.WithPrompt(""),
		)
	}

	r := runner.New(runner.Chain(d, runner.Sanitize()), runnerOpts...)
	return r.Run(ctx)
}
