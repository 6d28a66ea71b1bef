package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/alecthomas/kong"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/tasq/internal/config"
	"github.com/semmy-space/tasq/internal/output"
	"github.com/semmy-space/tasq/internal/store"
)

// shutdownTimeout bounds how long pending credential writes may delay exit
const shutdownTimeout = 5 * time.Second

// Options configures Execute
type Options struct {
	Version string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewParser builds the kong parser for c
func NewParser(c *CLI, opts Options, extra ...kong.Option) (*kong.Kong, error) {
	kopts := []kong.Option{
		kong.Name("tasq"),
		kong.Description("Client for the task processing service"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": opts.Version,
		},
	}
	if opts.Stdout != nil && opts.Stderr != nil {
		kopts = append(kopts, kong.Writers(opts.Stdout, opts.Stderr))
	}
	return kong.New(c, append(kopts, extra...)...)
}

// Execute parses args, runs the selected command and returns the process
// exit code. Shell completion requests are answered before parsing.
func Execute(ctx context.Context, args []string, opts Options) int {
	c := &CLI{stdin: opts.Stdin, stdout: opts.Stdout, stderr: opts.Stderr}
	errFormatter := output.NewWriter("plain", c.errWriter(), c.errWriter())

	parser, err := NewParser(c, opts)
	if err != nil {
		return output.ExitWithError(errFormatter, err)
	}

	kongplete.Complete(parser,
		kongplete.WithPredictor("store", complete.PredictSet(store.Kinds...)),
		kongplete.WithPredictor("level", complete.PredictSet("trace", "debug", "info", "warn", "error")),
		kongplete.WithPredictor("configkey", complete.PredictSet(config.ValidKeys()...)),
	)

	kctx, err := parser.Parse(args)
	if err != nil {
		var (
			cliErr   *output.CLIError
			parseErr *kong.ParseError
		)
		if errors.As(err, &cliErr) {
			// failed in AfterApply, not a usage problem
			return output.ExitWithError(errFormatter, cliErr)
		}
		if errors.As(err, &parseErr) {
			errFormatter.PrintError(err)
			if parseErr.Context != nil {
				parseErr.Context.PrintUsage(true)
			}
			return output.ExitUsage
		}
		return output.ExitWithError(errFormatter, mapError(err))
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	runErr := kctx.Run()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if c.provider != nil {
		if err := c.provider.Close(shutdownCtx); err != nil {
			errFormatter.PrintError(err)
		}
	}

	if runErr != nil {
		return output.ExitWithError(errFormatter, mapError(runErr))
	}
	return output.ExitOK
}

func (c *CLI) errWriter() io.Writer {
	if c.stderr == nil {
		return io.Discard
	}
	return c.stderr
}
