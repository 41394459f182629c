// Package cli implements the cratemover command-line interface.
//
// The CLI is built using cobra and logs through charmbracelet/log. Every
// command reads the puzzle from a file argument or standard input and runs it
// through the shared pipeline runner, so answers are cached across commands.
//
// # Commands
//
// The main commands are:
//   - solve: Run the instructions with one or both cranes and print the answer
//   - stacks: Show the initial stacks parsed from the diagram
//   - replay: Step through a simulation move by move
//   - serve: Expose the solver over HTTP
//   - cache, config: Inspect and manage local state
//
// # Logging
//
// Logs go to stderr, answers to stdout, so `cratemover solve -q` can be piped.
// --verbose (-v) or log.level = "debug" adds the pipeline and cache hook
// events. The logger rides on the command context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger: timestamped to the hundredth of a
// second, filtered at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command step, e.g. solving every requested policy.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time in milliseconds,
// e.g. "Solved 2 policies (3ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches the CLI logger to ctx; setup calls it for every command.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default()
// for commands run without setup (tests, completion).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
