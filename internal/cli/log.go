// Package cli implements the netdraw command-line interface.
//
// The commands cover the editor's file workflow (export, import, validate,
// convert), rendering with Graphviz, the diagram store, and the two long
// running front ends: the HTTP API (serve) and the MCP server (mcp). The CLI
// is built using cobra and logs with charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - export: Write the default document (or a stored one) to a file
//   - import: Read, validate and optionally store a diagram file
//   - render: Generate SVG, PNG or DOT output for a diagram page
//   - watch: Re-render a diagram whenever its file changes
//   - toolbar: Pick a tool from the interactive toolbar
//   - serve, mcp: Serve an editing session over HTTP or MCP
//   - store, cache: Manage stored diagrams and rendered artifacts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat is "HH:MM:SS" plus hundredths.
const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// logElapsed logs msg at info level with a "took" field measured from start.
func logElapsed(l *log.Logger, start time.Time, msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(start).Round(time.Millisecond))
	l.Info(msg, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command's logger, or log.Default() outside
// a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
