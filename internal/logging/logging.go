// Package logging builds the hclog logger shared by the CLI, the engine and the TUI.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options controls logger construction
type Options struct {
	Level  string // trace, debug, info, warn, error, off
	JSON   bool
	Output io.Writer // defaults to stderr
}

// New returns a named logger. Unknown levels fall back to warn.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "me3m",
		Output:     output,
		Level:      level,
		JSONFormat: opts.JSON,
	})
}

// Discard returns a logger that drops everything
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
