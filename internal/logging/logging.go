// Package logging constructs the process logger. Components receive a
// *log.Logger by injection; nothing in this package is global.
package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// New returns a logger writing to w (stderr when nil) at the given level.
// Unknown levels fall back to info. JSON output is for log collectors;
// the text formatter is the interactive default.
func New(level string, json bool, w io.Writer) *charmlog.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           parseLevel(level),
	})
	if json {
		logger.SetFormatter(charmlog.JSONFormatter)
	}
	return logger
}

// Nop returns a logger that discards everything, for tests.
func Nop() *charmlog.Logger {
	logger := charmlog.New(io.Discard)
	logger.SetLevel(charmlog.FatalLevel)
	return logger
}

func parseLevel(level string) charmlog.Level {
	switch level {
	case "debug":
		return charmlog.DebugLevel
	case "info", "":
		return charmlog.InfoLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
