// Package logging builds the leveled loggers shared by the binaries.
package logging

import (
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to stdout with timestamps.
func New(prefix, level string) *log.Logger {
	return NewWithWriter(os.Stdout, prefix, level)
}

func NewWithWriter(w io.Writer, prefix, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Prefix:          prefix,
		ReportTimestamp: true,
	})
}

// Discard is for tests and for the TUI when no log file is configured.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel maps a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Std adapts the logger for APIs that want a *log.Logger from the standard
// library, such as chi's request logger and http.Server.ErrorLog.
func Std(logger *log.Logger) *stdlog.Logger {
	return logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
}
