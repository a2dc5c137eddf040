// pkg/logging/logging.go
// Package logging centralizes zerolog configuration for the CLI and
// the engine's component loggers.
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logWriter stores the current log writer globally
var logWriter io.Writer

// init sets the global logging level for zerolog to ErrorLevel by default
func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logWriter = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// ConfigureGlobal applies a zerolog level to the global logger. Caller
// information is included at debug and below.
func ConfigureGlobal(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(logWriter).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	// Route stdlog (used by some dependencies) through zerolog.
	stdLog.SetFlags(0)
	stdLog.SetOutput(stdLogWriter{})
}

// ConfigureGlobalLogging configures the global logging settings from a
// level string ("trace", "debug", "info", ...).
func ConfigureGlobalLogging(levelStr string) error {
	ConfigureGlobal(parseLogLevel(levelStr))
	return nil
}

// Configure applies a full logging configuration: level, output format
// ("json" for raw zerolog lines, anything else for the console writer),
// and an optional log file appended to instead of stderr.
func Configure(level, format, filePath string) error {
	var out io.Writer = os.Stderr
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file %q: %w", filePath, err)
		}
		out = f
	}

	if format == "json" {
		logWriter = out
	} else {
		logWriter = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    filePath != "",
		}
	}

	ConfigureGlobal(parseLogLevel(level))
	return nil
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "error"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}

// SetLogWriter sets the global log writer. Call before ConfigureGlobal.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// stdLogWriter forwards stdlog lines to the global zerolog logger at
// debug level.
type stdLogWriter struct{}

func (stdLogWriter) Write(p []byte) (int, error) {
	log.Debug().Msg(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
