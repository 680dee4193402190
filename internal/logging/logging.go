// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger for the given verbosity:
// 0 warn, 1 info, 2 debug, 3 and above trace.
func Setup(verbosity int) {
	SetupWriter(os.Stderr, verbosity, false)
}

// SetupWriter is Setup with an explicit destination. noColor disables ANSI
// colours in the console output.
func SetupWriter(w io.Writer, verbosity int, noColor bool) {
	zerolog.SetGlobalLevel(Level(verbosity))

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}
	logger := zerolog.New(console).With().Timestamp()
	if verbosity >= 2 {
		logger = logger.Caller()
	}
	log.Logger = logger.Logger()
}

// Level maps a verbosity count to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	}
	return zerolog.TraceLevel
}

// Get returns a logger tagged with the component name.
func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogCommand logs a command about to be executed.
func LogCommand(logger zerolog.Logger, name string, args []string) {
	logger.Debug().
		Str("command", name).
		Strs("args", args).
		Msg("Executing command")
}
