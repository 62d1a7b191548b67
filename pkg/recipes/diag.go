package recipes

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// The package-wide diagnostic logger for recipe task execution. The
// assembler forces it to trace level for the duration of each task run, so
// it keeps its own level independent of the global logger.
var (
	diagMu     sync.Mutex
	diagLevel  = zerolog.InfoLevel
	diagLogger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "recipes").Logger().Level(zerolog.InfoLevel)
)

// Diagnostics returns the diagnostic logger at its current level.
func Diagnostics() zerolog.Logger {
	diagMu.Lock()
	defer diagMu.Unlock()
	return diagLogger
}

// SetDiagnosticLevel sets the diagnostic logger level and returns the
// previous level so callers can restore it.
func SetDiagnosticLevel(level zerolog.Level) zerolog.Level {
	diagMu.Lock()
	defer diagMu.Unlock()
	previous := diagLevel
	diagLevel = level
	diagLogger = diagLogger.Level(level)
	return previous
}
