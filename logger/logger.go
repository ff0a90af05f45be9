package logger

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu           sync.Mutex
	globalLogger *zerolog.Logger
)

// GetLogger returns the configured global logger. Code paths that run
// before New get an info-level console logger; once New has run its
// configuration is never overwritten.
func GetLogger() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		lg := newLogger(zerolog.InfoLevel, consoleWriter())
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		globalLogger = &lg
	}
	return globalLogger
}

// New constructs the global logger from level and format configuration.
func New(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, err
	}

	var lg zerolog.Logger
	switch strings.ToLower(format) {
	case "json":
		lg = newLogger(lvl, os.Stdout)
	case "console":
		lg = newLogger(lvl, consoleWriter())
	default:
		return zerolog.Logger{}, errors.New("unsupported log format")
	}

	zerolog.SetGlobalLevel(lvl)

	mu.Lock()
	globalLogger = &lg
	mu.Unlock()

	return lg, nil
}

func newLogger(lvl zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}
