package di

import (
	"os"

	"github.com/rs/zerolog"
)

// ProvideLogger creates a zerolog.Logger configured for the runtime
// environment: console format with colors in a terminal, plain JSON in CI.
func ProvideLogger() zerolog.Logger {
	if os.Getenv("CI") != "" {
		return zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
