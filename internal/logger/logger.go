package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger in prod and a human-readable console logger
// everywhere else.
func New(env string) zerolog.Logger {
	return newWithWriter(env, os.Stdout)
}

func newWithWriter(env string, w io.Writer) zerolog.Logger {
	if env == "prod" {
		return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
