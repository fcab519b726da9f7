package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// devはコンソール向け、それ以外はJSONで1行ずつ出す
func New(env string, level string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if env != "prod" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "ecshop").
		Logger()
}
