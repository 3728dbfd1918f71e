package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger.
// Console output is used unless json is set.
func Setup(level string, json bool) {
	SetupWriter(os.Stderr, level, json)
}

// SetupWriter configures the global logger to write to w
func SetupWriter(w io.Writer, level string, json bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := w
	if !json {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if err != nil && level != "" {
		log.Warn().Str("level", level).Msg("Unknown log level, falling back to info")
	}
}
