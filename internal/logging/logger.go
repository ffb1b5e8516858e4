// README: zerolog construction shared by the API and CLI commands.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger tagged with component. format "console" switches to the human writer.
func New(component, level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, component, level, format)
}

func NewWithWriter(w io.Writer, component, level, format string) zerolog.Logger {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
}
