package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global logger exactly once. The level comes from
// the LOG_LEVEL environment variable when level is empty.
func Configure(level string, output io.Writer) {
	once.Do(func() {
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		parsed := zerolog.InfoLevel
		if level != "" {
			if lv, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
				parsed = lv
			}
		}
		zerolog.SetGlobalLevel(parsed)
		zerolog.TimeFieldFormat = time.RFC3339

		if output == nil {
			output = os.Stdout
		}
		base = zerolog.New(output).With().
			Timestamp().
			Str("service", "ayanamist").
			Logger()
	})
}

// L returns the global logger.
func L() *zerolog.Logger {
	Configure("", nil)
	return &base
}

// With returns a child logger carrying the given component name.
func With(component string) *zerolog.Logger {
	l := L().With().Str("component", component).Logger()
	return &l
}
