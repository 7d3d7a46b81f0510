package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the logger options the service sets at startup.
type Config struct {
	Level       string
	Pretty      bool
	ServiceName string
}

var (
	// Plain JSON on stdout until Init runs.
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
	once   sync.Once
)

// Init configures the global logger. Call once at service startup; later
// calls are no-ops.
func Init(cfg Config) {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if cfg.Pretty {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		}

		lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}

		logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
		if cfg.ServiceName != "" {
			logger = logger.With().Str(FieldService, cfg.ServiceName).Logger()
		}
		global = logger
	})
}

// L returns the global logger.
func L() zerolog.Logger {
	return global
}
