package configs

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger. Loggers pulled from a
// context without one attached fall back to the global logger.
func InitLogger(service string) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(GetEnv("LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("RAILWAY_ENVIRONMENT") == "" && !GetEnvBool("LOG_JSON", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	log.Logger = log.With().Str("service", service).Logger()
	zerolog.DefaultContextLogger = &log.Logger
}
