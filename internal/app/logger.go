package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"taskdesk/internal/server"
)

// NewLogger returns the JSON logger used until the config is known.
func NewLogger() zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()
}

// ConfigureLogger sets the level for env and switches local runs to the
// console writer.
func ConfigureLogger(logger zerolog.Logger, env string) (zerolog.Logger, error) {
	w := io.Writer(os.Stdout)
	switch env {
	case server.EnvDev:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case server.EnvProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case server.EnvLocal:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		w = consoleWriter
	default:
		return logger, fmt.Errorf("unknown env: %s", env)
	}

	logger = logger.Output(w)
	logger.Info().
		Str("env", env).
		Msg("initialized application logger")
	return logger, nil
}
