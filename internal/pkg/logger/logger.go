// Package logger configures the application's structured logging.
//
// Console output stays readable in development (short timestamp, colored
// levels) while production emits JSON lines suitable for log shipping.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02 15:04:05"

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}).
	With().Timestamp().Logger()

// Init configures the global logger from LOG_LEVEL and APP_MODE.
// Development uses the console writer, production plain JSON.
func Init(level, mode string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl := parseLevel(level, zerolog.InfoLevel)

	if mode == "production" {
		log = zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
		return
	}

	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}
	log = zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

func Info(msg string) {
	log.Info().Msg(msg)
}

func Debugf(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

// Fatalf logs the message and exits with status 1.
func Fatalf(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}

func parseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return def
	}
}
