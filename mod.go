// Package heirloom is the root of the custodial will ledger. It provides the
// logger and the metric collectors shared by every package.
package heirloom

import (
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "HEIRLOOM_LOG"

const defaultLevel = zerolog.InfoLevel

var logout = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// info and above. The level can be changed with the HEIRLOOM_LOG environment
// variable.
var Logger = zerolog.New(logout).
	Level(ParseLevel(os.Getenv(EnvLogLevel))).
	With().Timestamp().Logger().
	With().Caller().Logger()

// ParseLevel returns the logging level for the given name, or the default one
// when the name is unknown.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}

// PromCollectors exposes the Prometheus collectors of the packages. A package
// appends its collectors in its init function and the application decides
// where to register them.
var PromCollectors []prometheus.Collector
