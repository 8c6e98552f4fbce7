package core

import (
	"io"

	"github.com/rs/zerolog"
)

// Component names used in the "component" field of every log line.
const (
	compI2C        = "i2c"
	compMD25       = "md25"
	compLimit      = "limit"
	compLED        = "led"
	compSupervisor = "supervisor"
	compConsole    = "console"
)

// logger is the global core logger. Disabled until platform code sets one.
var logger = zerolog.Nop()

// SetLogger replaces the core logger
func SetLogger(l zerolog.Logger) {
	logger = l
}

// SetLogOutput sends JSON log lines to w (a UART on the target).
func SetLogOutput(w io.Writer) {
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// Logger returns the current core logger
func Logger() *zerolog.Logger {
	return &logger
}

func logFor(component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
