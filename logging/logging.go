// +build !logless

// Package logging provides the zerolog-backed logger shared by every core
// package. Build with the "logless" tag to silence it entirely.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. The core never writes to stdout/stderr
// directly; warnings about disconnected components and holdout frames that
// all fail to solve, and debug lines about camera pairs that bootstrap
// cannot pose, flow through here. The solver and the filters do not log.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Caller().Logger()

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
