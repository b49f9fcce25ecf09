// +build logless

package logging

import "github.com/rs/zerolog"

// Log discards everything when built with the "logless" tag, letting an
// embedding application (a GUI, a batch runner) silence the core without
// touching call sites.
var Log = zerolog.Nop()
