package config

import (
	"fmt"
	"os"
)

// Exitf reports a fatal startup error on stderr and terminates the
// process with status 1. Reserved for binary mains; everything below the
// entrypoint returns errors instead of exiting.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
