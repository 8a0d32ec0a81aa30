package ld_api

import (
	"io"
	"log"
	"os"
)

var logger = log.New(os.Stderr, "", 0)

// SetLogOutput redirects the progress and warning messages of the package
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// MuteWarnings discards all progress and warning messages
func MuteWarnings() {
	SetLogOutput(io.Discard)
}
