// Package ui provides terminal styling, markdown rendering and logger setup
// for the partsbin CLI.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// InitLogger initializes the charm logger with default settings. Logs go
// to stderr so command output and the MCP stream stay clean.
func InitLogger() {
	SetLogOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	log.SetReportCaller(false)
	log.SetReportTimestamp(false)
}

// SetLogOutput redirects the logger.
func SetLogOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetDebug enables debug logging, with caller locations.
func SetDebug(enabled bool) {
	if enabled {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	} else {
		log.SetLevel(log.InfoLevel)
		log.SetReportCaller(false)
	}
}
