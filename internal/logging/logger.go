// Package logging builds the zap loggers used by the binaries.
package logging

import (
	"go.uber.org/zap"
)

// New returns a zap logger. When debug is true it uses the development config
// (human-readable, debug level), otherwise the production config (JSON, info level).
// A non-empty file redirects output there; the chat UI owns the terminal.
func New(debug bool, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	if file != "" {
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	}
	return cfg.Build()
}
