//go:build no_script

package main

import (
	"errors"
	"log/slog"
)

func newScriptLight(_ *Config, _ *slog.Logger) (lightBackend, error) {
	return nil, errors.New("script light not available (built with no_script)")
}
