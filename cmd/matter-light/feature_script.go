//go:build !no_script

package main

import (
	"log/slog"

	"matter-go-light/internal/script"
)

func newScriptLight(cfg *Config, logger *slog.Logger) (lightBackend, error) {
	logger.Info("using script light", "path", cfg.Light.Script.Path)
	l, err := script.New(script.Config{
		Path:    cfg.Light.Script.Path,
		Timeout: cfg.Light.Script.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return l, nil
}
