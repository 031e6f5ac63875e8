//go:build no_mqtt

package main

import (
	"errors"
	"log/slog"
)

func newMQTTLight(_ *Config, _ *slog.Logger) (lightBackend, error) {
	return nil, errors.New("mqtt light not available (built with no_mqtt)")
}
