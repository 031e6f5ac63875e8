//go:build !no_mqtt

package main

import (
	"log/slog"

	"matter-go-light/internal/mqtt"
)

func newMQTTLight(cfg *Config, logger *slog.Logger) (lightBackend, error) {
	c := cfg.Light.MQTT
	logger.Info("using MQTT light", "broker", c.Broker, "topic", c.Topic)
	l, err := mqtt.New(mqtt.Config{
		Broker:   c.Broker,
		Username: c.Username,
		Password: c.Password,
		Topic:    c.Topic,
		ClientID: c.ClientID,
		Timeout:  c.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return l, nil
}
