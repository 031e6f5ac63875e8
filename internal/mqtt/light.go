//go:build !no_mqtt

// Package mqtt drives a network light over MQTT. Every change publishes the
// full retained state as JSON to "<topic>/set"; availability is published to
// "<topic>/availability" with a last-will of "offline".
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"matter-go-light/internal/light"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// state publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// Config holds MQTT light configuration.
type Config struct {
	Broker   string        `yaml:"broker"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Topic    string        `yaml:"topic"`
	ClientID string        `yaml:"client_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// statePayload is the JSON state document.
type statePayload struct {
	State      string `json:"state"`
	Brightness int    `json:"brightness"`
	Hue        int    `json:"hue"`
	Saturation int    `json:"saturation"`
}

// Light is an MQTT-controlled light.
type Light struct {
	client  publisher
	topic   string
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	state  light.State
	closed bool
}

// New connects to the broker.
func New(cfg Config, logger *slog.Logger) (*Light, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "matter-go-light"
	}
	l := &Light{
		topic:   cfg.Topic,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "light", "backend", "mqtt"),
	}
	if l.timeout <= 0 {
		l.timeout = 5 * time.Second
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(l.availabilityTopic(), "offline", 1, true).
		SetOnConnectHandler(func(c pahomqtt.Client) {
			l.logger.Info("MQTT connected")
			c.Publish(l.availabilityTopic(), 1, true, "online")
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			l.logger.Warn("MQTT connection lost", "err", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	l.client = client
	return l, nil
}

func (l *Light) availabilityTopic() string { return l.topic + "/availability" }
func (l *Light) commandTopic() string      { return l.topic + "/set" }

func (l *Light) SetPower(on bool) error {
	return l.set(func(st *light.State) { st.On = on })
}

func (l *Light) SetBrightness(v int) error {
	return l.set(func(st *light.State) { st.Brightness = v })
}

func (l *Light) SetHue(v int) error {
	return l.set(func(st *light.State) { st.Hue = v })
}

func (l *Light) SetSaturation(v int) error {
	return l.set(func(st *light.State) { st.Saturation = v })
}

// State returns the last state the broker acknowledged.
func (l *Light) State() light.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// set publishes the changed state and keeps it only if the publish succeeds.
func (l *Light) set(fn func(*light.State)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return light.ErrClosed
	}

	next := l.state
	fn(&next)
	payload, err := json.Marshal(toPayload(next))
	if err != nil {
		return err
	}
	if err := l.publish(l.commandTopic(), payload); err != nil {
		return err
	}
	l.state = next
	return nil
}

func (l *Light) publish(topic string, payload any) error {
	token := l.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(l.timeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Close publishes "offline" and disconnects.
func (l *Light) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.publish(l.availabilityTopic(), "offline"); err != nil {
		l.logger.Warn("publish offline", "err", err)
	}
	l.client.Disconnect(1000)
	l.logger.Info("MQTT light stopped")
	return nil
}

func toPayload(st light.State) statePayload {
	p := statePayload{
		State:      "OFF",
		Brightness: st.Brightness,
		Hue:        st.Hue,
		Saturation: st.Saturation,
	}
	if st.On {
		p.State = "ON"
	}
	return p
}
