// Package pwm drives an RGB LED from three Raspberry Pi PWM pins.
package pwm

import (
	"fmt"
	"log/slog"
	"sync"

	rpio "github.com/stianeikeland/go-rpio/v4"

	"matter-go-light/internal/light"
)

// cycleLen is the PWM period in clock ticks; one tick per 8-bit step.
const cycleLen = 255

// Config holds the BCM pin numbers and the PWM clock frequency in Hz.
type Config struct {
	RedPin   int `yaml:"red_pin"`
	GreenPin int `yaml:"green_pin"`
	BluePin  int `yaml:"blue_pin"`
	Freq     int `yaml:"freq"`
}

type pin interface {
	Mode(mode rpio.Mode)
	Freq(freq int)
	DutyCycle(dutyLen, cycleLen uint32)
}

// Light is an RGB LED on PWM pins.
type Light struct {
	mu      sync.Mutex
	state   light.State
	pins    [3]pin
	closed  bool
	release func() error
	logger  *slog.Logger
}

// New maps GPIO memory and configures the three pins for PWM output.
func New(cfg Config, logger *slog.Logger) (*Light, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("pwm light: open gpio: %w", err)
	}
	pins := [3]pin{rpio.Pin(cfg.RedPin), rpio.Pin(cfg.GreenPin), rpio.Pin(cfg.BluePin)}
	return newLight(pins, cfg.Freq, rpio.Close, logger), nil
}

func newLight(pins [3]pin, freq int, release func() error, logger *slog.Logger) *Light {
	for _, p := range pins {
		p.Mode(rpio.Pwm)
		p.Freq(freq)
		p.DutyCycle(0, cycleLen)
	}
	return &Light{
		pins:    pins,
		release: release,
		logger:  logger.With("component", "light", "backend", "pwm"),
	}
}

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

// State returns the last applied state.
func (l *Light) State() light.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Light) set(fn func(*light.State)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return light.ErrClosed
	}
	fn(&l.state)
	r, g, b := l.state.RGB()
	for i, duty := range []uint8{r, g, b} {
		l.pins[i].DutyCycle(uint32(duty), cycleLen)
	}
	l.logger.Debug("pwm duty", "r", r, "g", g, "b", b)
	return nil
}

// Close turns the LED off and releases GPIO memory.
func (l *Light) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for _, p := range l.pins {
		p.DutyCycle(0, cycleLen)
	}
	return l.release()
}
