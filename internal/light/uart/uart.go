// Package uart drives an LED controller that speaks a line protocol over a
// serial port. Each setter sends one command line ("POWER 1", "LEVEL 50",
// "HUE 120", "SAT 100") and waits for "OK" or "ERR <message>".
package uart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"matter-go-light/internal/light"
)

// ErrTimeout is returned when the controller does not answer in time.
var ErrTimeout = errors.New("uart light: reply timeout")

// Config holds serial port settings.
type Config struct {
	Port    string        `yaml:"port"`
	Baud    int           `yaml:"baud"`
	Timeout time.Duration `yaml:"timeout"`
}

type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Light is a serial LED controller.
type Light struct {
	mu      sync.Mutex
	port    port
	timeout time.Duration
	buf     []byte
	state   light.State
	closed  bool
	logger  *slog.Logger
}

// New opens the serial port.
func New(cfg Config, logger *slog.Logger) (*Light, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("uart light: open %s: %w", cfg.Port, err)
	}
	l, err := newLight(p, cfg.Timeout, logger)
	if err != nil {
		p.Close()
		return nil, err
	}
	return l, nil
}

func newLight(p port, timeout time.Duration, logger *slog.Logger) (*Light, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	// Short reads let readLine enforce the overall deadline.
	if err := p.SetReadTimeout(50 * time.Millisecond); err != nil {
		return nil, fmt.Errorf("uart light: set read timeout: %w", err)
	}
	return &Light{
		port:    p,
		timeout: timeout,
		logger:  logger.With("component", "light", "backend", "uart"),
	}, nil
}

func (l *Light) SetPower(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return l.command("POWER", v, func(st *light.State) { st.On = on })
}

func (l *Light) SetBrightness(v int) error {
	return l.command("LEVEL", v, func(st *light.State) { st.Brightness = v })
}

func (l *Light) SetHue(v int) error {
	return l.command("HUE", v, func(st *light.State) { st.Hue = v })
}

func (l *Light) SetSaturation(v int) error {
	return l.command("SAT", v, func(st *light.State) { st.Saturation = v })
}

// State returns the last state the controller acknowledged.
func (l *Light) State() light.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// command sends one line and waits for the reply. apply runs only on OK.
func (l *Light) command(name string, v int, apply func(*light.State)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return light.ErrClosed
	}

	line := fmt.Sprintf("%s %d\n", name, v)
	if _, err := l.port.Write([]byte(line)); err != nil {
		return fmt.Errorf("uart light: write %s: %w", name, err)
	}

	reply, err := l.readLine(time.Now().Add(l.timeout))
	if err != nil {
		return fmt.Errorf("uart light: %s: %w", name, err)
	}
	l.logger.Debug("uart command", "cmd", strings.TrimSpace(line), "reply", reply)

	switch {
	case reply == "OK":
		apply(&l.state)
		return nil
	case strings.HasPrefix(reply, "ERR"):
		return fmt.Errorf("uart light: %s rejected: %s", name, strings.TrimSpace(strings.TrimPrefix(reply, "ERR")))
	default:
		return fmt.Errorf("uart light: %s: unexpected reply %q", name, reply)
	}
}

// readLine returns the next non-empty line without its terminator. Bytes
// after the line stay buffered for the next call.
func (l *Light) readLine(deadline time.Time) (string, error) {
	chunk := make([]byte, 64)
	for {
		if i := bytes.IndexByte(l.buf, '\n'); i >= 0 {
			line := strings.TrimRight(string(l.buf[:i]), "\r")
			l.buf = l.buf[i+1:]
			if line == "" {
				continue
			}
			return line, nil
		}
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}
		n, err := l.port.Read(chunk)
		if err != nil {
			return "", err
		}
		l.buf = append(l.buf, chunk[:n]...)
	}
}

// Close closes the serial port.
func (l *Light) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.port.Close()
}
