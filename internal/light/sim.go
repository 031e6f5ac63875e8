package light

import (
	"log/slog"
	"sync"
)

// Sim is an in-memory light that logs every change.
type Sim struct {
	mu     sync.Mutex
	state  State
	closed bool
	logger *slog.Logger
}

// NewSim creates a simulated light, initially off.
func NewSim(logger *slog.Logger) *Sim {
	return &Sim{logger: logger.With("component", "light", "backend", "sim")}
}

// State returns a snapshot of the current output.
func (s *Sim) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sim) SetPower(on bool) error {
	return s.set(func(st *State) { st.On = on })
}

func (s *Sim) SetBrightness(v int) error {
	return s.set(func(st *State) { st.Brightness = v })
}

func (s *Sim) SetHue(v int) error {
	return s.set(func(st *State) { st.Hue = v })
}

func (s *Sim) SetSaturation(v int) error {
	return s.set(func(st *State) { st.Saturation = v })
}

func (s *Sim) set(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fn(&s.state)
	r, g, b := s.state.RGB()
	s.logger.Info("light state",
		"on", s.state.On, "brightness", s.state.Brightness,
		"hue", s.state.Hue, "saturation", s.state.Saturation,
		"rgb", []uint8{r, g, b})
	return nil
}

// Close marks the light closed. Later setters return ErrClosed.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
