//go:build !no_script

// Package script implements a light whose behaviour is written in Lua. The
// script defines any of the globals set_power(on), set_brightness(v),
// set_hue(v) and set_saturation(v); each is called when the attribute
// changes. A handler fails by raising an error or returning false and a
// message.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"matter-go-light/internal/light"
)

// ErrTimeout is returned when a handler runs longer than the configured timeout.
var ErrTimeout = errors.New("script timeout")

// Config holds script light settings.
type Config struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// Light runs light handlers in a sandboxed Lua VM. Calls are serialized.
type Light struct {
	mu      sync.Mutex
	L       *lua.LState
	state   light.State
	timeout time.Duration
	closed  bool
	logger  *slog.Logger
}

// New loads and runs the script file.
func New(cfg Config, logger *slog.Logger) (*Light, error) {
	code, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return NewFromString(string(code), cfg.Timeout, logger)
}

// NewFromString runs code as the light script.
func NewFromString(code string, timeout time.Duration, logger *slog.Logger) (*Light, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	l := &Light{
		timeout: timeout,
		logger:  logger.With("component", "light", "backend", "script"),
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: false})

	// Sandbox: remove dangerous libs and functions
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("debug", lua.LNil)
	L.SetGlobal("package", lua.LNil)

	registerLightModule(L, l)
	l.L = L

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)
	err := L.DoString(code)
	L.RemoveContext()
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("execute script: %w", timeoutErr(ctx, err))
	}

	l.logger.Info("script loaded", "handlers", strings.Join(l.handlers(), ","))
	return l, nil
}

var handlerNames = []string{"set_power", "set_brightness", "set_hue", "set_saturation"}

func (l *Light) handlers() []string {
	var names []string
	for _, name := range handlerNames {
		if _, ok := l.L.GetGlobal(name).(*lua.LFunction); ok {
			names = append(names, name)
		}
	}
	return names
}

func (l *Light) SetPower(on bool) error {
	return l.call("set_power", lua.LBool(on), func(st *light.State) { st.On = on })
}

func (l *Light) SetBrightness(v int) error {
	return l.call("set_brightness", lua.LNumber(v), func(st *light.State) { st.Brightness = v })
}

func (l *Light) SetHue(v int) error {
	return l.call("set_hue", lua.LNumber(v), func(st *light.State) { st.Hue = v })
}

func (l *Light) SetSaturation(v int) error {
	return l.call("set_saturation", lua.LNumber(v), func(st *light.State) { st.Saturation = v })
}

// State returns the state as of the last successful call.
func (l *Light) State() light.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// call runs the named handler if the script defines it. The state is
// updated before the call so light.state() sees the new value, and rolled
// back if the handler fails.
func (l *Light) call(name string, arg lua.LValue, apply func(*light.State)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return light.ErrClosed
	}

	prev := l.state
	apply(&l.state)

	fn, ok := l.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	l.L.SetContext(ctx)
	defer l.L.RemoveContext()

	if err := l.L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, arg); err != nil {
		l.state = prev
		return fmt.Errorf("%s: %w", name, timeoutErr(ctx, err))
	}
	ok2, msg := l.L.Get(-2), l.L.Get(-1)
	l.L.Pop(2)

	if ok2 == lua.LFalse {
		l.state = prev
		if msg == lua.LNil {
			return fmt.Errorf("%s: failed", name)
		}
		return fmt.Errorf("%s: %s", name, msg.String())
	}
	return nil
}

func timeoutErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// Close shuts down the VM.
func (l *Light) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.L.Close()
	return nil
}
