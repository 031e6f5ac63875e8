// Package driver adapts attribute updates on the light endpoint to calls on
// a light peripheral, and provides the "driver" debug console command.
package driver

import (
	"errors"
	"iter"
	"log/slog"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/console"
	"matter-go-light/internal/zcl"
)

// DefaultLightEndpoint is the endpoint of the color dimmable light.
const DefaultLightEndpoint uint16 = 0x1001

var (
	// ErrInvalidArgument is returned for malformed console input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrValueType is returned when a mapped attribute carries the wrong value variant.
	ErrValueType = errors.New("unexpected value type")
)

// Tree is the attribute tree the driver reads and writes.
type Tree interface {
	All() iter.Seq2[attr.Path, zcl.Value]
	Get(p attr.Path) (zcl.Value, error)
	Update(p attr.Path, v zcl.Value) error
}

// Light is the peripheral being driven. Brightness and saturation are
// 0-100, hue is 0-360.
type Light interface {
	SetPower(on bool) error
	SetBrightness(v int) error
	SetHue(v int) error
	SetSaturation(v int) error
}

// CommandRegistry accepts console commands.
type CommandRegistry interface {
	Add(cmd console.Command) error
}

// Config holds driver settings.
type Config struct {
	LightEndpoint uint16
}

// Driver connects a Tree to a Light.
type Driver struct {
	tree   Tree
	light  Light
	cfg    Config
	logger *slog.Logger
}

// New creates a driver. A zero LightEndpoint selects DefaultLightEndpoint.
func New(tree Tree, light Light, cfg Config, logger *slog.Logger) *Driver {
	if cfg.LightEndpoint == 0 {
		cfg.LightEndpoint = DefaultLightEndpoint
	}
	return &Driver{
		tree:   tree,
		light:  light,
		cfg:    cfg,
		logger: logger.With("component", "driver"),
	}
}

// LightEndpoint returns the endpoint the driver acts on.
func (d *Driver) LightEndpoint() uint16 {
	return d.cfg.LightEndpoint
}

// Init drives the light to the tree's current state and registers the
// "driver" console command. A failed sync is logged, not returned.
func (d *Driver) Init(reg CommandRegistry) error {
	if err := d.SyncDefaults(); err != nil {
		d.logger.Error("sync defaults", "err", err)
	}
	return reg.Add(console.Command{
		Name:        "driver",
		Description: helpText,
		Handler:     d.HandleCommand,
	})
}
