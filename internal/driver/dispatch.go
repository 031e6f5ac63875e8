package driver

import (
	"fmt"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/zcl"
	"matter-go-light/internal/zcl/clusters"
)

// Remap ranges: attribute values are 0-255.
const (
	attrMax       = 255
	brightnessMax = 100
	hueMax        = 360
	saturationMax = 100
)

// Remap rescales v from 0..externalMax to 0..internalMax, rounding to the
// nearest integer (halves round up).
func Remap(v, externalMax, internalMax int) int {
	return (v*internalMax + externalMax/2) / externalMax
}

// Update forwards a value on the light endpoint to the peripheral. Paths the
// driver does not handle are ignored. It has the attr.UpdateHook signature.
func (d *Driver) Update(p attr.Path, v zcl.Value) error {
	if p.Endpoint != d.cfg.LightEndpoint {
		return nil
	}

	switch {
	case p.Cluster == clusters.OnOffID && p.Attribute == clusters.AttrOnOff:
		on, ok := v.(zcl.Bool)
		if !ok {
			return valueTypeError(p, v, "bool")
		}
		return d.light.SetPower(bool(on))

	case p.Cluster == clusters.LevelControlID && p.Attribute == clusters.AttrCurrentLevel:
		level, ok := v.(zcl.Uint8)
		if !ok {
			return valueTypeError(p, v, "uint8")
		}
		return d.light.SetBrightness(Remap(int(level), attrMax, brightnessMax))

	case p.Cluster == clusters.ColorControlID && p.Attribute == clusters.AttrCurrentHue:
		hue, ok := v.(zcl.Uint8)
		if !ok {
			return valueTypeError(p, v, "uint8")
		}
		return d.light.SetHue(Remap(int(hue), attrMax, hueMax))

	case p.Cluster == clusters.ColorControlID && p.Attribute == clusters.AttrCurrentSaturation:
		sat, ok := v.(zcl.Uint8)
		if !ok {
			return valueTypeError(p, v, "uint8")
		}
		return d.light.SetSaturation(Remap(int(sat), attrMax, saturationMax))
	}
	return nil
}

func valueTypeError(p attr.Path, v zcl.Value, want string) error {
	return fmt.Errorf("%s: want %s, got %T: %w", p, want, v, ErrValueType)
}
