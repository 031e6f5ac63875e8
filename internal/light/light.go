// Package light holds the peripheral side of the color light: the shared
// state model and colour math, and an in-memory simulated light. Hardware
// backends live in subpackages.
package light

import (
	"errors"
	"math"
)

// ErrClosed is returned by setters on a closed light.
var ErrClosed = errors.New("light closed")

// State is the light's output. Brightness and Saturation are 0-100, Hue is
// 0-360.
type State struct {
	On         bool `json:"state"`
	Brightness int  `json:"brightness"`
	Hue        int  `json:"hue"`
	Saturation int  `json:"saturation"`
}

// RGB returns the channel levels the state produces. Off is black.
func (s State) RGB() (r, g, b uint8) {
	if !s.On {
		return 0, 0, 0
	}
	return HSVToRGB(s.Hue, s.Saturation, s.Brightness)
}

// HSVToRGB converts hue 0-360, saturation and value 0-100 to 8-bit RGB.
// Out-of-range inputs are clamped; hue 360 equals hue 0.
func HSVToRGB(h, s, v int) (r, g, b uint8) {
	h = ((h % 360) + 360) % 360
	sf := float64(clamp(s, 0, 100)) / 100
	vf := float64(clamp(v, 0, 100)) / 100

	c := vf * sf
	hp := float64(h) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	m := vf - c

	var rf, gf, bf float64
	switch int(hp) {
	case 0:
		rf, gf, bf = c, x, 0
	case 1:
		rf, gf, bf = x, c, 0
	case 2:
		rf, gf, bf = 0, c, x
	case 3:
		rf, gf, bf = 0, x, c
	case 4:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	return to8(rf + m), to8(gf + m), to8(bf + m)
}

func to8(f float64) uint8 {
	return uint8(math.Round(f * 255))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
