// Package clusters holds the standard cluster definitions used by the light.
package clusters

import (
	"fmt"

	"matter-go-light/internal/zcl"
)

// Cluster IDs
const (
	BasicID        uint16 = 0x0000
	IdentifyID     uint16 = 0x0003
	GroupsID       uint16 = 0x0004
	OnOffID        uint16 = 0x0006
	LevelControlID uint16 = 0x0008
	ColorControlID uint16 = 0x0300
)

// Attribute IDs the light driver acts on.
const (
	AttrOnOff             uint16 = 0x0000 // On/Off
	AttrCurrentLevel      uint16 = 0x0000 // Level Control
	AttrCurrentHue        uint16 = 0x0000 // Color Control
	AttrCurrentSaturation uint16 = 0x0001 // Color Control
)

// Standard lists the clusters a color dimmable light node is built from.
var Standard = []zcl.ClusterDef{Basic, Identify, Groups, OnOff, LevelControl, ColorControl}

// RegisterStandard registers every cluster in Standard.
func RegisterStandard(r *zcl.Registry) error {
	for _, c := range Standard {
		if err := r.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", c.Name, err)
		}
	}
	return nil
}
