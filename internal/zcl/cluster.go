package zcl

import (
	"fmt"
	"slices"
)

// Access flags
const (
	AccessRead   uint8 = 0x01
	AccessWrite  uint8 = 0x02
	AccessReport uint8 = 0x04
)

// AttributeDef defines a ZCL attribute.
type AttributeDef struct {
	ID      uint16 `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Type    uint8  `json:"type" yaml:"type"`
	Access  uint8  `json:"access" yaml:"access"` // bitmask: 1=read, 2=write, 4=reportable
	Default any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// IsReadable returns true if the attribute can be read.
func (a *AttributeDef) IsReadable() bool {
	return a.Access&AccessRead != 0
}

// IsWritable returns true if the attribute can be written.
func (a *AttributeDef) IsWritable() bool {
	return a.Access&AccessWrite != 0
}

// IsReportable returns true if the attribute supports reporting.
func (a *AttributeDef) IsReportable() bool {
	return a.Access&AccessReport != 0
}

// DefaultValue returns the attribute's declared default converted to its
// value variant, or the type's zero value when none is declared.
func (a *AttributeDef) DefaultValue() (Value, error) {
	if a.Default == nil {
		return Zero(a.Type)
	}
	return ValueOf(a.Type, a.Default)
}

// ClusterDef defines a ZCL cluster with its attributes.
type ClusterDef struct {
	ID         uint16         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Attributes []AttributeDef `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// FindAttribute looks up an attribute by ID.
func (c *ClusterDef) FindAttribute(id uint16) *AttributeDef {
	for i := range c.Attributes {
		if c.Attributes[i].ID == id {
			return &c.Attributes[i]
		}
	}
	return nil
}

// Clone returns a copy that shares no attribute storage with c.
func (c *ClusterDef) Clone() ClusterDef {
	cp := *c
	cp.Attributes = slices.Clone(c.Attributes)
	return cp
}

// Validate checks that attribute IDs are unique and every attribute has a
// usable value variant and default.
func (c *ClusterDef) Validate() error {
	seen := make(map[uint16]bool, len(c.Attributes))
	for i := range c.Attributes {
		a := &c.Attributes[i]
		if seen[a.ID] {
			return fmt.Errorf("cluster 0x%04X: duplicate attribute 0x%04X", c.ID, a.ID)
		}
		seen[a.ID] = true
		if _, err := a.DefaultValue(); err != nil {
			return fmt.Errorf("cluster 0x%04X attribute 0x%04X (%s): %w", c.ID, a.ID, a.Name, err)
		}
	}
	return nil
}

// merge adds the attributes of other that c does not define yet and adopts
// other's name when c has none. It reports how many attributes were added.
func (c *ClusterDef) merge(other ClusterDef) int {
	if c.Name == "" {
		c.Name = other.Name
	}
	added := 0
	for _, a := range other.Attributes {
		if c.FindAttribute(a.ID) == nil {
			c.Attributes = append(c.Attributes, a)
			added++
		}
	}
	return added
}
