package attr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for paths that do not exist in the tree.
	ErrNotFound = errors.New("attribute not found")
	// ErrTypeMismatch is returned when a value variant does not fit the attribute type.
	ErrTypeMismatch = errors.New("value type does not match attribute")
)

// Path identifies one attribute in the tree.
type Path struct {
	Endpoint  uint16 `json:"endpoint"`
	Cluster   uint16 `json:"cluster"`
	Attribute uint16 `json:"attribute"`
}

func (p Path) String() string {
	return fmt.Sprintf("0x%04X/0x%04X/0x%04X", p.Endpoint, p.Cluster, p.Attribute)
}
