package store

import (
	"errors"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/zcl"
)

// ErrNotFound is returned when a requested entity does not exist in the store.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface.
type Store interface {
	SaveAttribute(p attr.Path, v zcl.Value) error
	GetAttribute(p attr.Path) (zcl.Value, error)
	DeleteAttribute(p attr.Path) error
	LoadAttributes() (map[attr.Path]zcl.Value, error)

	// Close the store
	Close() error
}
