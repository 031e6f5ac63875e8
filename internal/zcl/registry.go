package zcl

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Registry holds the cluster definitions endpoints are built from.
type Registry struct {
	mu       sync.RWMutex
	clusters map[uint16]ClusterDef
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		clusters: make(map[uint16]ClusterDef),
		logger:   logger,
	}
}

// Register validates c and adds it. When the ID is already registered the
// definitions are merged: attributes the registry already knows keep their
// definition, new ones are appended. The registry is unchanged on error.
func (r *Registry) Register(c ClusterDef) error {
	if err := c.Validate(); err != nil {
		return err
	}
	id := fmt.Sprintf("0x%04X", c.ID)

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.clusters[c.ID]
	if !ok {
		r.clusters[c.ID] = c.Clone()
		r.logger.Debug("cluster registered", "id", id, "name", c.Name, "attributes", len(c.Attributes))
		return nil
	}
	merged := existing.Clone()
	added := merged.merge(c)
	r.clusters[c.ID] = merged
	r.logger.Debug("cluster merged", "id", id, "name", merged.Name, "added", added)
	return nil
}

// Get returns a copy of the cluster definition, or nil if the ID is unknown.
func (r *Registry) Get(id uint16) *ClusterDef {
	r.mu.RLock()
	c, ok := r.clusters[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	c = c.Clone()
	return &c
}

// All returns copies of every definition in ascending ID order.
func (r *Registry) All() []ClusterDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]ClusterDef, 0, len(r.clusters))
	for _, c := range r.clusters {
		result = append(result, c.Clone())
	}
	slices.SortFunc(result, func(a, b ClusterDef) int { return cmp.Compare(a.ID, b.ID) })
	return result
}

// Len returns the number of registered clusters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clusters)
}
