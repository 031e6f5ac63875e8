package attr

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"matter-go-light/internal/zcl"
)

// Option configures Build.
type Option func(*Node)

// WithPersister restores values from p at build time and saves every
// committed update to it.
func WithPersister(p Persister) Option {
	return func(n *Node) {
		n.persister = p
	}
}

// WithLogger sets the tree's logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Node) {
		n.logger = l
	}
}

// WithEventBus sets the bus update events are emitted on.
func WithEventBus(eb *EventBus) Option {
	return func(n *Node) {
		n.events = eb
	}
}

// Build instantiates a tree from a node definition. Cluster definitions come
// from the registry; every attribute starts at its definition default, then
// node-level overrides, then any persisted value.
func Build(def NodeDef, registry *zcl.Registry, opts ...Option) (*Node, error) {
	n := &Node{
		index:  make(map[Path]*Attribute),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.events == nil {
		n.events = NewEventBus(n.logger)
	}

	seenEP := make(map[uint16]bool)
	for _, epDef := range def.Endpoints {
		if seenEP[epDef.ID] {
			return nil, fmt.Errorf("duplicate endpoint 0x%04X", epDef.ID)
		}
		seenEP[epDef.ID] = true

		ep := &Endpoint{ID: epDef.ID, Name: epDef.Name, DeviceType: epDef.DeviceType}
		for _, ci := range epDef.Clusters {
			c, err := n.buildCluster(ep, ci, registry)
			if err != nil {
				return nil, err
			}
			ep.clusters = append(ep.clusters, c)
		}
		slices.SortFunc(ep.clusters, func(a, b *Cluster) int { return cmp.Compare(a.ID, b.ID) })
		n.endpoints = append(n.endpoints, ep)
	}
	slices.SortFunc(n.endpoints, func(a, b *Endpoint) int { return cmp.Compare(a.ID, b.ID) })

	if n.persister != nil {
		if err := n.restore(); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Node) buildCluster(ep *Endpoint, ci ClusterInstance, registry *zcl.Registry) (*Cluster, error) {
	cdef := registry.Get(ci.ID)
	if cdef == nil {
		return nil, fmt.Errorf("endpoint 0x%04X: unknown cluster 0x%04X", ep.ID, ci.ID)
	}
	for _, c := range ep.clusters {
		if c.ID == ci.ID {
			return nil, fmt.Errorf("endpoint 0x%04X: duplicate cluster 0x%04X", ep.ID, ci.ID)
		}
	}

	for attrID := range ci.Attributes {
		if cdef.FindAttribute(attrID) == nil {
			return nil, fmt.Errorf("endpoint 0x%04X cluster 0x%04X: unknown attribute 0x%04X", ep.ID, ci.ID, attrID)
		}
	}

	c := &Cluster{ID: cdef.ID, Name: cdef.Name}
	for _, adef := range cdef.Attributes {
		p := Path{Endpoint: ep.ID, Cluster: cdef.ID, Attribute: adef.ID}

		var (
			v   zcl.Value
			err error
		)
		if override, ok := ci.Attributes[adef.ID]; ok {
			v, err = zcl.ValueOf(adef.Type, override)
		} else {
			v, err = adef.DefaultValue()
		}
		if err != nil {
			return nil, fmt.Errorf("%s (%s): %w", p, adef.Name, err)
		}

		a := &Attribute{node: n, path: p, def: adef, value: v}
		c.attrs = append(c.attrs, a)
		n.index[p] = a
	}
	slices.SortFunc(c.attrs, func(a, b *Attribute) int { return cmp.Compare(a.path.Attribute, b.path.Attribute) })
	return c, nil
}

// restore applies persisted values. Entries for paths that no longer exist
// or whose type changed are skipped.
func (n *Node) restore() error {
	saved, err := n.persister.LoadAttributes()
	if err != nil {
		return fmt.Errorf("load persisted attributes: %w", err)
	}
	restored := 0
	for p, v := range saved {
		a, ok := n.index[p]
		if !ok {
			n.logger.Warn("persisted attribute not in tree", "path", p.String())
			continue
		}
		if !zcl.Compatible(a.def.Type, v) {
			n.logger.Warn("persisted attribute type changed", "path", p.String(), "type", zcl.TypeName(a.def.Type))
			continue
		}
		a.value = v
		restored++
	}
	n.logger.Info("attributes restored", "count", restored)
	return nil
}
