// Package attr implements the node/endpoint/cluster/attribute tree that
// holds the device's attribute values.
package attr

import (
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"matter-go-light/internal/zcl"
)

// UpdateHook is called before a value is committed. Returning an error
// aborts the update. Hooks run with updates serialized and must not call
// Update themselves.
type UpdateHook func(Path, zcl.Value) error

// Persister stores attribute values across restarts.
type Persister interface {
	SaveAttribute(p Path, v zcl.Value) error
	LoadAttributes() (map[Path]zcl.Value, error)
}

// Node is the root of the attribute tree.
type Node struct {
	mu        sync.RWMutex // guards attribute values
	updateMu  sync.Mutex   // serializes Update and hook registration
	endpoints []*Endpoint
	index     map[Path]*Attribute
	hooks     []UpdateHook
	persister Persister
	events    *EventBus
	logger    *slog.Logger
}

// Endpoint is one logical device on the node.
type Endpoint struct {
	ID         uint16
	Name       string
	DeviceType uint16
	clusters   []*Cluster
}

// Cluster is a cluster instance on an endpoint.
type Cluster struct {
	ID    uint16
	Name  string
	attrs []*Attribute
}

// Attribute is a single attribute instance.
type Attribute struct {
	node  *Node
	path  Path
	def   zcl.AttributeDef
	value zcl.Value
}

// Endpoints iterates endpoints in ascending ID order.
func (n *Node) Endpoints() iter.Seq[*Endpoint] {
	return func(yield func(*Endpoint) bool) {
		for _, ep := range n.endpoints {
			if !yield(ep) {
				return
			}
		}
	}
}

// Endpoint returns the endpoint with the given ID, or nil.
func (n *Node) Endpoint(id uint16) *Endpoint {
	for _, ep := range n.endpoints {
		if ep.ID == id {
			return ep
		}
	}
	return nil
}

// Clusters iterates the endpoint's clusters in ascending ID order.
func (e *Endpoint) Clusters() iter.Seq[*Cluster] {
	return func(yield func(*Cluster) bool) {
		for _, c := range e.clusters {
			if !yield(c) {
				return
			}
		}
	}
}

// Attributes iterates the cluster's attributes in ascending ID order.
func (c *Cluster) Attributes() iter.Seq[*Attribute] {
	return func(yield func(*Attribute) bool) {
		for _, a := range c.attrs {
			if !yield(a) {
				return
			}
		}
	}
}

func (a *Attribute) ID() uint16            { return a.path.Attribute }
func (a *Attribute) Path() Path            { return a.path }
func (a *Attribute) Def() zcl.AttributeDef { return a.def }

// Value returns the attribute's current value.
func (a *Attribute) Value() zcl.Value {
	a.node.mu.RLock()
	defer a.node.mu.RUnlock()
	return a.value
}

// All iterates every attribute value, endpoint by endpoint, cluster by
// cluster. Values are snapshotted when iteration starts, so the caller may
// update the tree while ranging.
func (n *Node) All() iter.Seq2[Path, zcl.Value] {
	return func(yield func(Path, zcl.Value) bool) {
		type entry struct {
			p Path
			v zcl.Value
		}
		n.mu.RLock()
		snap := make([]entry, 0, len(n.index))
		for _, ep := range n.endpoints {
			for _, c := range ep.clusters {
				for _, a := range c.attrs {
					snap = append(snap, entry{a.path, a.value})
				}
			}
		}
		n.mu.RUnlock()

		for _, e := range snap {
			if !yield(e.p, e.v) {
				return
			}
		}
	}
}

// Lookup returns the attribute at p.
func (n *Node) Lookup(p Path) (*Attribute, error) {
	a, ok := n.index[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return a, nil
}

// Get returns the current value at p.
func (n *Node) Get(p Path) (zcl.Value, error) {
	a, err := n.Lookup(p)
	if err != nil {
		return nil, err
	}
	return a.Value(), nil
}

// OnUpdate registers a hook run before every committed update.
func (n *Node) OnUpdate(hook UpdateHook) {
	n.updateMu.Lock()
	defer n.updateMu.Unlock()
	n.hooks = append(n.hooks, hook)
}

// Events returns the tree's event bus.
func (n *Node) Events() *EventBus {
	return n.events
}

// Update sets the value at p. Hooks run first, in registration order; the
// first hook error aborts the update and leaves the stored value unchanged.
// A committed value is persisted and announced on the event bus.
func (n *Node) Update(p Path, v zcl.Value) error {
	n.updateMu.Lock()
	defer n.updateMu.Unlock()

	a, err := n.Lookup(p)
	if err != nil {
		return err
	}
	if !zcl.Compatible(a.def.Type, v) {
		return fmt.Errorf("%s is %s, got %T: %w", p, zcl.TypeName(a.def.Type), v, ErrTypeMismatch)
	}

	for _, h := range n.hooks {
		if err := h(p, v); err != nil {
			return fmt.Errorf("update %s: %w", p, err)
		}
	}

	n.mu.Lock()
	old := a.value
	a.value = v
	n.mu.Unlock()

	if n.persister != nil {
		if err := n.persister.SaveAttribute(p, v); err != nil {
			n.logger.Error("persist attribute", "path", p.String(), "err", err)
		}
	}

	n.logger.Debug("attribute updated", "path", p.String(), "name", a.def.Name, "value", v.String())
	n.events.Emit(Event{
		Type: EventAttributeUpdate,
		Data: AttributeUpdate{
			Path:     p,
			Endpoint: p.Endpoint,
			Cluster:  p.Cluster,
			Attr:     p.Attribute,
			Name:     a.def.Name,
			Type:     zcl.TypeName(a.def.Type),
			Old:      old,
			New:      v,
		},
	})
	return nil
}
