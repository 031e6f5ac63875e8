package attr

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"matter-go-light/internal/zcl"
	"matter-go-light/internal/zcl/clusters"
)

// Device types
const (
	DeviceTypeRootNode           uint16 = 0x0016
	DeviceTypeExtendedColorLight uint16 = 0x010D
)

// NodeDef describes the endpoints and clusters a node exposes.
type NodeDef struct {
	// Clusters holds custom cluster definitions, merged into the registry.
	Clusters  []zcl.ClusterDef `yaml:"clusters,omitempty"`
	Endpoints []EndpointDef    `yaml:"endpoints"`
}

// EndpointDef describes one endpoint.
type EndpointDef struct {
	ID         uint16            `yaml:"id"`
	Name       string            `yaml:"name,omitempty"`
	DeviceType uint16            `yaml:"device_type"`
	Clusters   []ClusterInstance `yaml:"clusters"`
}

// ClusterInstance selects a registered cluster and overrides attribute defaults.
type ClusterInstance struct {
	ID         uint16         `yaml:"id"`
	Attributes map[uint16]any `yaml:"attributes,omitempty"`
}

// DefaultNode returns a root endpoint plus one color dimmable light.
func DefaultNode(lightEndpoint uint16) NodeDef {
	return NodeDef{
		Endpoints: []EndpointDef{
			{
				ID:         0x0000,
				Name:       "root",
				DeviceType: DeviceTypeRootNode,
				Clusters:   []ClusterInstance{{ID: clusters.BasicID}},
			},
			{
				ID:         lightEndpoint,
				Name:       "light",
				DeviceType: DeviceTypeExtendedColorLight,
				Clusters: []ClusterInstance{
					{ID: clusters.IdentifyID},
					{ID: clusters.GroupsID},
					{ID: clusters.OnOffID},
					{ID: clusters.LevelControlID},
					{ID: clusters.ColorControlID},
				},
			},
		},
	}
}

// LoadNodeFile reads a YAML node definition and registers its custom
// clusters into the registry.
func LoadNodeFile(path string, registry *zcl.Registry, logger *slog.Logger) (NodeDef, error) {
	var def NodeDef
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read node file: %w", err)
	}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parse node file %s: %w", path, err)
	}
	if len(def.Endpoints) == 0 {
		return def, fmt.Errorf("node file %s: no endpoints", path)
	}

	for _, c := range def.Clusters {
		if err := registry.Register(c); err != nil {
			return def, fmt.Errorf("node file %s: %w", path, err)
		}
	}
	logger.Info("loaded node file", "path", path,
		"clusters", len(def.Clusters), "endpoints", len(def.Endpoints))
	return def, nil
}
