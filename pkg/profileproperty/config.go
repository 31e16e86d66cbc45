package profileproperty

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tendant/profile-property-node/pkg/config"
	"github.com/tendant/profile-property-node/pkg/errors"
)

// Config is the node configuration. Properties maps an identity store
// attribute name to the shared state key it is written under.
type Config struct {
	Realm      string            `yaml:"realm" json:"realm"`
	Properties map[string]string `yaml:"properties" json:"properties"`
}

// NewConfig copies properties into a validated Config.
func NewConfig(realm string, properties map[string]string) (Config, error) {
	cfg := Config{Realm: realm, Properties: make(map[string]string, len(properties))}
	for source, destination := range properties {
		cfg.Properties[source] = destination
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects blank attribute names, blank destination keys, and two
// attributes sharing a destination key.
func (c Config) Validate() error {
	var problems config.ValidationErrors

	owners := make(map[string]string, len(c.Properties))
	for _, source := range PropertyMapping(c.Properties).SourceAttributes() {
		destination := c.Properties[source]
		if strings.TrimSpace(source) == "" {
			problems = append(problems, config.ValidationError{
				Field:   "properties",
				Message: "attribute name must not be empty",
			})
			continue
		}
		if strings.TrimSpace(destination) == "" {
			problems = append(problems, config.ValidationError{
				Field:   "properties." + source,
				Message: "destination key must not be empty",
			})
			continue
		}
		if owner, taken := owners[destination]; taken {
			problems = append(problems, config.ValidationError{
				Field:   "properties." + source,
				Message: fmt.Sprintf("destination key %q is already used by %q", destination, owner),
			})
			continue
		}
		owners[destination] = source
	}

	if problems.HasErrors() {
		return errors.InvalidConfiguration(problems)
	}
	return nil
}

// Mapping returns a copy of the configured property mapping.
func (c Config) Mapping() PropertyMapping {
	mapping := make(PropertyMapping, len(c.Properties))
	for source, destination := range c.Properties {
		mapping[source] = destination
	}
	return mapping
}

// LoadConfigFile reads a YAML (or JSON) node configuration and validates it.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Properties == nil {
		cfg.Properties = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PropertyMapping maps source attribute names to destination state keys.
type PropertyMapping map[string]string

// SourceAttributes returns the attribute names to request, sorted.
func (m PropertyMapping) SourceAttributes() []string {
	names := make([]string, 0, len(m))
	for source := range m {
		names = append(names, source)
	}
	sort.Strings(names)
	return names
}

// DestinationKeys returns the distinct destination keys, sorted.
func (m PropertyMapping) DestinationKeys() []string {
	seen := make(map[string]bool, len(m))
	keys := make([]string, 0, len(m))
	for _, destination := range m {
		if seen[destination] {
			continue
		}
		seen[destination] = true
		keys = append(keys, destination)
	}
	sort.Strings(keys)
	return keys
}
