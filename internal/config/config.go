// Package config loads run configurations. Files are merged over the embedded
// reference defaults.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"annlab/internal/agent"
	"annlab/internal/evo"
	"annlab/internal/nn"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds everything needed to start a run.
type Config struct {
	AgentCount  int                       `yaml:"agent_count" json:"agent_count" ini:"agent_count"`
	Seed        int64                     `yaml:"seed" json:"seed" ini:"seed"`
	Generations int                       `yaml:"generations" json:"generations" ini:"generations"`
	Layers      []LayerConfig             `yaml:"layers" json:"layers" ini:"-"`
	Strategies  map[string]StrategyConfig `yaml:"strategies" json:"strategies" ini:"-"`
}

// LayerConfig declares one network layer. Uplink 0 is crisscross, 1 is filter.
type LayerConfig struct {
	Count     int       `yaml:"count" json:"count" ini:"count"`
	Activator string    `yaml:"activator,omitempty" json:"activator,omitempty" ini:"activator"`
	Biases    []float64 `yaml:"biases,omitempty,flow" json:"biases,omitempty" ini:"biases" delim:","`
	Uplink    int       `yaml:"uplink" json:"uplink" ini:"uplink"`
}

type StrategyConfig struct {
	Variant  string             `yaml:"variant" json:"variant"`
	Criteria map[string]float64 `yaml:"criteria,omitempty" json:"criteria,omitempty"`
}

// ValidationError reports an unusable configuration value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Default returns the embedded reference configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// DefaultYAML returns the embedded defaults as written.
func DefaultYAML() []byte {
	return slices.Clone(defaultsYAML)
}

// Load reads path over the embedded defaults. The format follows the file
// extension: .yaml/.yml, .ini or .json. An empty path yields the defaults.
// Layers are replaced as a whole; strategies are replaced slot by slot.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := unmarshalJSON(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case ".ini":
		if err := loadINI(path, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// unmarshalJSON decodes over cfg. encoding/json reuses existing slice
// elements, so layers present in data must not inherit default fields.
func unmarshalJSON(data []byte, cfg *Config) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["layers"]; ok {
		cfg.Layers = nil
	}
	return json.Unmarshal(data, cfg)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.AgentCount < 1 {
		return &ValidationError{Field: "agent_count", Reason: fmt.Sprintf("must be >= 1, got %d", c.AgentCount)}
	}
	if c.Generations < 0 {
		return &ValidationError{Field: "generations", Reason: fmt.Sprintf("must be >= 0, got %d", c.Generations)}
	}
	if len(c.Layers) < 2 {
		return &ValidationError{Field: "layers", Reason: "needs an input and an output layer"}
	}
	for i, l := range c.Layers {
		field := fmt.Sprintf("layers[%d]", i)
		if l.Count < 1 {
			return &ValidationError{Field: field + ".count", Reason: fmt.Sprintf("must be >= 1, got %d", l.Count)}
		}
		if l.Uplink != int(agent.UplinkCrisscross) && l.Uplink != int(agent.UplinkFilter) {
			return &ValidationError{Field: field + ".uplink", Reason: fmt.Sprintf("must be 0 or 1, got %d", l.Uplink)}
		}
		if len(l.Biases) > l.Count {
			return &ValidationError{Field: field + ".biases", Reason: fmt.Sprintf("has %d values for %d neurons", len(l.Biases), l.Count)}
		}
		if l.Activator != "" {
			if _, err := nn.Default().Canonical(l.Activator); err != nil {
				return &ValidationError{Field: field + ".activator", Reason: err.Error()}
			}
		}
	}
	for slot := range c.Strategies {
		if !slices.Contains(evo.Families(), slot) {
			return &ValidationError{Field: "strategies." + slot, Reason: "is not a strategy slot"}
		}
	}
	return nil
}

// LayerSpecs converts the layer list for agent.Build.
func (c *Config) LayerSpecs() []agent.LayerSpec {
	out := make([]agent.LayerSpec, len(c.Layers))
	for i, l := range c.Layers {
		out[i] = agent.LayerSpec{
			Count:     l.Count,
			Activator: l.Activator,
			Biases:    slices.Clone(l.Biases),
			Uplink:    agent.UplinkMode(l.Uplink),
		}
	}
	return out
}

func (c *Config) StrategySpecs() map[string]evo.StrategySpec {
	out := make(map[string]evo.StrategySpec, len(c.Strategies))
	for slot, s := range c.Strategies {
		out[slot] = evo.StrategySpec{Variant: s.Variant, Criteria: evo.Criteria(s.Criteria).Clone()}
	}
	return out
}

// ResolveSeed returns Seed, or a time-derived seed when Seed is 0.
func (c *Config) ResolveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}
