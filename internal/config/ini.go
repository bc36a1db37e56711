package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	iniLabSection     = "lab"
	iniLayerPrefix    = "layer."
	iniStrategyPrefix = "strategy."
	iniVariantKey     = "variant"
)

// loadINI overlays an INI file:
//
//	[lab]             agent_count, seed, generations
//	[layer.N]         count, activator, biases (comma separated), uplink
//	[strategy.<slot>] variant plus any criteria keys
func loadINI(path string, cfg *Config) error {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}

	if f.HasSection(iniLabSection) {
		if err := f.Section(iniLabSection).MapTo(cfg); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", iniLabSection, err)
		}
	}

	type indexedLayer struct {
		index int
		layer LayerConfig
	}
	var layers []indexedLayer
	for _, section := range f.Sections() {
		name := section.Name()
		switch {
		case strings.HasPrefix(name, iniLayerPrefix):
			index, err := strconv.Atoi(strings.TrimPrefix(name, iniLayerPrefix))
			if err != nil || index < 0 {
				return fmt.Errorf("invalid layer section [%s]", name)
			}
			var layer LayerConfig
			if err := section.MapTo(&layer); err != nil {
				return fmt.Errorf("failed to map [%s] section: %w", name, err)
			}
			layer.Activator = strings.TrimSpace(layer.Activator)
			layers = append(layers, indexedLayer{index: index, layer: layer})

		case strings.HasPrefix(name, iniStrategyPrefix):
			slot := strings.TrimPrefix(name, iniStrategyPrefix)
			strategy, err := iniStrategy(section)
			if err != nil {
				return fmt.Errorf("failed to map [%s] section: %w", name, err)
			}
			if cfg.Strategies == nil {
				cfg.Strategies = make(map[string]StrategyConfig)
			}
			cfg.Strategies[slot] = strategy
		}
	}

	if len(layers) > 0 {
		sort.Slice(layers, func(i, j int) bool { return layers[i].index < layers[j].index })
		cfg.Layers = make([]LayerConfig, 0, len(layers))
		for i, l := range layers {
			if l.index != i {
				return fmt.Errorf("layer sections must be numbered 0..%d without gaps", len(layers)-1)
			}
			cfg.Layers = append(cfg.Layers, l.layer)
		}
	}
	return nil
}

func iniStrategy(section *ini.Section) (StrategyConfig, error) {
	out := StrategyConfig{Criteria: map[string]float64{}}
	for _, key := range section.Keys() {
		if key.Name() == iniVariantKey {
			out.Variant = strings.TrimSpace(key.String())
			continue
		}
		if v, err := key.Float64(); err == nil {
			out.Criteria[key.Name()] = v
			continue
		}
		b, err := key.Bool()
		if err != nil {
			return StrategyConfig{}, fmt.Errorf("criteria %s: %q is neither a number nor a boolean", key.Name(), key.String())
		}
		if b {
			out.Criteria[key.Name()] = 1
		} else {
			out.Criteria[key.Name()] = 0
		}
	}
	if len(out.Criteria) == 0 {
		out.Criteria = nil
	}
	return out, nil
}
