// Package catalog loads machine definitions from a YAML or TOML file and
// keeps the database in sync with it while the file changes.
package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type fileRule struct {
	Name      string   `yaml:"name" toml:"name"`
	Kind      string   `yaml:"kind" toml:"kind"`
	Required  bool     `yaml:"required" toml:"required"`
	Min       *float64 `yaml:"min" toml:"min"`
	Max       *float64 `yaml:"max" toml:"max"`
	MaxLength int      `yaml:"max_length" toml:"max_length"`
	Options   []string `yaml:"options" toml:"options"`
}

type fileMachine struct {
	Slug       string         `yaml:"slug" toml:"slug"`
	Name       string         `yaml:"name" toml:"name"`
	Provider   string         `yaml:"provider" toml:"provider"`
	Model      string         `yaml:"model" toml:"model"`
	MediaType  string         `yaml:"media_type" toml:"media_type"`
	CostPerRun string         `yaml:"cost_per_run" toml:"cost_per_run"`
	Defaults   map[string]any `yaml:"defaults" toml:"defaults"`
	Rules      []fileRule     `yaml:"rules" toml:"rules"`
}

type file struct {
	Machines []fileMachine `yaml:"machines" toml:"machines"`
}

// Load reads the catalog at path. The format follows the extension:
// .yaml, .yml or .toml.
func Load(path string) ([]machine.Attributes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(filepath.Ext(path), data)
}

// Parse decodes catalog data of the given extension.
func Parse(ext string, data []byte) ([]machine.Attributes, error) {
	var f file
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("decode toml catalog: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml catalog: unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}

	entries := make([]machine.Attributes, 0, len(f.Machines))
	for i, m := range f.Machines {
		attrs, err := m.attributes()
		if err != nil {
			return nil, fmt.Errorf("machine %d (%s): %w", i, m.Slug, err)
		}
		entries = append(entries, attrs)
	}
	return entries, nil
}

func (m fileMachine) attributes() (machine.Attributes, error) {
	provider, err := machine.ParseProvider(m.Provider)
	if err != nil {
		return machine.Attributes{}, err
	}
	mediaType, err := kernel.ParseMediaType(m.MediaType)
	if err != nil {
		return machine.Attributes{}, err
	}
	cost := decimal.Zero
	if m.CostPerRun != "" {
		if cost, err = decimal.NewFromString(m.CostPerRun); err != nil {
			return machine.Attributes{}, fmt.Errorf("cost_per_run: %w", err)
		}
	}

	rules := make([]machine.Rule, 0, len(m.Rules))
	for _, r := range m.Rules {
		rules = append(rules, machine.Rule{
			Name:      r.Name,
			Kind:      machine.RuleKind(r.Kind),
			Required:  r.Required,
			Min:       r.Min,
			Max:       r.Max,
			MaxLength: r.MaxLength,
			Options:   r.Options,
		})
	}

	return machine.Attributes{
		Slug:       m.Slug,
		Name:       m.Name,
		Provider:   provider,
		Model:      m.Model,
		MediaType:  mediaType,
		CostPerRun: cost,
		Defaults:   kernel.NewParameters(m.Defaults),
		Rules:      rules,
	}, nil
}
