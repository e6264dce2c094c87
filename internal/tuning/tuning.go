// Package tuning loads named agent presets. Presets are YAML documents
// layered over agent.DefaultConfig and checked against a JSON schema
// before use.
package tuning

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
)

//go:embed presets.yaml
var builtinPresets []byte

//go:embed preset.schema.json
var presetSchema string

const schemaURL = "preset.schema.json"

// DefaultPreset is the preset used when none is named.
const DefaultPreset = "default"

var ErrUnknownPreset = errors.New("tuning: unknown preset")

type presetFile struct {
	Presets map[string]yaml.Node `yaml:"presets"`
}

// Presets is a set of named agent configurations.
type Presets struct {
	byName map[string]agent.Config
}

// Builtin returns the presets compiled into the binary.
func Builtin() (*Presets, error) {
	p, err := Parse(builtinPresets)
	if err != nil {
		return nil, fmt.Errorf("builtin presets: %w", err)
	}
	return p, nil
}

// Load reads a presets file from disk.
func Load(path string) (*Presets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a presets document.
func Parse(raw []byte) (*Presets, error) {
	var f presetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("presets yaml: %w", err)
	}
	if len(f.Presets) == 0 {
		return nil, errors.New("presets yaml: no presets defined")
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	p := &Presets{byName: make(map[string]agent.Config, len(f.Presets))}
	for name, node := range f.Presets {
		cfg, err := decodePreset(schema, agent.DefaultConfig(), &node)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		p.byName[name] = cfg
	}
	return p, nil
}

// Preset returns the named configuration.
func (p *Presets) Preset(name string) (agent.Config, error) {
	if name == "" {
		name = DefaultPreset
	}
	cfg, ok := p.byName[name]
	if !ok {
		return agent.Config{}, fmt.Errorf("%w %q (have %s)", ErrUnknownPreset, name, strings.Join(p.Names(), ", "))
	}
	return cfg, nil
}

// Names lists the presets in sorted order.
func (p *Presets) Names() []string {
	names := make([]string, 0, len(p.byName))
	for n := range p.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Overlay reads a single-config YAML file and applies it over base.
func Overlay(base agent.Config, path string) (agent.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return base, nil
	}
	schema, err := compileSchema()
	if err != nil {
		return base, err
	}
	cfg, err := decodePreset(schema, base, doc.Content[0])
	if err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(schemaURL, strings.NewReader(presetSchema)); err != nil {
		return nil, fmt.Errorf("preset schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("preset schema: %w", err)
	}
	return s, nil
}

// decodePreset validates node against the schema and decodes it over base.
// The schema sees the document as JSON so numbers compare the same way
// whatever YAML decoded them to.
func decodePreset(schema *jsonschema.Schema, base agent.Config, node *yaml.Node) (agent.Config, error) {
	var doc any
	if err := node.Decode(&doc); err != nil {
		return base, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return base, err
	}
	var inst any
	if err := json.Unmarshal(raw, &inst); err != nil {
		return base, err
	}
	if err := schema.Validate(inst); err != nil {
		return base, err
	}

	cfg := base
	if err := node.Decode(&cfg); err != nil {
		return base, err
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}
