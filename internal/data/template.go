package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template describes how to build an entity.
type Template struct {
	ID       string        `yaml:"id"`
	Layer    *LayerSpec    `yaml:"layer,omitempty"`
	Features []FeatureSpec `yaml:"features"`
}

// LayerSpec gives a template refresh and display layers.
type LayerSpec struct {
	Refresh int `yaml:"refresh"`
	Display int `yaml:"display"`
}

// FeatureSpec names a registered feature builder and its parameters.
// Params stay undecoded until the builder knows their shape.
type FeatureSpec struct {
	Kind   string    `yaml:"kind"`
	Params yaml.Node `yaml:"params"`
}

// Decode decodes the feature parameters into v. Missing params leave v as is.
func (s *FeatureSpec) Decode(v any) error {
	if s.Params.Kind == 0 {
		return nil
	}
	if err := s.Params.Decode(v); err != nil {
		return fmt.Errorf("decode %s params: %w", s.Kind, err)
	}
	return nil
}

type templateListFile struct {
	Templates []Template `yaml:"templates"`
}

// TemplateTable holds templates indexed by id.
type TemplateTable struct {
	templates map[string]*Template
	order     []string
}

// LoadTemplateTable loads templates from a YAML file.
func LoadTemplateTable(path string) (*TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return ParseTemplateTable(raw)
}

// ParseTemplateTable parses a YAML template document.
func ParseTemplateTable(raw []byte) (*TemplateTable, error) {
	var f templateListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	t := &TemplateTable{templates: make(map[string]*Template, len(f.Templates))}
	for i := range f.Templates {
		tpl := &f.Templates[i]
		if tpl.ID == "" {
			return nil, fmt.Errorf("parse templates: entry %d has no id", i)
		}
		if _, dup := t.templates[tpl.ID]; dup {
			return nil, fmt.Errorf("parse templates: duplicate id %q", tpl.ID)
		}
		t.templates[tpl.ID] = tpl
		t.order = append(t.order, tpl.ID)
	}
	return t, nil
}

// Get returns a template by id, or nil if not found.
func (t *TemplateTable) Get(id string) *Template {
	return t.templates[id]
}

// IDs returns template ids in file order.
func (t *TemplateTable) IDs() []string {
	return append([]string(nil), t.order...)
}

// Count returns the number of loaded templates.
func (t *TemplateTable) Count() int {
	return len(t.templates)
}
