// Package factory builds entities from data templates through builders
// registered explicitly at startup.
package factory

import (
	"fmt"
	"sort"

	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/data"
	"github.com/lionforge/engine/internal/feature"
	"go.uber.org/zap"
)

// Builder creates one feature from its template spec.
type Builder func(spec *data.FeatureSpec) (ecs.Feature, error)

// WiringError reports a template that could not be turned into an entity.
type WiringError struct {
	Template string
	Kind     string
	Err      error
}

func (e *WiringError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("template %q: %v", e.Template, e.Err)
	}
	return fmt.Sprintf("template %q: feature %q: %v", e.Template, e.Kind, e.Err)
}

func (e *WiringError) Unwrap() error { return e.Err }

// Factory maps feature kinds to builders and templates to entities.
type Factory struct {
	templates *data.TemplateTable
	builders  map[string]Builder
	log       *zap.Logger
}

func New(templates *data.TemplateTable, log *zap.Logger) *Factory {
	return &Factory{
		templates: templates,
		builders:  make(map[string]Builder, 16),
		log:       log,
	}
}

// Register binds kind to b. Registering a kind twice panics: it is a wiring
// mistake made at startup.
func (fa *Factory) Register(kind string, b Builder) {
	if _, dup := fa.builders[kind]; dup {
		panic(fmt.Sprintf("factory: builder %q registered twice", kind))
	}
	fa.builders[kind] = b
}

// Kinds returns the registered feature kinds, sorted.
func (fa *Factory) Kinds() []string {
	kinds := make([]string, 0, len(fa.builders))
	for k := range fa.builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Create builds a new entity from templateID. The entity has no id until a
// Handler takes it.
func (fa *Factory) Create(templateID string) (*ecs.Featurable, error) {
	tpl := fa.templates.Get(templateID)
	if tpl == nil {
		return nil, &WiringError{Template: templateID, Err: fmt.Errorf("unknown template")}
	}

	f := ecs.NewFeaturable(tpl.ID)
	if tpl.Layer != nil {
		if err := f.AddFeature(feature.NewLayerable(tpl.Layer.Refresh, tpl.Layer.Display)); err != nil {
			return nil, &WiringError{Template: tpl.ID, Kind: "layer", Err: err}
		}
	}
	for i := range tpl.Features {
		spec := &tpl.Features[i]
		b, ok := fa.builders[spec.Kind]
		if !ok {
			return nil, &WiringError{Template: tpl.ID, Kind: spec.Kind, Err: fmt.Errorf("no builder registered")}
		}
		feat, err := b(spec)
		if err != nil {
			return nil, &WiringError{Template: tpl.ID, Kind: spec.Kind, Err: err}
		}
		if err := f.AddFeature(feat); err != nil {
			return nil, &WiringError{Template: tpl.ID, Kind: spec.Kind, Err: err}
		}
	}

	fa.log.Debug("entity built",
		zap.String("template", tpl.ID),
		zap.Int("features", len(f.Features())),
	)
	return f, nil
}

// RegisterDefaults registers builders for the core features:
// "transformable" {x, y} and "layer" {refresh, display}.
func (fa *Factory) RegisterDefaults() {
	fa.Register("transformable", func(spec *data.FeatureSpec) (ecs.Feature, error) {
		var p struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
		}
		if err := spec.Decode(&p); err != nil {
			return nil, err
		}
		return feature.NewTransformable(p.X, p.Y), nil
	})
	fa.Register("layer", func(spec *data.FeatureSpec) (ecs.Feature, error) {
		var p data.LayerSpec
		if err := spec.Decode(&p); err != nil {
			return nil, err
		}
		return feature.NewLayerable(p.Refresh, p.Display), nil
	})
}
