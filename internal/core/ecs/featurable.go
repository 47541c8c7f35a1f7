package ecs

import "reflect"

// Featurable is a composed game object: an Identity plus any number of
// features. It is not safe for concurrent mutation; attach features before
// handing the entity to a Handler or from the goroutine that drives it.
type Featurable struct {
	template string
	features *Features
	identity *Identity
}

// NewFeaturable creates an entity built from template ("" when built by hand).
func NewFeaturable(template string) *Featurable {
	f := &Featurable{
		template: template,
		features: NewFeatures(),
		identity: &Identity{},
	}
	f.identity.Prepare(f)
	// Cannot fail on an empty store.
	_ = f.features.Add(f.identity, false)
	return f
}

// AddFeature attaches feature and cross-registers it as a listener with its
// siblings.
func (f *Featurable) AddFeature(feature Feature) error {
	return f.addFeature(feature, false)
}

// AddFeatureOverwrite is AddFeature replacing any feature bound to the same
// slots.
func (f *Featurable) AddFeatureOverwrite(feature Feature) error {
	return f.addFeature(feature, true)
}

func (f *Featurable) addFeature(feature Feature, overwrite bool) error {
	if r, ok := feature.(Recyclable); ok {
		r.Recycle()
	}
	feature.Prepare(f)
	if err := f.features.Add(feature, overwrite); err != nil {
		return err
	}

	host, isHost := feature.(ListenerHost)
	for _, sibling := range f.features.All() {
		if sibling == feature {
			continue
		}
		if h, ok := sibling.(ListenerHost); ok {
			h.CheckListener(feature)
		}
		if isHost {
			host.CheckListener(sibling)
		}
	}
	return nil
}

// CheckListener offers candidate to every feature accepting listeners.
func (f *Featurable) CheckListener(candidate any) {
	for _, feature := range f.features.All() {
		if h, ok := feature.(ListenerHost); ok {
			h.CheckListener(candidate)
		}
	}
}

// Feature returns the feature bound to slot.
func (f *Featurable) Feature(slot reflect.Type) (Feature, error) {
	return f.features.Get(slot)
}

func (f *Featurable) HasFeature(slot reflect.Type) bool {
	return f.features.Contains(slot)
}

// Features returns all attached features in insertion order.
func (f *Featurable) Features() []Feature {
	return f.features.All()
}

func (f *Featurable) Template() string { return f.template }

func (f *Featurable) Identity() *Identity { return f.identity }

// ID returns the entity id; ok is false while no Handler owns the entity.
func (f *Featurable) ID() (ID, bool) { return f.identity.ID() }

// Destroy requests destruction; see Identity.Destroy.
func (f *Featurable) Destroy() { f.identity.Destroy() }

func (f *Featurable) IsDestroyed() bool { return f.identity.IsDestroyed() }

// Get returns the feature of f bound to T.
func Get[T any](f *Featurable) (T, error) {
	var zero T
	feature, err := f.features.Get(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	v, ok := feature.(T)
	if !ok {
		return zero, &NotFoundError{Slot: reflect.TypeFor[T]()}
	}
	return v, nil
}

// MustGet is Get for callers that validated the precondition; it panics when
// the feature is absent.
func MustGet[T any](f *Featurable) T {
	v, err := Get[T](f)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether f has a feature bound to T.
func Has[T any](f *Featurable) bool {
	return f.features.Contains(reflect.TypeFor[T]())
}
