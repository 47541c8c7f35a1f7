package ecs

import (
	"reflect"
	"slices"
)

// Feature is a unit of behaviour attached to exactly one Featurable.
type Feature interface {
	// Prepare binds the feature to its owner. Called once, when attached.
	Prepare(owner *Featurable)
}

// FeatureModel implements Prepare and Owner; embed it in concrete features.
type FeatureModel struct {
	owner *Featurable
}

func (m *FeatureModel) Prepare(owner *Featurable) { m.owner = owner }

// Owner returns the Featurable the feature is attached to, nil before Prepare.
func (m *FeatureModel) Owner() *Featurable { return m.owner }

// Recyclable features are reset to their canonical state before being attached.
type Recyclable interface {
	Recycle()
}

// ListenerHost is implemented by features that accept listeners. Each host
// registers candidate only if it implements the host's own listener interface.
type ListenerHost interface {
	CheckListener(candidate any)
}

// Graphic is the opaque render target passed through Render calls.
type Graphic any

// Updatable is the capability of features updated every tick.
type Updatable interface {
	Update(extrp float64)
}

// Renderable is the capability of features rendered every frame.
type Renderable interface {
	Render(g Graphic)
}

var (
	_ = RegisterCapability[Updatable]()
	_ = RegisterCapability[Renderable]()
)

// Features is the per-entity feature store: one feature per concrete type and
// per capability, iterated in insertion order.
type Features struct {
	slots   map[reflect.Type]Feature
	ordered []Feature
}

func NewFeatures() *Features {
	return &Features{
		slots:   make(map[reflect.Type]Feature, 8),
		ordered: make([]Feature, 0, 8),
	}
}

// Add binds f under its concrete type and every capability it implements.
// Without overwrite, nothing is changed if any slot is already bound.
func (s *Features) Add(f Feature, overwrite bool) error {
	if reflect.TypeOf(f).Kind() != reflect.Pointer {
		return ErrFeatureNotPointer
	}
	keys := keysOf(f)
	if !overwrite {
		for _, k := range keys {
			if existing, ok := s.slots[k]; ok {
				return &DuplicateCapabilityError{Slot: k, Existing: existing, Rejected: f}
			}
		}
	}

	var displaced []Feature
	for _, k := range keys {
		if existing, ok := s.slots[k]; ok && existing != f {
			displaced = append(displaced, existing)
		}
		s.slots[k] = f
	}
	for _, old := range displaced {
		if !s.bound(old) {
			s.ordered = slices.DeleteFunc(s.ordered, func(x Feature) bool { return x == old })
		}
	}
	if !slices.Contains(s.ordered, f) {
		s.ordered = append(s.ordered, f)
	}
	return nil
}

func (s *Features) bound(f Feature) bool {
	for _, v := range s.slots {
		if v == f {
			return true
		}
	}
	return false
}

// Get returns the feature bound to slot.
func (s *Features) Get(slot reflect.Type) (Feature, error) {
	f, ok := s.slots[slot]
	if !ok {
		return nil, &NotFoundError{Slot: slot}
	}
	return f, nil
}

func (s *Features) Contains(slot reflect.Type) bool {
	_, ok := s.slots[slot]
	return ok
}

// All returns the features in insertion order.
func (s *Features) All() []Feature {
	return slices.Clone(s.ordered)
}

func (s *Features) Len() int {
	return len(s.ordered)
}
