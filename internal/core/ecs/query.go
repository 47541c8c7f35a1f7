package ecs

import "reflect"

// orderedSet is a set iterated in insertion order.
type orderedSet[T comparable] struct {
	index map[T]int
	items []T
}

func newOrderedSet[T comparable]() *orderedSet[T] {
	return &orderedSet[T]{index: make(map[T]int)}
}

func (s *orderedSet[T]) add(v T) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet[T]) remove(v T) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}
	delete(s.index, v)
	copy(s.items[i:], s.items[i+1:])
	var zero T
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *orderedSet[T]) len() int { return len(s.items) }

// Handlables indexes live entities by id and every feature and entity by the
// types and capabilities it implements.
// Only the Handler mutates it, between ticks.
type Handlables struct {
	byID     map[ID]*Featurable
	entities *orderedSet[*Featurable]
	byType   map[reflect.Type]*orderedSet[any]
}

func NewHandlables() *Handlables {
	return &Handlables{
		byID:     make(map[ID]*Featurable, 256),
		entities: newOrderedSet[*Featurable](),
		byType:   make(map[reflect.Type]*orderedSet[any], 32),
	}
}

// Add indexes f under its current id. Entities without an id are ignored.
func (h *Handlables) Add(f *Featurable) {
	id, ok := f.ID()
	if !ok {
		return
	}
	h.byID[id] = f
	if !h.entities.add(f) {
		return
	}
	h.index(f)
	for _, feature := range f.Features() {
		h.index(feature)
	}
}

// Remove drops f from every index. It must be called while f still holds
// the id it was added with.
func (h *Handlables) Remove(f *Featurable) {
	if !h.entities.remove(f) {
		return
	}
	if id, ok := f.ID(); ok && h.byID[id] == f {
		delete(h.byID, id)
	}
	h.unindex(f)
	for _, feature := range f.Features() {
		h.unindex(feature)
	}
}

func (h *Handlables) index(v any) {
	for _, k := range keysOf(v) {
		set := h.byType[k]
		if set == nil {
			set = newOrderedSet[any]()
			h.byType[k] = set
		}
		set.add(v)
	}
}

func (h *Handlables) unindex(v any) {
	for _, k := range keysOf(v) {
		if set := h.byType[k]; set != nil {
			set.remove(v)
			if set.len() == 0 {
				delete(h.byType, k)
			}
		}
	}
}

// Get returns the live entity with id.
func (h *Handlables) Get(id ID) (*Featurable, bool) {
	f, ok := h.byID[id]
	return f, ok
}

// Values returns live entities in the order they went live.
func (h *Handlables) Values() []*Featurable {
	out := make([]*Featurable, len(h.entities.items))
	copy(out, h.entities.items)
	return out
}

func (h *Handlables) Len() int { return h.entities.len() }

// Query returns every live feature or entity implementing T, in the order
// they went live.
func Query[T any](h *Handlables) []T {
	set := h.byType[reflect.TypeFor[T]()]
	if set == nil {
		return nil
	}
	out := make([]T, 0, set.len())
	for _, v := range set.items {
		if t, ok := v.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
