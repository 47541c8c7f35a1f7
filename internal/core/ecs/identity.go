package ecs

import (
	"slices"
	"sync"
)

// IdentityListener is notified when an entity asks to be destroyed.
type IdentityListener interface {
	NotifyDestroyRequested(f *Featurable)
}

// Identity is the feature every Featurable carries. The id is assigned lazily
// by the Handler that takes ownership of the entity, and cleared again once
// the Handler has removed it. Methods may be called from any goroutine.
type Identity struct {
	FeatureModel

	mu        sync.Mutex // protects the fields below
	id        ID
	assigned  bool
	alloc     *Allocator
	destroyed bool
	listeners []IdentityListener
}

// ID returns the current id; ok is false when no id is assigned.
func (i *Identity) ID() (id ID, ok bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.id, i.assigned
}

// Assign allocates an id from alloc unless one is already held.
func (i *Identity) Assign(alloc *Allocator) (ID, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.assigned {
		return i.id, nil
	}
	id, err := alloc.Allocate()
	if err != nil {
		return 0, err
	}
	i.id, i.assigned, i.alloc = id, true, alloc
	return id, nil
}

// NotifyDestroyed completes destruction: the id returns to its allocator and
// the identity becomes unresolvable.
func (i *Identity) NotifyDestroyed() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.assigned {
		return
	}
	i.alloc.Release(i.id)
	i.id, i.assigned, i.alloc = 0, false, nil
}

func (i *Identity) AddListener(l IdentityListener) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !slices.Contains(i.listeners, l) {
		i.listeners = append(i.listeners, l)
	}
}

func (i *Identity) RemoveListener(l IdentityListener) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listeners = slices.DeleteFunc(i.listeners, func(x IdentityListener) bool { return x == l })
}

// CheckListener registers candidate when it is an IdentityListener.
func (i *Identity) CheckListener(candidate any) {
	if l, ok := candidate.(IdentityListener); ok {
		i.AddListener(l)
	}
}

// Destroy requests destruction. Only the first call notifies listeners.
// Listeners run without the lock held.
func (i *Identity) Destroy() {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return
	}
	i.destroyed = true
	listeners := slices.Clone(i.listeners)
	i.mu.Unlock()

	owner := i.Owner()
	for _, l := range listeners {
		l.NotifyDestroyRequested(owner)
	}
}

func (i *Identity) IsDestroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}
