package ecs

import (
	"errors"
	"math"
	"sync"
)

// ID identifies a live entity. Values are unique among entities currently
// held by one Handler and may be reused once an entity has been removed.
type ID int32

// ErrIdentityExhausted is returned by Allocate when every id is in use.
var ErrIdentityExhausted = errors.New("ecs: no free entity id")

// Allocator issues and recycles entity ids.
// All methods are serialised by a single mutex.
type Allocator struct {
	mu     sync.Mutex
	used   map[ID]struct{}
	cursor ID
	limit  int
}

// NewAllocator creates an allocator issuing ids in [0, limit).
// A non-positive limit means math.MaxInt32.
func NewAllocator(limit int) *Allocator {
	if limit <= 0 || limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	return &Allocator{
		used:  make(map[ID]struct{}, 256),
		limit: limit,
	}
}

// Allocate returns the first unused id at or above the cursor, wrapping to 0
// at the limit, and marks it used.
func (a *Allocator) Allocate() (ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.used) >= a.limit {
		return 0, ErrIdentityExhausted
	}
	for {
		if _, taken := a.used[a.cursor]; !taken {
			break
		}
		a.cursor++
		if int(a.cursor) >= a.limit {
			a.cursor = 0
		}
	}
	id := a.cursor
	a.used[id] = struct{}{}
	return id, nil
}

// Release makes id eligible for reuse. Releasing a free id is a no-op.
func (a *Allocator) Release(id ID) {
	a.mu.Lock()
	delete(a.used, id)
	a.mu.Unlock()
}

// InUse reports whether id is currently allocated.
func (a *Allocator) InUse(id ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.used[id]
	return ok
}

// Len returns the number of allocated ids.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.used)
}
