package handler

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/core/system"
	"go.uber.org/zap"
)

// ErrNotComponent is returned by AddComponent for values that are neither an
// updater, a renderer nor a listener.
var ErrNotComponent = errors.New("handler: value is not a component")

// Listener tracks entity lifecycle without polling.
type Listener interface {
	NotifyHandlableAdded(f *ecs.Featurable)
	NotifyHandlableRemoved(f *ecs.Featurable)
}

// ListenerFuncs adapts functions to Listener. Nil fields are no-ops.
type ListenerFuncs struct {
	Added   func(f *ecs.Featurable)
	Removed func(f *ecs.Featurable)
}

func (l *ListenerFuncs) NotifyHandlableAdded(f *ecs.Featurable) {
	if l.Added != nil {
		l.Added(f)
	}
}

func (l *ListenerFuncs) NotifyHandlableRemoved(f *ecs.Featurable) {
	if l.Removed != nil {
		l.Removed(f)
	}
}

// Spatial is the capability of features placing an entity in space. New
// entities are teleported to their own position when they go live so that
// spatial listeners see an initial placement.
type Spatial interface {
	X() float64
	Y() float64
	Teleport(x, y float64)
}

var _ = ecs.RegisterCapability[Spatial]()

// Handler owns the live entities and drives components every tick.
// Add, Remove and RemoveAll only record requests; they are applied at the
// start of the next Update. They may be called from any goroutine and from
// inside component and listener callbacks. Every other method belongs to the
// goroutine running Update.
type Handler struct {
	log        *zap.Logger
	alloc      *ecs.Allocator
	handlables *ecs.Handlables
	runner     *system.Runner
	listeners  []Listener

	mu       sync.Mutex // protects the fields below
	toAdd    map[ecs.ID]*ecs.Featurable
	addOrder []ecs.ID
	toRemove []ecs.ID
	removing map[ecs.ID]struct{}
	live     map[ecs.ID]struct{} // mirrors handlables for RemoveAll
}

// Option configures a Handler.
type Option func(*Handler)

// WithAllocator makes the Handler own alloc instead of a fresh allocator.
func WithAllocator(alloc *ecs.Allocator) Option {
	return func(h *Handler) { h.alloc = alloc }
}

func New(log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		log:        log,
		handlables: ecs.NewHandlables(),
		runner:     system.NewRunner(),
		toAdd:      make(map[ecs.ID]*ecs.Featurable),
		removing:   make(map[ecs.ID]struct{}),
		live:       make(map[ecs.ID]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.alloc == nil {
		h.alloc = ecs.NewAllocator(0)
	}
	return h
}

// AddComponent registers c as an updater, a renderer and/or a listener.
func (h *Handler) AddComponent(c any) error {
	matched := false
	if u, ok := c.(system.Updater); ok {
		h.runner.AddUpdater(u)
		matched = true
	}
	if r, ok := c.(system.Renderer); ok {
		h.runner.AddRenderer(r)
		matched = true
	}
	if l, ok := c.(Listener); ok {
		h.AddListener(l)
		matched = true
	}
	if !matched {
		return fmt.Errorf("add component %T: %w", c, ErrNotComponent)
	}
	return nil
}

func (h *Handler) AddListener(l Listener) {
	if !slices.Contains(h.listeners, l) {
		h.listeners = append(h.listeners, l)
	}
}

func (h *Handler) RemoveListener(l Listener) {
	h.listeners = slices.DeleteFunc(h.listeners, func(x Listener) bool { return x == l })
}

// Add schedules f to go live at the next Update. An id is allocated now if f
// does not hold one yet; the last Add for an id wins.
func (h *Handler) Add(f *ecs.Featurable) error {
	identity := f.Identity()
	id, err := identity.Assign(h.alloc)
	if err != nil {
		return fmt.Errorf("add entity: %w", err)
	}
	identity.AddListener(h)

	h.mu.Lock()
	if _, queued := h.toAdd[id]; !queued {
		h.addOrder = append(h.addOrder, id)
	}
	h.toAdd[id] = f
	h.mu.Unlock()
	return nil
}

// Remove schedules f to leave at the next Update. Entities without an id are
// ignored.
func (h *Handler) Remove(f *ecs.Featurable) {
	id, ok := f.ID()
	if !ok {
		return
	}
	h.mu.Lock()
	h.scheduleRemoval(id)
	h.mu.Unlock()
}

// RemoveAll schedules every live entity for removal.
func (h *Handler) RemoveAll() {
	h.mu.Lock()
	for id := range h.live {
		h.scheduleRemoval(id)
	}
	h.mu.Unlock()
}

func (h *Handler) scheduleRemoval(id ecs.ID) {
	if _, dup := h.removing[id]; dup {
		return
	}
	h.removing[id] = struct{}{}
	h.toRemove = append(h.toRemove, id)
}

// NotifyDestroyRequested implements ecs.IdentityListener.
func (h *Handler) NotifyDestroyRequested(f *ecs.Featurable) {
	h.Remove(f)
}

// Update applies pending removals, then pending additions, then runs every
// updater with the live registry.
func (h *Handler) Update(extrp float64) {
	h.mu.Lock()
	toRemove := h.toRemove
	toAdd := h.toAdd
	addOrder := h.addOrder
	h.toRemove = nil
	h.removing = make(map[ecs.ID]struct{})
	h.toAdd = make(map[ecs.ID]*ecs.Featurable)
	h.addOrder = nil
	h.mu.Unlock()

	for _, id := range toRemove {
		h.applyRemoval(id, toAdd)
	}
	for _, id := range addOrder {
		if f, ok := toAdd[id]; ok {
			h.applyAddition(f)
		}
	}

	h.runner.Update(extrp, h.handlables)
}

func (h *Handler) applyRemoval(id ecs.ID, toAdd map[ecs.ID]*ecs.Featurable) {
	if f, pending := toAdd[id]; pending {
		// Never went live: dropped silently.
		delete(toAdd, id)
		if _, live := h.handlables.Get(id); !live {
			f.Identity().RemoveListener(h)
			f.Identity().NotifyDestroyed()
			h.log.Debug("cancelled pending entity", zap.Int32("id", int32(id)))
			return
		}
	}

	f, ok := h.handlables.Get(id)
	if !ok {
		return
	}
	for _, l := range slices.Clone(h.listeners) {
		l.NotifyHandlableRemoved(f)
	}
	h.handlables.Remove(f)
	h.mu.Lock()
	delete(h.live, id)
	h.mu.Unlock()
	f.Identity().RemoveListener(h)
	f.Identity().NotifyDestroyed()
	h.log.Debug("entity removed",
		zap.Int32("id", int32(id)),
		zap.String("template", f.Template()),
	)
}

func (h *Handler) applyAddition(f *ecs.Featurable) {
	id, ok := f.ID()
	if !ok {
		return
	}
	if cur, live := h.handlables.Get(id); live && cur == f {
		h.log.Debug("entity already live", zap.Int32("id", int32(id)))
		return
	}
	h.handlables.Add(f)
	h.mu.Lock()
	h.live[id] = struct{}{}
	h.mu.Unlock()
	for _, l := range slices.Clone(h.listeners) {
		l.NotifyHandlableAdded(f)
	}
	if s, err := ecs.Get[Spatial](f); err == nil {
		s.Teleport(s.X(), s.Y())
	}
	h.log.Debug("entity added",
		zap.Int32("id", int32(id)),
		zap.String("template", f.Template()),
	)
}

// Render runs every renderer with the live registry.
func (h *Handler) Render(g ecs.Graphic) {
	h.runner.Render(g, h.handlables)
}

// Get returns the live entity with id.
func (h *Handler) Get(id ecs.ID) (*ecs.Featurable, bool) {
	return h.handlables.Get(id)
}

// Values returns the live entities.
func (h *Handler) Values() []*ecs.Featurable {
	return h.handlables.Values()
}

func (h *Handler) Len() int {
	return h.handlables.Len()
}

// Handlables exposes the live registry to read-only walkers such as savers.
func (h *Handler) Handlables() *ecs.Handlables {
	return h.handlables
}
