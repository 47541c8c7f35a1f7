package feature

import (
	"slices"

	"github.com/lionforge/engine/internal/core/ecs"
)

// TransformableListener is notified after an entity changes position.
type TransformableListener interface {
	NotifyTransformed(f *ecs.Featurable, oldX, oldY float64)
}

// Transformable places an entity on the plane.
type Transformable struct {
	ecs.FeatureModel
	x, y      float64
	listeners []TransformableListener
}

func NewTransformable(x, y float64) *Transformable {
	return &Transformable{x: x, y: y}
}

func (t *Transformable) X() float64 { return t.x }
func (t *Transformable) Y() float64 { return t.y }

// Teleport sets the position and notifies listeners, even when unchanged.
func (t *Transformable) Teleport(x, y float64) {
	oldX, oldY := t.x, t.y
	t.x, t.y = x, y
	t.notify(oldX, oldY)
}

// Move shifts the position by (dx, dy) scaled by extrp.
func (t *Transformable) Move(extrp, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	oldX, oldY := t.x, t.y
	t.x += dx * extrp
	t.y += dy * extrp
	t.notify(oldX, oldY)
}

func (t *Transformable) notify(oldX, oldY float64) {
	owner := t.Owner()
	for _, l := range slices.Clone(t.listeners) {
		l.NotifyTransformed(owner, oldX, oldY)
	}
}

func (t *Transformable) AddListener(l TransformableListener) {
	if !slices.Contains(t.listeners, l) {
		t.listeners = append(t.listeners, l)
	}
}

func (t *Transformable) RemoveListener(l TransformableListener) {
	t.listeners = slices.DeleteFunc(t.listeners, func(x TransformableListener) bool { return x == l })
}

// CheckListener implements ecs.ListenerHost.
func (t *Transformable) CheckListener(candidate any) {
	if l, ok := candidate.(TransformableListener); ok {
		t.AddListener(l)
	}
}
