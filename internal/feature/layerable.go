package feature

import (
	"slices"

	"github.com/lionforge/engine/internal/core/ecs"
)

// DefaultLayer is the layer of entities without a Layerable.
const DefaultLayer = 0

// LayerableListener is notified when an entity changes layer.
type LayerableListener interface {
	NotifyLayerChanged(f *ecs.Featurable, oldRefresh, newRefresh, oldDisplay, newDisplay int)
}

// Layerable holds the refresh and display layers of an entity. Lower layers
// are processed first.
type Layerable struct {
	ecs.FeatureModel
	refresh   int
	display   int
	listeners []LayerableListener
}

// NewLayerable returns a Layerable that takes the given layers once attached.
func NewLayerable(refresh, display int) *Layerable {
	return &Layerable{refresh: refresh, display: display}
}

// Recycle drops listeners left over from a previous owner.
func (l *Layerable) Recycle() {
	l.listeners = nil
}

func (l *Layerable) RefreshLayer() int { return l.refresh }
func (l *Layerable) DisplayLayer() int { return l.display }

// SetLayer changes both layers and notifies listeners when either changed.
func (l *Layerable) SetLayer(refresh, display int) {
	oldRefresh, oldDisplay := l.refresh, l.display
	if oldRefresh == refresh && oldDisplay == display {
		return
	}
	l.refresh, l.display = refresh, display
	owner := l.Owner()
	for _, ln := range slices.Clone(l.listeners) {
		ln.NotifyLayerChanged(owner, oldRefresh, refresh, oldDisplay, display)
	}
}

func (l *Layerable) AddListener(ln LayerableListener) {
	if !slices.Contains(l.listeners, ln) {
		l.listeners = append(l.listeners, ln)
	}
}

func (l *Layerable) RemoveListener(ln LayerableListener) {
	l.listeners = slices.DeleteFunc(l.listeners, func(x LayerableListener) bool { return x == ln })
}

// CheckListener implements ecs.ListenerHost.
func (l *Layerable) CheckListener(candidate any) {
	if ln, ok := candidate.(LayerableListener); ok {
		l.AddListener(ln)
	}
}
