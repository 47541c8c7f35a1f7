package component

import (
	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/core/event"
	"github.com/lionforge/engine/internal/feature"
)

// layerChanged is queued when a tracked entity changes layer during a pass.
type layerChanged struct {
	f     *ecs.Featurable
	layer int
}

// RefreshLayer updates every Updatable by ascending refresh layer.
// Layer changes are applied once the current pass has finished.
type RefreshLayer struct {
	layers *layers[ecs.Updatable]
	moves  *event.Bus
}

func NewRefreshLayer() *RefreshLayer {
	c := &RefreshLayer{
		layers: newLayers[ecs.Updatable](),
		moves:  event.NewBus(),
	}
	event.Subscribe(c.moves, func(ev layerChanged) { c.layers.move(ev.f, ev.layer) })
	return c
}

func (c *RefreshLayer) Update(extrp float64, _ *ecs.Handlables) {
	c.layers.each(func(u ecs.Updatable) { u.Update(extrp) })
	c.moves.Flush()
	c.layers.sortKeys()
}

func (c *RefreshLayer) NotifyHandlableAdded(f *ecs.Featurable) {
	u, err := ecs.Get[ecs.Updatable](f)
	if err != nil {
		return
	}
	layer := feature.DefaultLayer
	if l, err := ecs.Get[*feature.Layerable](f); err == nil {
		layer = l.RefreshLayer()
		l.AddListener(c)
	}
	c.layers.insert(f, layer, u)
}

func (c *RefreshLayer) NotifyHandlableRemoved(f *ecs.Featurable) {
	if !c.layers.remove(f) {
		return
	}
	if l, err := ecs.Get[*feature.Layerable](f); err == nil {
		l.RemoveListener(c)
	}
}

func (c *RefreshLayer) NotifyLayerChanged(f *ecs.Featurable, oldRefresh, newRefresh, _, _ int) {
	if oldRefresh != newRefresh {
		event.Emit(c.moves, layerChanged{f: f, layer: newRefresh})
	}
}

// Layers returns the non-empty refresh layers in ascending order.
func (c *RefreshLayer) Layers() []int { return c.layers.layerKeys() }

// DisplayLayer renders every Renderable by ascending display layer.
// Layer changes are applied once the current pass has finished.
type DisplayLayer struct {
	layers *layers[ecs.Renderable]
	moves  *event.Bus
}

func NewDisplayLayer() *DisplayLayer {
	c := &DisplayLayer{
		layers: newLayers[ecs.Renderable](),
		moves:  event.NewBus(),
	}
	event.Subscribe(c.moves, func(ev layerChanged) { c.layers.move(ev.f, ev.layer) })
	return c
}

func (c *DisplayLayer) Render(g ecs.Graphic, _ *ecs.Handlables) {
	c.layers.each(func(r ecs.Renderable) { r.Render(g) })
	c.moves.Flush()
	c.layers.sortKeys()
}

func (c *DisplayLayer) NotifyHandlableAdded(f *ecs.Featurable) {
	r, err := ecs.Get[ecs.Renderable](f)
	if err != nil {
		return
	}
	layer := feature.DefaultLayer
	if l, err := ecs.Get[*feature.Layerable](f); err == nil {
		layer = l.DisplayLayer()
		l.AddListener(c)
	}
	c.layers.insert(f, layer, r)
}

func (c *DisplayLayer) NotifyHandlableRemoved(f *ecs.Featurable) {
	if !c.layers.remove(f) {
		return
	}
	if l, err := ecs.Get[*feature.Layerable](f); err == nil {
		l.RemoveListener(c)
	}
}

func (c *DisplayLayer) NotifyLayerChanged(f *ecs.Featurable, _, _, oldDisplay, newDisplay int) {
	if oldDisplay != newDisplay {
		event.Emit(c.moves, layerChanged{f: f, layer: newDisplay})
	}
}

// Layers returns the non-empty display layers in ascending order.
func (c *DisplayLayer) Layers() []int { return c.layers.layerKeys() }
