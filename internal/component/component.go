// Package component holds the components a Handler runs each tick.
package component

import "github.com/lionforge/engine/internal/core/ecs"

// Refreshable updates every live Updatable in the order entities went live.
type Refreshable struct{}

func NewRefreshable() *Refreshable { return &Refreshable{} }

func (c *Refreshable) Update(extrp float64, h *ecs.Handlables) {
	for _, u := range ecs.Query[ecs.Updatable](h) {
		u.Update(extrp)
	}
}

// Displayable renders every live Renderable in the order entities went live.
type Displayable struct{}

func NewDisplayable() *Displayable { return &Displayable{} }

func (c *Displayable) Render(g ecs.Graphic, h *ecs.Handlables) {
	for _, r := range ecs.Query[ecs.Renderable](h) {
		r.Render(g)
	}
}
