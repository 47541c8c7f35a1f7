package feature

import "github.com/lionforge/engine/internal/core/ecs"

// Refreshable is an Updatable backed by a function.
type Refreshable struct {
	ecs.FeatureModel
	fn func(extrp float64)
}

func NewRefreshable(fn func(extrp float64)) *Refreshable {
	return &Refreshable{fn: fn}
}

func (r *Refreshable) Update(extrp float64) {
	if r.fn != nil {
		r.fn(extrp)
	}
}

// Displayable is a Renderable backed by a function.
type Displayable struct {
	ecs.FeatureModel
	fn func(g ecs.Graphic)
}

func NewDisplayable(fn func(g ecs.Graphic)) *Displayable {
	return &Displayable{fn: fn}
}

func (d *Displayable) Render(g ecs.Graphic) {
	if d.fn != nil {
		d.fn(g)
	}
}
