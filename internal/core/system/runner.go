package system

import (
	"sort"

	"github.com/lionforge/engine/internal/core/ecs"
)

// Runner executes updaters and renderers in phase order each tick.
type Runner struct {
	updaters  []Updater
	renderers []Renderer
	sorted    bool
}

func NewRunner() *Runner {
	return &Runner{
		updaters:  make([]Updater, 0, 8),
		renderers: make([]Renderer, 0, 8),
	}
}

func (r *Runner) AddUpdater(u Updater) {
	r.updaters = append(r.updaters, u)
	r.sorted = false
}

func (r *Runner) AddRenderer(rd Renderer) {
	r.renderers = append(r.renderers, rd)
	r.sorted = false
}

func (r *Runner) Update(extrp float64, h *ecs.Handlables) {
	r.ensureSorted()
	for _, u := range r.updaters {
		u.Update(extrp, h)
	}
}

func (r *Runner) Render(g ecs.Graphic, h *ecs.Handlables) {
	r.ensureSorted()
	for _, rd := range r.renderers {
		rd.Render(g, h)
	}
}

// Len returns the number of registered updaters and renderers.
func (r *Runner) Len() (updaters, renderers int) {
	return len(r.updaters), len(r.renderers)
}

// ensureSorted uses a stable sort so registration order holds within a phase.
func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.updaters, func(i, j int) bool {
		return PhaseOf(r.updaters[i]) < PhaseOf(r.updaters[j])
	})
	sort.SliceStable(r.renderers, func(i, j int) bool {
		return PhaseOf(r.renderers[i]) < PhaseOf(r.renderers[j])
	})
	r.sorted = true
}
