package system

import "github.com/lionforge/engine/internal/core/ecs"

// Phase groups components within a tick. Components run in phase order and,
// within a phase, in registration order.
type Phase int

const (
	PhasePreUpdate  Phase = iota - 1 // -1: input, camera
	PhaseUpdate                      // 0: game logic (default)
	PhasePostUpdate                  // 1: collision, spatial bookkeeping
)

// Updater is a component run by Handler.Update with the live registry.
type Updater interface {
	Update(extrp float64, h *ecs.Handlables)
}

// Renderer is a component run by Handler.Render with the live registry.
// Renderers must not change structural state.
type Renderer interface {
	Render(g ecs.Graphic, h *ecs.Handlables)
}

// Phased is implemented by components that need to run outside PhaseUpdate.
type Phased interface {
	Phase() Phase
}

// PhaseOf returns c's phase, PhaseUpdate when it does not declare one.
func PhaseOf(c any) Phase {
	if p, ok := c.(Phased); ok {
		return p.Phase()
	}
	return PhaseUpdate
}
