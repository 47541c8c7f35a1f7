package scripting

import (
	"fmt"

	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/data"
	"github.com/lionforge/engine/internal/factory"
	"github.com/lionforge/engine/internal/feature"
	"go.uber.org/zap"
)

// Script is an Updatable feature delegating its behaviour to a Lua function.
// Returned coordinates teleport the entity's Transformable; destroy = true
// requests destruction.
type Script struct {
	ecs.FeatureModel
	engine *Engine
	fn     string
	tick   int
}

func NewScript(engine *Engine, fn string) *Script {
	return &Script{engine: engine, fn: fn}
}

// Recycle restarts the tick counter.
func (s *Script) Recycle() { s.tick = 0 }

func (s *Script) Func() string { return s.fn }

func (s *Script) Update(extrp float64) {
	owner := s.Owner()
	view := EntityView{Template: owner.Template(), Tick: s.tick}
	if id, ok := owner.ID(); ok {
		view.ID = int(id)
	}
	t, err := ecs.Get[*feature.Transformable](owner)
	if err == nil {
		view.X, view.Y = t.X(), t.Y()
	}
	s.tick++

	b, err := s.engine.CallBehaviour(s.fn, view, extrp)
	if err != nil {
		s.engine.log.Error("script update failed",
			zap.Int("id", view.ID),
			zap.String("func", s.fn),
			zap.Error(err),
		)
		return
	}
	if b.Moved && t != nil {
		t.Teleport(b.X, b.Y)
	}
	if b.Destroy {
		owner.Destroy()
	}
}

// RegisterBuilders registers the "script" {func} feature kind.
func RegisterBuilders(fa *factory.Factory, e *Engine) {
	fa.Register("script", func(spec *data.FeatureSpec) (ecs.Feature, error) {
		var p struct {
			Func string `yaml:"func"`
		}
		if err := spec.Decode(&p); err != nil {
			return nil, err
		}
		if !e.HasFunc(p.Func) {
			return nil, fmt.Errorf("lua function %q not defined", p.Func)
		}
		return NewScript(e, p.Func), nil
	})
}
