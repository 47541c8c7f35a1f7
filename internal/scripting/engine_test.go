package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lionforge/engine/internal/component"
	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/core/handler"
	"github.com/lionforge/engine/internal/data"
	"github.com/lionforge/engine/internal/factory"
	"github.com/lionforge/engine/internal/feature"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const behaviours = `
function idle(self, extrp)
  return nil
end

function step(self, extrp)
  return { x = self.x + extrp }
end

function die(self, extrp)
  if self.tick >= 1 then
    return { destroy = true }
  end
end

function broken(self, extrp)
  error("kaboom")
end
`

func newTestEngine(t *testing.T, log *zap.Logger) *Engine {
	t.Helper()
	e, err := NewEngine("", log)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	require.NoError(t, e.LoadString("behaviours", behaviours))
	return e
}

func TestEngine_Load(t *testing.T) {
	t.Run("Directory In Name Order", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte("order = order .. 'b'"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte("order = 'a'"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not lua"), 0o644))

		e, err := NewEngine(dir, zap.NewNop())
		require.NoError(t, err)
		defer e.Close()
		require.Equal(t, lua.LString("ab"), e.vm.GetGlobal("order"))
	})

	t.Run("Missing Directory", func(t *testing.T) {
		e, err := NewEngine(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
		require.NoError(t, err)
		e.Close()
	})

	t.Run("Syntax Error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644))
		_, err := NewEngine(dir, zap.NewNop())
		require.ErrorContains(t, err, "bad.lua")
	})

	t.Run("HasFunc", func(t *testing.T) {
		e := newTestEngine(t, zap.NewNop())
		require.True(t, e.HasFunc("step"))
		require.False(t, e.HasFunc("API_VERSION"))
		require.False(t, e.HasFunc("missing"))
	})
}

func TestEngine_CallBehaviour(t *testing.T) {
	e := newTestEngine(t, zap.NewNop())
	self := EntityView{ID: 7, Template: "orc", X: 1, Y: 2}

	t.Run("Nil Result Keeps State", func(t *testing.T) {
		b, err := e.CallBehaviour("idle", self, 1)
		require.NoError(t, err)
		require.Equal(t, Behaviour{X: 1, Y: 2}, b)
	})

	t.Run("Partial Move", func(t *testing.T) {
		b, err := e.CallBehaviour("step", self, 0.5)
		require.NoError(t, err)
		require.True(t, b.Moved)
		require.Equal(t, 1.5, b.X)
		require.Equal(t, 2.0, b.Y)
	})

	t.Run("Destroy", func(t *testing.T) {
		b, err := e.CallBehaviour("die", EntityView{Tick: 1}, 1)
		require.NoError(t, err)
		require.True(t, b.Destroy)
		require.False(t, b.Moved)
	})

	t.Run("Runtime Error", func(t *testing.T) {
		_, err := e.CallBehaviour("broken", self, 1)
		require.ErrorContains(t, err, "kaboom")
	})

	t.Run("Unknown Function", func(t *testing.T) {
		_, err := e.CallBehaviour("missing", self, 1)
		require.Error(t, err)
	})

	t.Run("Exposed Go Function", func(t *testing.T) {
		e.Expose("double", func(L *lua.LState) int {
			L.Push(L.CheckNumber(1) * 2)
			return 1
		})
		require.NoError(t, e.LoadString("uses_double", `
function grow(self, extrp)
  return { y = double(self.y) }
end
`))
		b, err := e.CallBehaviour("grow", self, 1)
		require.NoError(t, err)
		require.Equal(t, 4.0, b.Y)
	})
}

func scriptedEntity(t *testing.T, e *Engine, fn string, x float64) (*ecs.Featurable, *feature.Transformable) {
	t.Helper()
	f := ecs.NewFeaturable("scripted")
	tr := feature.NewTransformable(x, 0)
	require.NoError(t, f.AddFeature(tr))
	require.NoError(t, f.AddFeature(NewScript(e, fn)))
	return f, tr
}

func TestScript(t *testing.T) {
	t.Run("Moves Entity", func(t *testing.T) {
		e := newTestEngine(t, zap.NewNop())
		h := handler.New(zap.NewNop())
		require.NoError(t, h.AddComponent(component.NewRefreshable()))

		f, tr := scriptedEntity(t, e, "step", 0)
		require.NoError(t, h.Add(f))
		h.Update(1)
		h.Update(2)
		require.Equal(t, 3.0, tr.X())
	})

	t.Run("Destroys Entity", func(t *testing.T) {
		e := newTestEngine(t, zap.NewNop())
		h := handler.New(zap.NewNop())
		require.NoError(t, h.AddComponent(component.NewRefreshable()))

		f, _ := scriptedEntity(t, e, "die", 0)
		require.NoError(t, h.Add(f))
		h.Update(1)
		h.Update(1)
		require.True(t, f.IsDestroyed())
		require.Equal(t, 1, h.Len())

		h.Update(1)
		require.Equal(t, 0, h.Len())
	})

	t.Run("Errors Are Logged", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		e := newTestEngine(t, zap.New(core))
		h := handler.New(zap.NewNop())
		require.NoError(t, h.AddComponent(component.NewRefreshable()))

		f, tr := scriptedEntity(t, e, "broken", 5)
		require.NoError(t, h.Add(f))
		h.Update(1)

		require.Equal(t, 1, logs.FilterMessage("script update failed").Len())
		require.Equal(t, 5.0, tr.X())
		require.False(t, f.IsDestroyed())
	})

	t.Run("Recycle Resets Tick", func(t *testing.T) {
		s := NewScript(newTestEngine(t, zap.NewNop()), "idle")
		s.tick = 9
		f := ecs.NewFeaturable("")
		require.NoError(t, f.AddFeature(s))
		require.Equal(t, 0, s.tick)
		require.Equal(t, "idle", s.Func())
	})
}

func TestRegisterBuilders(t *testing.T) {
	table, err := data.ParseTemplateTable([]byte(`
templates:
  - id: walker
    features:
      - kind: transformable
      - kind: script
        params: {func: step}
  - id: typo
    features:
      - kind: script
        params: {func: stpe}
`))
	require.NoError(t, err)
	fa := factory.New(table, zap.NewNop())
	fa.RegisterDefaults()
	RegisterBuilders(fa, newTestEngine(t, zap.NewNop()))

	f, err := fa.Create("walker")
	require.NoError(t, err)
	s, err := ecs.Get[*Script](f)
	require.NoError(t, err)
	require.Equal(t, "step", s.Func())

	_, err = fa.Create("typo")
	var we *factory.WiringError
	require.ErrorAs(t, err, &we)
	require.Equal(t, "script", we.Kind)
}
