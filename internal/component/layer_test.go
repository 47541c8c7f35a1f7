package component

import (
	"testing"

	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/core/handler"
	"github.com/lionforge/engine/internal/feature"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// tracer builds entities that append their name to a shared log when updated
// or rendered.
type tracer struct {
	log []string
}

func (tr *tracer) entity(t *testing.T, name string, layer *feature.Layerable, onUpdate func()) *ecs.Featurable {
	t.Helper()
	f := ecs.NewFeaturable(name)
	if layer != nil {
		require.NoError(t, f.AddFeature(layer))
	}
	require.NoError(t, f.AddFeature(feature.NewRefreshable(func(float64) {
		tr.log = append(tr.log, name)
		if onUpdate != nil {
			onUpdate()
		}
	})))
	require.NoError(t, f.AddFeature(feature.NewDisplayable(func(ecs.Graphic) {
		tr.log = append(tr.log, name)
	})))
	return f
}

func (tr *tracer) take() []string {
	out := tr.log
	tr.log = nil
	return out
}

func TestRefreshLayer(t *testing.T) {
	t.Run("Ascending Layers Then Insertion Order", func(t *testing.T) {
		h := handler.New(zap.NewNop())
		c := NewRefreshLayer()
		require.NoError(t, h.AddComponent(c))

		tr := &tracer{}
		for _, f := range []*ecs.Featurable{
			tr.entity(t, "top", feature.NewLayerable(2, 0), nil),
			tr.entity(t, "ground", nil, nil),
			tr.entity(t, "mid", feature.NewLayerable(1, 0), nil),
			tr.entity(t, "ground2", feature.NewLayerable(0, 0), nil),
			tr.entity(t, "under", feature.NewLayerable(-3, 0), nil),
		} {
			require.NoError(t, h.Add(f))
		}

		h.Update(1)
		require.Equal(t, []string{"under", "ground", "ground2", "mid", "top"}, tr.take())
		require.Equal(t, []int{-3, 0, 1, 2}, c.Layers())
	})

	t.Run("Layer Change Applies After Pass", func(t *testing.T) {
		h := handler.New(zap.NewNop())
		c := NewRefreshLayer()
		require.NoError(t, h.AddComponent(c))

		tr := &tracer{}
		aLayer := feature.NewLayerable(0, 0)
		bLayer := feature.NewLayerable(1, 0)
		moved := false
		a := tr.entity(t, "a", aLayer, func() {
			if moved {
				return
			}
			moved = true
			aLayer.SetLayer(5, 0)
			bLayer.SetLayer(-1, 0)
		})
		b := tr.entity(t, "b", bLayer, nil)
		cc := tr.entity(t, "c", feature.NewLayerable(2, 0), nil)
		for _, f := range []*ecs.Featurable{a, b, cc} {
			require.NoError(t, h.Add(f))
		}

		// Each entity is visited exactly once in the pass that moves it.
		h.Update(1)
		require.Equal(t, []string{"a", "b", "c"}, tr.take())
		require.Equal(t, []int{-1, 2, 5}, c.Layers())
		for f, want := range map[*ecs.Featurable]int{a: 5, b: -1, cc: 2} {
			got, ok := c.layers.layerOf(f)
			require.True(t, ok)
			require.Equal(t, want, got)
		}

		h.Update(1)
		require.Equal(t, []string{"b", "c", "a"}, tr.take())
	})

	t.Run("Display Change Ignored", func(t *testing.T) {
		h := handler.New(zap.NewNop())
		c := NewRefreshLayer()
		require.NoError(t, h.AddComponent(c))

		l := feature.NewLayerable(1, 1)
		f := (&tracer{}).entity(t, "a", l, nil)
		require.NoError(t, h.Add(f))
		h.Update(1)

		l.SetLayer(1, 9)
		h.Update(1)
		require.Equal(t, []int{1}, c.Layers())
	})

	t.Run("Removal Drops Empty Layer", func(t *testing.T) {
		h := handler.New(zap.NewNop())
		c := NewRefreshLayer()
		require.NoError(t, h.AddComponent(c))

		tr := &tracer{}
		lonely := tr.entity(t, "lonely", feature.NewLayerable(4, 0), nil)
		crowd := tr.entity(t, "crowd", nil, nil)
		require.NoError(t, h.Add(lonely))
		require.NoError(t, h.Add(crowd))
		h.Update(1)
		require.Equal(t, []int{0, 4}, c.Layers())

		lonely.Destroy()
		h.Update(1)
		require.Equal(t, []int{0}, c.Layers())
		tr.take()

		h.Update(1)
		require.Equal(t, []string{"crowd"}, tr.take())
	})

	t.Run("Removed Entity No Longer Notifies", func(t *testing.T) {
		h := handler.New(zap.NewNop())
		c := NewRefreshLayer()
		require.NoError(t, h.AddComponent(c))

		l := feature.NewLayerable(0, 0)
		f := (&tracer{}).entity(t, "a", l, nil)
		require.NoError(t, h.Add(f))
		h.Update(1)
		f.Destroy()
		h.Update(1)

		_, ok := c.layers.layerOf(f)
		require.False(t, ok)

		l.SetLayer(3, 0)
		h.Update(1)
		require.Empty(t, c.Layers())
	})

	t.Run("Entity Without Updatable Skipped", func(t *testing.T) {
		h := handler.New(zap.NewNop())
		c := NewRefreshLayer()
		require.NoError(t, h.AddComponent(c))

		f := ecs.NewFeaturable("")
		require.NoError(t, f.AddFeature(feature.NewLayerable(3, 3)))
		require.NoError(t, h.Add(f))
		h.Update(1)
		require.Empty(t, c.Layers())
	})
}

func TestDisplayLayer(t *testing.T) {
	t.Run("Ascending Display Layers", func(t *testing.T) {
		h := handler.New(zap.NewNop())
		c := NewDisplayLayer()
		require.NoError(t, h.AddComponent(c))

		tr := &tracer{}
		hud := feature.NewLayerable(0, 10)
		for _, f := range []*ecs.Featurable{
			tr.entity(t, "hud", hud, nil),
			tr.entity(t, "floor", feature.NewLayerable(9, -1), nil),
			tr.entity(t, "actor", nil, nil),
		} {
			require.NoError(t, h.Add(f))
		}
		h.Update(1)
		tr.take()

		h.Render(nil)
		require.Equal(t, []string{"floor", "actor", "hud"}, tr.take())

		hud.SetLayer(0, -5)
		h.Render(nil)
		require.Equal(t, []string{"floor", "actor", "hud"}, tr.take())
		h.Render(nil)
		require.Equal(t, []string{"hud", "floor", "actor"}, tr.take())
		require.Equal(t, []int{-5, -1, 0}, c.Layers())
	})
}

func TestUnlayered(t *testing.T) {
	h := handler.New(zap.NewNop())
	require.NoError(t, h.AddComponent(NewRefreshable()))
	require.NoError(t, h.AddComponent(NewDisplayable()))

	tr := &tracer{}
	for _, name := range []string{"first", "second", "third"} {
		// Layers are ignored by the unlayered components.
		require.NoError(t, h.Add(tr.entity(t, name, feature.NewLayerable(-len(name), 0), nil)))
	}

	h.Update(1)
	require.Equal(t, []string{"first", "second", "third"}, tr.take())
	h.Render(nil)
	require.Equal(t, []string{"first", "second", "third"}, tr.take())
}
