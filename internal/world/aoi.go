package world

import (
	"math"

	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/feature"
)

const cellSize = 20

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

func keyOf(x, y float64) cellKey {
	return cellKey{cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Grid implements a cell-based spatial index over live entities with a
// Transformable. It follows the Handler lifecycle as a listener and tracks
// moves as a TransformableListener; an entity enters the grid on the teleport
// the Handler issues when it goes live.
// Accessed only from the loop goroutine, no locks.
type Grid struct {
	cells map[cellKey]map[*ecs.Featurable]struct{}
	where map[*ecs.Featurable]cellKey
}

func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cellKey]map[*ecs.Featurable]struct{}),
		where: make(map[*ecs.Featurable]cellKey),
	}
}

func (g *Grid) add(f *ecs.Featurable, k cellKey) {
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[*ecs.Featurable]struct{})
		g.cells[k] = cell
	}
	cell[f] = struct{}{}
	g.where[f] = k
}

func (g *Grid) remove(f *ecs.Featurable) {
	k, ok := g.where[f]
	if !ok {
		return
	}
	delete(g.where, f)
	if cell := g.cells[k]; cell != nil {
		delete(cell, f)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// NotifyHandlableAdded subscribes to the entity's moves.
func (g *Grid) NotifyHandlableAdded(f *ecs.Featurable) {
	if t, err := ecs.Get[*feature.Transformable](f); err == nil {
		t.AddListener(g)
	}
}

func (g *Grid) NotifyHandlableRemoved(f *ecs.Featurable) {
	if t, err := ecs.Get[*feature.Transformable](f); err == nil {
		t.RemoveListener(g)
	}
	g.remove(f)
}

// NotifyTransformed updates the entity's cell when its position changes.
func (g *Grid) NotifyTransformed(f *ecs.Featurable, _, _ float64) {
	t, err := ecs.Get[*feature.Transformable](f)
	if err != nil {
		return
	}
	k := keyOf(t.X(), t.Y())
	if old, ok := g.where[f]; ok {
		if old == k {
			return
		}
		g.remove(f)
	}
	g.add(f, k)
}

// Nearby returns every entity in the 3x3 neighbourhood of cells around the
// given position. Caller does fine-grained distance filtering.
func (g *Grid) Nearby(x, y float64) []*ecs.Featurable {
	center := keyOf(x, y)
	var result []*ecs.Featurable
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := cellKey{cx: center.cx + dx, cy: center.cy + dy}
			for f := range g.cells[k] {
				result = append(result, f)
			}
		}
	}
	return result
}

// Len returns the number of indexed entities.
func (g *Grid) Len() int {
	return len(g.where)
}
