package persist

import (
	"fmt"

	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/core/handler"
	"github.com/lionforge/engine/internal/factory"
	"github.com/lionforge/engine/internal/feature"
)

// EntityRow is the persisted state of one live entity.
type EntityRow struct {
	ID       int32
	Template string
	X        float64
	Y        float64
	Refresh  int32
	Display  int32
}

// Snapshot walks the live registry. Entities not built from a template
// cannot be rebuilt and are skipped.
func Snapshot(h *ecs.Handlables) []EntityRow {
	rows := make([]EntityRow, 0, h.Len())
	for _, f := range h.Values() {
		if f.Template() == "" {
			continue
		}
		id, ok := f.ID()
		if !ok {
			continue
		}
		row := EntityRow{ID: int32(id), Template: f.Template()}
		if t, err := ecs.Get[*feature.Transformable](f); err == nil {
			row.X, row.Y = t.X(), t.Y()
		}
		if l, err := ecs.Get[*feature.Layerable](f); err == nil {
			row.Refresh, row.Display = int32(l.RefreshLayer()), int32(l.DisplayLayer())
		}
		rows = append(rows, row)
	}
	return rows
}

// Restore rebuilds rows through fa and schedules them on h. Entities receive
// fresh ids. Restore stops at the first row that cannot be rebuilt.
func Restore(rows []EntityRow, fa *factory.Factory, h *handler.Handler) (int, error) {
	for i, row := range rows {
		f, err := fa.Create(row.Template)
		if err != nil {
			return i, fmt.Errorf("restore entity %d: %w", row.ID, err)
		}
		if t, err := ecs.Get[*feature.Transformable](f); err == nil {
			t.Teleport(row.X, row.Y)
		}
		if l, err := ecs.Get[*feature.Layerable](f); err == nil {
			l.SetLayer(int(row.Refresh), int(row.Display))
		}
		if err := h.Add(f); err != nil {
			return i, fmt.Errorf("restore entity %d: %w", row.ID, err)
		}
	}
	return len(rows), nil
}
