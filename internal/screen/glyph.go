package screen

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/data"
	"github.com/lionforge/engine/internal/factory"
	"github.com/lionforge/engine/internal/feature"
)

// Glyph is a Renderable drawing one rune at the entity's position. Entities
// without a Transformable are drawn at the origin.
type Glyph struct {
	ecs.FeatureModel
	r     rune
	style tcell.Style
}

func NewGlyph(r rune, style tcell.Style) *Glyph {
	return &Glyph{r: r, style: style}
}

func (g *Glyph) Rune() rune { return g.r }

// Render draws on a tcell.Screen; other graphics are ignored.
func (g *Glyph) Render(out ecs.Graphic) {
	s, ok := out.(tcell.Screen)
	if !ok {
		return
	}
	x, y := 0, 0
	if t, err := ecs.Get[*feature.Transformable](g.Owner()); err == nil {
		x, y = int(math.Round(t.X())), int(math.Round(t.Y()))
	}
	w, h := s.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	s.SetContent(x, y, g.r, nil, g.style)
}

// RegisterBuilders registers the "glyph" {rune, color} feature kind.
func RegisterBuilders(fa *factory.Factory) {
	fa.Register("glyph", func(spec *data.FeatureSpec) (ecs.Feature, error) {
		var p struct {
			Rune  string `yaml:"rune"`
			Color string `yaml:"color"`
		}
		if err := spec.Decode(&p); err != nil {
			return nil, err
		}
		r, size := utf8.DecodeRuneInString(p.Rune)
		if r == utf8.RuneError || size != len(p.Rune) {
			return nil, fmt.Errorf("rune %q must be a single character", p.Rune)
		}
		style := tcell.StyleDefault
		if p.Color != "" {
			style = style.Foreground(tcell.GetColor(p.Color))
		}
		return NewGlyph(r, style), nil
	})
}
