// Package screen renders the engine to a terminal through tcell.
package screen

import (
	"fmt"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/lionforge/engine/internal/core/handler"
	"go.uber.org/zap"
)

// Frame adapts a tcell screen and a Handler to the loop's Frame contract.
type Frame struct {
	screen  tcell.Screen
	handler *handler.Handler
	log     *zap.Logger
	title   string

	ready atomic.Bool
	fps   atomic.Int64
}

func NewFrame(s tcell.Screen, h *handler.Handler, title string, log *zap.Logger) *Frame {
	return &Frame{screen: s, handler: h, title: title, log: log}
}

// Init initialises the terminal; the frame is ready afterwards.
func (f *Frame) Init() error {
	if err := f.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	f.screen.SetStyle(tcell.StyleDefault)
	f.screen.Clear()
	f.ready.Store(true)
	return nil
}

// Fini restores the terminal.
func (f *Frame) Fini() {
	if f.ready.CompareAndSwap(true, false) {
		f.screen.Fini()
	}
}

func (f *Frame) Ready() bool { return f.ready.Load() }

func (f *Frame) Update(extrp float64) error {
	f.handler.Update(extrp)
	return nil
}

func (f *Frame) Render() error {
	f.screen.Clear()
	f.handler.Render(f.screen)
	f.drawStatus()
	f.screen.Show()
	return nil
}

func (f *Frame) SetFrameRate(fps float64) {
	f.fps.Store(int64(fps + 0.5))
}

// FrameRate returns the last reported frames per second, rounded.
func (f *Frame) FrameRate() int {
	return int(f.fps.Load())
}

func (f *Frame) drawStatus() {
	_, h := f.screen.Size()
	if h == 0 {
		return
	}
	line := fmt.Sprintf(" %s  entities:%d  fps:%d  [q] quit", f.title, f.handler.Len(), f.fps.Load())
	DrawText(f.screen, 0, h-1, line, tcell.StyleDefault.Reverse(true))
}

// DrawText writes s from (x, y) on a single row.
func DrawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	w, _ := s.Size()
	for _, r := range text {
		if x >= w {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
