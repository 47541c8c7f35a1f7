package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for entity behaviour scripts.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file of scriptsDir in
// name order. A missing directory loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(scriptsDir); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source.
func (e *Engine) LoadString(name, src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

// Expose publishes a Go function as a Lua global.
func (e *Engine) Expose(name string, fn lua.LGFunction) {
	e.vm.SetGlobal(name, e.vm.NewFunction(fn))
}

// HasFunc reports whether a global Lua function is defined.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// EntityView is the state handed to a behaviour function as `self`.
type EntityView struct {
	ID       int
	Template string
	X, Y     float64
	Tick     int
}

// Behaviour is what a behaviour function asked for. Fields left out by the
// script keep the entity as it was.
type Behaviour struct {
	X, Y    float64
	Moved   bool
	Destroy bool
}

// CallBehaviour calls fn(self, extrp). The function may return nil or a table
// with optional fields x, y and destroy.
func (e *Engine) CallBehaviour(fn string, self EntityView, extrp float64) (Behaviour, error) {
	lfn := e.vm.GetGlobal(fn)
	if lfn == lua.LNil {
		return Behaviour{}, fmt.Errorf("lua function %s not found", fn)
	}

	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(self.ID))
	t.RawSetString("template", lua.LString(self.Template))
	t.RawSetString("x", lua.LNumber(self.X))
	t.RawSetString("y", lua.LNumber(self.Y))
	t.RawSetString("tick", lua.LNumber(self.Tick))

	if err := e.vm.CallByParam(lua.P{
		Fn:      lfn,
		NRet:    1,
		Protect: true,
	}, t, lua.LNumber(extrp)); err != nil {
		return Behaviour{}, fmt.Errorf("lua %s: %w", fn, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return Behaviour{X: self.X, Y: self.Y}, nil
	}
	b := Behaviour{
		X:       self.X,
		Y:       self.Y,
		Destroy: lua.LVAsBool(rt.RawGetString("destroy")),
	}
	if x, ok := rt.RawGetString("x").(lua.LNumber); ok {
		b.X, b.Moved = float64(x), true
	}
	if y, ok := rt.RawGetString("y").(lua.LNumber); ok {
		b.Y, b.Moved = float64(y), true
	}
	return b, nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
