package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lionforge/engine/internal/component"
	"github.com/lionforge/engine/internal/config"
	"github.com/lionforge/engine/internal/core/ecs"
	"github.com/lionforge/engine/internal/core/handler"
	"github.com/lionforge/engine/internal/data"
	"github.com/lionforge/engine/internal/factory"
	"github.com/lionforge/engine/internal/feature"
	"github.com/lionforge/engine/internal/loop"
	"github.com/lionforge/engine/internal/persist"
	"github.com/lionforge/engine/internal/scripting"
	"github.com/lionforge/engine/internal/screen"
	"github.com/lionforge/engine/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, rate int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            lionforge engine v0.1.0        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mgame:\033[0m %s \033[90m(rate: %d)\033[0m\n\n", name, rate)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main engine logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("LIONFORGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Engine.Name, cfg.Engine.Rate)

	// 3. Scripts and templates
	printSection("content")

	scripts, err := scripting.NewEngine(cfg.Content.Scripts, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer scripts.Close()
	printOK("scripts loaded")

	templates, err := data.LoadTemplateTable(cfg.Content.Templates)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	printStat("templates", templates.Count())

	fa := factory.New(templates, log)
	fa.RegisterDefaults()
	screen.RegisterBuilders(fa)
	scripting.RegisterBuilders(fa, scripts)
	printStat("feature kinds", len(fa.Kinds()))

	// 4. Handler and components
	h := handler.New(log, handler.WithAllocator(ecs.NewAllocator(cfg.Engine.MaxEntities)))
	grid := world.NewGrid()
	for _, c := range []any{component.NewRefreshLayer(), component.NewDisplayLayer(), grid} {
		if err := h.AddComponent(c); err != nil {
			return err
		}
	}
	scripts.Expose("nearby", func(L *lua.LState) int {
		x := float64(L.CheckNumber(1))
		y := float64(L.CheckNumber(2))
		L.Push(lua.LNumber(len(grid.Nearby(x, y))))
		return 1
	})

	// 5. Restore the last snapshot, or spawn fresh
	printSection("world")

	var repo *persist.SnapshotRepo
	restored := 0
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.Open(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printStat("schema version", int(db.SchemaVersion()))

		repo = db.Snapshots()
		id, rows, err := repo.LoadLatest(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if len(rows) > 0 {
			if restored, err = persist.Restore(rows, fa, h); err != nil {
				return err
			}
			log.Info("snapshot restored", zap.String("snapshot", id.String()), zap.Int("entities", restored))
		}
	}
	if restored > 0 {
		printStat("restored entities", restored)
	} else {
		spawns, err := data.LoadSpawnList(cfg.Content.Spawns)
		if err != nil {
			return fmt.Errorf("load spawns: %w", err)
		}
		printStat("spawned entities", spawnAll(h, fa, spawns, log))
	}

	// 6. Screen
	tscreen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	frame := screen.NewFrame(tscreen, h, cfg.Engine.Name, log)
	if err := frame.Init(); err != nil {
		return err
	}
	defer frame.Fini()

	lp := loop.New(loop.Config{
		Rate:         cfg.Engine.Rate,
		Extrapolated: cfg.Engine.Extrapolated,
		Sync:         cfg.Engine.Sync(),
		MaxFrameSkip: cfg.Engine.MaxFrameSkip,
	}, loop.NewSystemClock(), log)

	// 7. Run until quit or signal
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var running atomic.Bool
	running.Store(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		err := lp.Run(&running, frame)
		// Unblocks PollEvent.
		frame.Fini()
		return err
	})
	g.Go(func() error {
		pollInput(tscreen, &running)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		running.Store(false)
		return nil
	})
	runErr := g.Wait()
	if runErr != nil {
		log.Error("loop failed", zap.Error(runErr))
	}

	// 8. Save a snapshot on exit
	if repo != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()
		rows := persist.Snapshot(h.Handlables())
		if id, err := repo.Save(saveCtx, rows); err != nil {
			log.Error("snapshot save failed", zap.Error(err))
		} else {
			log.Info("snapshot saved", zap.String("snapshot", id.String()), zap.Int("entities", len(rows)))
		}
	}

	log.Info("engine stopped")
	return runErr
}

// pollInput stops the loop on q, Esc or Ctrl-C. Returns when the screen is
// finalised.
func pollInput(s tcell.Screen, running *atomic.Bool) {
	for {
		ev := s.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				running.Store(false)
				return
			}
		case *tcell.EventResize:
			s.Sync()
		}
	}
}

// spawnAll creates entities from the spawn list and schedules them on h.
// Entries with unknown templates are logged and skipped.
func spawnAll(h *handler.Handler, fa *factory.Factory, spawns []data.SpawnEntry, log *zap.Logger) int {
	total := 0
	for _, spawn := range spawns {
		for i := 0; i < spawn.Count; i++ {
			f, err := fa.Create(spawn.Template)
			if err != nil {
				log.Warn("spawn: cannot create entity", zap.String("template", spawn.Template), zap.Error(err))
				break
			}
			x, y := spawn.X, spawn.Y
			if spawn.SpreadX > 0 {
				x += (rand.Float64()*2 - 1) * spawn.SpreadX
			}
			if spawn.SpreadY > 0 {
				y += (rand.Float64()*2 - 1) * spawn.SpreadY
			}
			if t, err := ecs.Get[*feature.Transformable](f); err == nil {
				t.Teleport(x, y)
			}
			if err := h.Add(f); err != nil {
				log.Warn("spawn: id space exhausted", zap.Error(err))
				return total
			}
			total++
		}
	}
	return total
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	return zapCfg.Build()
}
