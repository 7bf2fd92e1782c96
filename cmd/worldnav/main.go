package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/worldnav/internal/config"
	"github.com/l1jgo/worldnav/internal/core/event"
	coresys "github.com/l1jgo/worldnav/internal/core/system"
	"github.com/l1jgo/worldnav/internal/data"
	"github.com/l1jgo/worldnav/internal/navigation"
	"github.com/l1jgo/worldnav/internal/persist"
	"github.com/l1jgo/worldnav/internal/system"
	"github.com/l1jgo/worldnav/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              worldnav  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/worldnav.toml"
	if p := os.Getenv("WORLDNAV_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Server.StartTime = time.Now().Unix()

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Load world data
	printSection("data")
	profiles, err := data.LoadProfileTable(cfg.Simulation.ProfilesFile)
	if err != nil {
		return fmt.Errorf("profiles: %w", err)
	}
	printStat("cost profiles", profiles.Count())

	m, orders, err := data.LoadMapOrders(cfg.Simulation.MapFile, profiles, log)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	printStat("placements", m.Placements())
	printStat("zones", len(m.Zones()))
	printStat("characters", len(m.Characters()))
	fmt.Println()

	// 4. Open record stores
	printSection("storage")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeStore()
	fmt.Println()

	// 5. Systems
	bus := event.NewBus()
	mgr := navigation.NewManager(cfg.Navigation, bus, log)
	persistSys := system.NewPersistenceSystem(mgr, store, m.Name, bus, log, cfg.Simulation.AutosaveTicks)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventSystem(bus, log))
	runner.Register(system.NewNavigationSystem(mgr))
	runner.Register(system.NewMovementSystem(m))
	runner.Register(persistSys)

	// 6. Restore saved tasks, then hand out startup orders to idle characters
	resolve := func(uid string) (navigation.Actor, bool) {
		c, ok := m.Character(uid)
		return c, ok
	}
	if err := persistSys.Restore(resolve); err != nil {
		log.Warn("restore failed, starting fresh", zap.Error(err))
	}
	printStat("restored tasks", mgr.Len())
	printStat("new orders", dispatchOrders(mgr, m, orders, log))
	fmt.Println()

	// 7. Start tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	ticks := 0
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
			ticks++
			if cfg.Simulation.MaxTicks > 0 && ticks >= cfg.Simulation.MaxTicks {
				log.Info("tick limit reached", zap.Int("ticks", ticks), zap.Int("tasks", mgr.Len()))
				return shutdown(persistSys, log)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return shutdown(persistSys, log)
		}
	}
}

func shutdown(ps *system.PersistenceSystem, log *zap.Logger) error {
	if err := ps.Save(); err != nil {
		log.Error("final save failed", zap.Error(err))
		return err
	}
	log.Info("stopped", zap.Uint64("tick", ps.Tick()))
	return nil
}

// openStore opens the configured database and snapshot file. The returned
// store is nil when neither is configured.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (persist.Store, func(), error) {
	var (
		stores  persist.MultiStore
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Database.Driver {
	case "postgres":
		repo, err := persist.OpenPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, closeAll, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, func() { _ = repo.Close() })
		stores = append(stores, repo)
		printOK("PostgreSQL connected, migrations applied")
	case "sqlite":
		repo, err := persist.OpenSQLite(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, closeAll, fmt.Errorf("sqlite: %w", err)
		}
		closers = append(closers, func() { _ = repo.Close() })
		stores = append(stores, repo)
		printOK("SQLite opened: " + cfg.Database.DSN)
	}

	if cfg.Snapshot.Path != "" {
		stores = append(stores, persist.NewSnapshotStore(cfg.Snapshot.Path))
		printOK("snapshot file: " + cfg.Snapshot.Path)
	}

	if len(stores) == 0 {
		log.Warn("no record store configured, state will not be saved")
		return nil, closeAll, nil
	}
	return stores, closeAll, nil
}

// dispatchOrders sends idle characters to their startup zones and returns how
// many tasks were added.
func dispatchOrders(mgr *navigation.Manager, m *world.Map, orders []data.Order, log *zap.Logger) int {
	added := 0
	for _, o := range orders {
		if _, busy := mgr.TaskFor(o.Actor); busy {
			continue
		}
		c, ok := m.Character(o.Actor)
		if !ok {
			continue
		}
		id, err := mgr.AddTaskToZone(c, o.Zone, o.Face)
		if err != nil {
			log.Warn("order rejected", zap.String("actor", o.Actor), zap.String("zone", o.Zone), zap.Error(err))
			continue
		}
		uid, zone := o.Actor, o.Zone
		_ = mgr.SetCallback(id, func(id navigation.TaskID, s navigation.State) {
			log.Debug("order done", zap.String("actor", uid), zap.String("zone", zone), zap.Stringer("state", s))
		})
		added++
	}
	return added
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
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
