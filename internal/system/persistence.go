package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/worldnav/internal/core/event"
	coresys "github.com/l1jgo/worldnav/internal/core/system"
	"github.com/l1jgo/worldnav/internal/navigation"
	"github.com/l1jgo/worldnav/internal/persist"
	"github.com/l1jgo/worldnav/internal/record"
)

const saveTimeout = 5 * time.Second

// PersistenceSystem periodically saves navigation state under a record
// name (usually the map name). Phase 3 (Persist). A nil store disables it.
type PersistenceSystem struct {
	mgr   *navigation.Manager
	store persist.Store
	name  string
	bus   *event.Bus
	log   *zap.Logger

	tick      uint64
	tickCount int
	interval  int // auto-save every N ticks, 0 disables
}

func NewPersistenceSystem(mgr *navigation.Manager, store persist.Store, name string, bus *event.Bus, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		mgr:      mgr,
		store:    store,
		name:     name,
		bus:      bus,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

// Tick is the number of ticks simulated, including those restored.
func (s *PersistenceSystem) Tick() uint64 { return s.tick }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tick++
	if s.interval <= 0 || s.store == nil {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if err := s.Save(); err != nil {
		s.log.Error("autosave failed", zap.String("name", s.name), zap.Error(err))
	}
}

// Save writes the current task state immediately. Called for graceful
// shutdown as well as by the autosave.
func (s *PersistenceSystem) Save() error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	rec := record.New()
	rec.PutString("map", s.name)
	rec.PutInt("tick", int64(s.tick))
	s.mgr.PutState(rec)

	tasks := s.mgr.Len()
	if err := s.store.Save(ctx, persist.Entry{Name: s.name, Tick: s.tick, Tasks: tasks, Record: rec}); err != nil {
		return err
	}
	if s.bus != nil {
		event.Emit(s.bus, event.SnapshotSaved{Tick: s.tick, Tasks: tasks})
	}
	s.log.Info("navigation state saved", zap.String("name", s.name), zap.Uint64("tick", s.tick), zap.Int("tasks", tasks))
	return nil
}

// Restore loads the last save, if any, into the manager and resumes the tick
// count from it. A missing save is not an error.
func (s *PersistenceSystem) Restore(resolve navigation.ResolveFunc) error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	e, err := s.store.Load(ctx, s.name)
	if errors.Is(err, persist.ErrNotFound) {
		s.log.Info("no saved navigation state", zap.String("name", s.name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", s.name, err)
	}
	if err := s.mgr.GetState(e.Record, resolve); err != nil {
		return fmt.Errorf("restore %s: %w", s.name, err)
	}
	s.tick = e.Tick
	return nil
}
