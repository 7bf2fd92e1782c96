package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/worldnav/internal/core/event"
	coresys "github.com/l1jgo/worldnav/internal/core/system"
)

// EventSystem delivers the events emitted during the previous tick. Phase 0
// (Input). It also logs task outcomes.
type EventSystem struct {
	bus *event.Bus
	log *zap.Logger
}

func NewEventSystem(bus *event.Bus, log *zap.Logger) *EventSystem {
	s := &EventSystem{bus: bus, log: log}
	event.Subscribe(bus, s.onTaskEnded)
	event.Subscribe(bus, s.onSnapshotSaved)
	return s
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

func (s *EventSystem) onTaskEnded(e event.TaskEnded) {
	switch {
	case e.Deleted:
		s.log.Debug("task deleted", zap.Int32("task", e.Task), zap.String("actor", e.Actor))
	case e.Success:
		s.log.Info("task reached goal", zap.Int32("task", e.Task), zap.String("actor", e.Actor))
	default:
		s.log.Info("task gave up", zap.Int32("task", e.Task), zap.String("actor", e.Actor))
	}
}

func (s *EventSystem) onSnapshotSaved(e event.SnapshotSaved) {
	s.log.Debug("autosave delivered", zap.Uint64("tick", e.Tick), zap.Int("tasks", e.Tasks))
}
