package navigation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/worldnav/internal/config"
	"github.com/l1jgo/worldnav/internal/core/event"
	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
)

var (
	ErrActorBusy   = errors.New("navigation: actor already has a task")
	ErrNoFreeSlot  = errors.New("navigation: no free task slot")
	ErrGoalOutside = pathfind.ErrGoalOutside
	ErrUnknownZone = errors.New("navigation: unknown zone")
	ErrNoMap       = errors.New("navigation: actor is not on a map")
	ErrUnknownTask = errors.New("navigation: unknown task")
)

type ended struct {
	gen   uint16
	state State
}

// Manager owns a fixed pool of task slots and advances every live task once
// per Update. At most one task exists per actor.
// Accessed only from the tick loop goroutine; no locks.
type Manager struct {
	cfg    config.NavigationConfig
	tasks  []Task
	slots  *slotPool
	actors map[string]int // uid → slot
	last   []ended        // outcome of the previous task in each slot

	bus *event.Bus
	log *zap.Logger
}

// NewManager creates a manager with cfg.MaxTasks slots. bus may be nil.
func NewManager(cfg config.NavigationConfig, bus *event.Bus, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	n := cfg.MaxTasks
	return &Manager{
		cfg:    cfg,
		tasks:  make([]Task, n),
		slots:  newSlotPool(n),
		actors: make(map[string]int, n),
		last:   make([]ended, n),
		bus:    bus,
		log:    log,
	}
}

// AddTask sends actor to a single point.
func (m *Manager) AddTask(actor Actor, point geom.Vec3, final geom.Direction) (TaskID, error) {
	return m.add(actor, geom.Box{Min: point, Max: point}, final, true)
}

// AddTaskVolume sends actor anywhere inside the box spanned by a and b.
func (m *Manager) AddTaskVolume(actor Actor, a, b geom.Vec3, final geom.Direction) (TaskID, error) {
	return m.add(actor, geom.NewBox(a, b), final, true)
}

// AddTaskToActor sends actor next to target: the goal is the 3×3 block of
// cells around the target's current cell.
func (m *Manager) AddTaskToActor(actor, target Actor, final geom.Direction) (TaskID, error) {
	c := pathfind.CellOf(target.Center())
	z := target.Center().Z
	goal := geom.Box{
		Min: pathfind.Cell{X: c.X - 1, Y: c.Y - 1}.Origin(z),
		Max: pathfind.Cell{X: c.X + 1, Y: c.Y + 1}.Origin(z),
	}
	return m.add(actor, goal, final, false)
}

// AddTaskToZone sends actor into a named zone of its current map.
func (m *Manager) AddTaskToZone(actor Actor, zone string, final geom.Direction) (TaskID, error) {
	goal, ok := actor.Zone(zone)
	if !ok {
		return m.reject(actor, fmt.Errorf("%w: %s", ErrUnknownZone, zone))
	}
	return m.add(actor, goal, final, false)
}

func (m *Manager) add(actor Actor, goal geom.Box, final geom.Direction, checkBounds bool) (TaskID, error) {
	uid := actor.UID()
	if _, busy := m.actors[uid]; busy {
		return m.reject(actor, ErrActorBusy)
	}
	grid := actor.Grid()
	if grid == nil {
		return m.reject(actor, ErrNoMap)
	}
	if checkBounds && !grid.InBounds(goal) {
		return m.reject(actor, ErrGoalOutside)
	}
	id, ok := m.slots.acquire()
	if !ok {
		return m.reject(actor, ErrNoFreeSlot)
	}

	slot := id.Slot()
	t := &m.tasks[slot]
	if t.search == nil {
		t.search = pathfind.NewSearch()
	}
	t.reset()
	t.actor = actor
	t.goal = goal
	t.final = final
	t.lastPos = actor.Position()

	if err := t.search.Begin(actor, grid, goal); err != nil {
		t.reset()
		m.slots.release(slot)
		return m.reject(actor, err)
	}
	t.phase = Pathfinding
	m.actors[uid] = slot

	m.log.Debug("task added",
		zap.Int32("task", int32(id)),
		zap.String("actor", uid),
		zap.Int32("goal_x", goal.Min.X), zap.Int32("goal_y", goal.Min.Y),
		zap.Int("limit", t.search.Limit()))
	return id, nil
}

func (m *Manager) reject(actor Actor, err error) (TaskID, error) {
	m.log.Warn("task rejected", zap.String("actor", actor.UID()), zap.Error(err))
	return InvalidTask, err
}

func (m *Manager) task(id TaskID) (*Task, bool) {
	if !m.slots.alive(id) {
		return nil, false
	}
	return &m.tasks[id.Slot()], true
}

// SetCallback replaces the completion callback of a live task.
func (m *Manager) SetCallback(id TaskID, cb Callback) error {
	t, ok := m.task(id)
	if !ok {
		return ErrUnknownTask
	}
	t.callback = cb
	return nil
}

// SetFinalDirection sets where the actor faces once the task ends.
func (m *Manager) SetFinalDirection(id TaskID, d geom.Direction) error {
	t, ok := m.task(id)
	if !ok {
		return ErrUnknownTask
	}
	t.final = d
	return nil
}

// PauseTask suspends a task and halts its actor. State is kept as is.
func (m *Manager) PauseTask(id TaskID) error {
	t, ok := m.task(id)
	if !ok {
		return ErrUnknownTask
	}
	t.paused = true
	t.actor.Stop()
	return nil
}

// ResumeTask lets a paused task continue from where it stopped.
func (m *Manager) ResumeTask(id TaskID) error {
	t, ok := m.task(id)
	if !ok {
		return ErrUnknownTask
	}
	t.paused = false
	t.lastPos = t.actor.Position()
	t.stuck = 0
	return nil
}

// DeleteTask cancels a task without invoking its callback.
func (m *Manager) DeleteTask(id TaskID) error {
	t, ok := m.task(id)
	if !ok {
		return ErrUnknownTask
	}
	t.paused = true
	t.actor.Stop()
	uid := t.actor.UID()
	m.free(id, Failure)
	m.emitEnded(id, uid, false, true)
	m.log.Debug("task deleted", zap.Int32("task", int32(id)), zap.String("actor", uid))
	return nil
}

// ReturnState reports Active for a live task, or the outcome of the most
// recent task to end in the id's slot if the generations match. The bool is
// false for ids the manager knows nothing about.
func (m *Manager) ReturnState(id TaskID) (State, bool) {
	if m.slots.alive(id) {
		return Active, true
	}
	if id < 0 || id.Slot() >= len(m.last) {
		return Failure, false
	}
	if e := m.last[id.Slot()]; e.gen == id.Generation() && e.gen != 0 {
		return e.state, true
	}
	return Failure, false
}

// GetTask returns a snapshot of a live task.
func (m *Manager) GetTask(id TaskID) (TaskInfo, bool) {
	t, ok := m.task(id)
	if !ok {
		return TaskInfo{}, false
	}
	return t.info(id), true
}

// TaskFor returns the live task of an actor.
func (m *Manager) TaskFor(uid string) (TaskID, bool) {
	slot, ok := m.actors[uid]
	if !ok {
		return InvalidTask, false
	}
	return newTaskID(slot, m.slots.generations[slot]), true
}

// Len is the number of live tasks.
func (m *Manager) Len() int { return m.slots.used() }

// Cap is the number of task slots.
func (m *Manager) Cap() int { return len(m.tasks) }

// Update advances every live, unpaused task by one tick.
func (m *Manager) Update() {
	for slot := 0; slot <= m.slots.highest; slot++ {
		if !m.slots.locked[slot] {
			continue
		}
		t := &m.tasks[slot]
		if t.paused {
			continue
		}
		id := newTaskID(slot, m.slots.generations[slot])
		switch t.phase {
		case Pathfinding:
			m.stepSearch(id, t)
		case Moving:
			m.stepMove(id, t)
		}
	}
}

// free releases the slot of a task and records its outcome.
func (m *Manager) free(id TaskID, state State) {
	slot := id.Slot()
	t := &m.tasks[slot]
	delete(m.actors, t.actor.UID())
	m.last[slot] = ended{gen: id.Generation(), state: state}
	t.reset()
	m.slots.release(slot)
}

// finish ends a task: face, stop, free the slot, then notify.
func (m *Manager) finish(id TaskID, t *Task, phase Phase) {
	t.phase = phase
	a := t.actor
	if t.final != geom.None {
		a.Face(t.final)
	}
	a.Stop()

	state := Success
	if phase == Failed {
		state = Failure
	}
	cb := t.callback
	uid := a.UID()
	replans, recoveries := t.replans, t.recoveries
	m.free(id, state)

	if cb != nil {
		cb(id, state)
	}
	m.emitEnded(id, uid, state == Success, false)

	if state == Success {
		m.log.Debug("task finished", zap.Int32("task", int32(id)), zap.String("actor", uid),
			zap.Int("replans", replans), zap.Int("recoveries", recoveries))
	} else {
		m.log.Info("task failed", zap.Int32("task", int32(id)), zap.String("actor", uid),
			zap.Int("replans", replans), zap.Int("recoveries", recoveries))
	}
}

func (m *Manager) emitEnded(id TaskID, uid string, success, deleted bool) {
	if m.bus == nil {
		return
	}
	event.Emit(m.bus, event.TaskEnded{Task: int32(id), Actor: uid, Success: success, Deleted: deleted})
}
