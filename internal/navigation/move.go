package navigation

import (
	"go.uber.org/zap"

	"github.com/l1jgo/worldnav/internal/core/event"
	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
)

// stepSearch grants the task's search one slice of iterations.
func (m *Manager) stepSearch(id TaskID, t *Task) {
	switch t.search.Step(m.cfg.SearchSlice) {
	case pathfind.Pending:
		return
	case pathfind.Failed:
		m.log.Debug("search failed",
			zap.Int32("task", int32(id)),
			zap.Int("iterations", t.search.Iterations()),
			zap.Int("expanded", t.search.Expanded()))
		t.search.Reset()
		m.finish(id, t, Failed)
		return
	}

	path := t.search.Path()
	t.search.Reset()
	if len(t.detour) > 0 {
		path = append(path, t.detour...)
		t.detour = nil
	}
	t.path = path
	t.cursor = 0
	t.phase = Moving
	t.lastPos = t.actor.Position()
	t.stuck = 0
}

// stepMove steers the actor toward the cell under the cursor.
func (m *Manager) stepMove(id TaskID, t *Task) {
	a := t.actor
	grid := a.Grid()
	if grid == nil {
		m.finish(id, t, Failed)
		return
	}

	pos := a.Position()
	if pos == t.lastPos && a.Direction() != geom.None {
		t.stuck++
	} else {
		t.stuck = 0
		t.lastPos = pos
	}
	if t.stuck >= m.cfg.StuckTicks {
		m.recover(id, t, grid)
		return
	}

	center := a.Center()
	tol := max(m.cfg.ArriveTolerance, a.Speed()/2)
	for {
		if t.cursor >= len(t.path) {
			m.finish(id, t, Finished)
			return
		}
		cell := t.path[t.cursor]

		g, ok := grid.Ground(cell, center.Z)
		if !ok || abs32(g.Top-center.Z) > m.cfg.HeightThreshold {
			m.replan(id, t, grid)
			return
		}

		target := cell.Center(center.Z)
		dx, dy := target.X-center.X, target.Y-center.Y
		if abs32(dx) <= tol && abs32(dy) <= tol {
			// a fresh path starts on the actor's own cell; only later
			// cells count as progress
			if t.cursor > 0 {
				t.streak = 0
			}
			t.cursor++
			continue
		}
		a.SetDirection(steer(dx, dy, tol))
		return
	}
}

func steer(dx, dy, tol int32) geom.Direction {
	var d geom.Direction
	switch {
	case dx < -tol:
		d |= geom.West
	case dx > tol:
		d |= geom.East
	}
	switch {
	case dy < -tol:
		d |= geom.North
	case dy > tol:
		d |= geom.South
	}
	return d
}

// replan throws the path away and searches again for the original goal.
func (m *Manager) replan(id TaskID, t *Task, grid pathfind.Grid) {
	a := t.actor
	a.Stop()
	t.path = nil
	t.cursor = 0
	t.detour = nil
	t.replans++
	t.streak++
	if t.streak > m.cfg.MaxReplans {
		m.log.Debug("task gave up", zap.Int32("task", int32(id)), zap.Int("replans", t.streak))
		m.finish(id, t, Failed)
		return
	}
	m.log.Debug("task replanning", zap.Int32("task", int32(id)), zap.String("actor", a.UID()))
	m.emitReplanned(id, a.UID(), false)

	if err := t.search.Begin(a, grid, t.goal); err != nil {
		m.finish(id, t, Failed)
		return
	}
	t.phase = Pathfinding
}

// recover handles an actor that has not moved for StuckTicks ticks. It looks
// ahead along the path for the first cell nothing blocks, and searches a
// detour to it; the rest of the old path is kept.
func (m *Manager) recover(id TaskID, t *Task, grid pathfind.Grid) {
	a := t.actor
	a.Stop()
	t.stuck = 0
	t.recoveries++
	if t.recoveries > m.cfg.MaxRecoveries {
		m.log.Debug("task gave up", zap.Int32("task", int32(id)), zap.Int("recoveries", t.recoveries))
		m.finish(id, t, Failed)
		return
	}

	z := a.Center().Z
	for i := t.cursor; i < len(t.path); i++ {
		cell := t.path[i]
		reach := z + int32(i-t.cursor)*pathfind.MaxStep
		g, ok := grid.Ground(cell, reach)
		if !ok || grid.Obstructed(cell, g.Top, a.Height(), a) {
			continue
		}

		t.detour = append([]pathfind.Cell(nil), t.path[i+1:]...)
		t.path = nil
		t.cursor = 0
		m.emitReplanned(id, a.UID(), true)
		m.log.Debug("task detouring",
			zap.Int32("task", int32(id)),
			zap.String("actor", a.UID()),
			zap.Int32("cell_x", cell.X), zap.Int32("cell_y", cell.Y),
			zap.Int("recoveries", t.recoveries))

		if err := t.search.Begin(a, grid, cell.Box(g.Top, 1)); err != nil {
			m.finish(id, t, Failed)
			return
		}
		t.phase = Pathfinding
		return
	}
	m.finish(id, t, Failed)
}

func (m *Manager) emitReplanned(id TaskID, uid string, recovery bool) {
	if m.bus == nil {
		return
	}
	event.Emit(m.bus, event.TaskReplanned{Task: int32(id), Actor: uid, Recovery: recovery})
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
