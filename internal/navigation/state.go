package navigation

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
	"github.com/l1jgo/worldnav/internal/record"
)

// StateKey is the record key PutState writes under.
const StateKey = "paths"

var ErrNoState = errors.New("navigation: record holds no task state")

// PutState writes every live task into rec under StateKey, one sub-record per
// slot. Searches in progress are saved as their goal and restarted on load.
// Callbacks are not saved.
func (m *Manager) PutState(rec *record.Flat) {
	paths := record.New()
	for slot := 0; slot <= m.slots.highest; slot++ {
		if !m.slots.locked[slot] {
			continue
		}
		paths.PutFlat(strconv.Itoa(slot), m.tasks[slot].put(m.slots.generations[slot]))
	}
	rec.PutFlat(StateKey, paths)
}

func (t *Task) put(gen uint16) *record.Flat {
	s := record.New()
	s.PutString("actor", t.actor.UID())
	s.PutInt("gen", int64(gen))
	putVec(s, "goal_min", t.goal.Min)
	putVec(s, "goal_max", t.goal.Max)
	s.PutString("phase", t.phase.String())
	s.PutBool("paused", t.paused)
	s.PutInt("cursor", int64(t.cursor))
	s.PutInt("dir", int64(t.actor.Direction()))
	s.PutInt("final_dir", int64(t.final))
	s.PutInt("recoveries", int64(t.recoveries))
	s.PutInt("replans", int64(t.replans))
	s.PutInt("nodes", int64(len(t.path)))
	for i, c := range t.path {
		n := strconv.Itoa(i)
		s.PutInt("node"+n+"x", int64(c.X))
		s.PutInt("node"+n+"y", int64(c.Y))
	}
	return s
}

func putVec(s *record.Flat, key string, v geom.Vec3) {
	s.PutInt(key+"_x", int64(v.X))
	s.PutInt(key+"_y", int64(v.Y))
	s.PutInt(key+"_z", int64(v.Z))
}

func getVec(s *record.Flat, key string) (geom.Vec3, bool) {
	x, okx := s.GetInt(key + "_x")
	y, oky := s.GetInt(key + "_y")
	z, okz := s.GetInt(key + "_z")
	return geom.Vec3{X: int32(x), Y: int32(y), Z: int32(z)}, okx && oky && okz
}

// GetState drops every live task and restores the tasks saved in rec.
// Entries whose actor cannot be resolved, or that are malformed, are skipped.
// Restored tasks keep their ids; callbacks must be set again.
func (m *Manager) GetState(rec *record.Flat, resolve ResolveFunc) error {
	paths, ok := rec.GetFlat(StateKey)
	if !ok {
		return ErrNoState
	}

	for slot := 0; slot <= m.slots.highest; slot++ {
		if m.slots.locked[slot] {
			t := &m.tasks[slot]
			t.actor.Stop()
			m.free(newTaskID(slot, m.slots.generations[slot]), Failure)
		}
	}

	restored := 0
	for _, key := range paths.Keys() {
		s, ok := paths.GetFlat(key)
		if !ok {
			continue
		}
		if err := m.restore(key, s, resolve); err != nil {
			m.log.Debug("task not restored", zap.String("slot", key), zap.Error(err))
			continue
		}
		restored++
	}
	m.log.Info("navigation state restored", zap.Int("tasks", restored), zap.Int("saved", paths.Len()))
	return nil
}

func (m *Manager) restore(key string, s *record.Flat, resolve ResolveFunc) error {
	slot, err := strconv.Atoi(key)
	if err != nil {
		return fmt.Errorf("bad slot key: %w", err)
	}
	uid, ok := s.GetString("actor")
	if !ok {
		return errors.New("missing actor")
	}
	actor, ok := resolve(uid)
	if !ok {
		return fmt.Errorf("actor %s not found", uid)
	}
	if _, busy := m.actors[uid]; busy {
		return ErrActorBusy
	}
	grid := actor.Grid()
	if grid == nil {
		return ErrNoMap
	}

	gen, _ := s.GetInt("gen")
	phaseName, _ := s.GetString("phase")
	phase, ok := parsePhase(phaseName)
	if !ok || (phase != Pathfinding && phase != Moving) {
		return fmt.Errorf("bad phase %q", phaseName)
	}
	gmin, ok1 := getVec(s, "goal_min")
	gmax, ok2 := getVec(s, "goal_max")
	if !ok1 || !ok2 {
		return errors.New("missing goal")
	}

	nodes, _ := s.GetInt("nodes")
	// each waypoint takes two keys
	if nodes < 0 || nodes > int64(s.Len()/2) {
		return fmt.Errorf("bad node count %d", nodes)
	}
	path := make([]pathfind.Cell, 0, nodes)
	for i := 0; i < int(nodes); i++ {
		n := strconv.Itoa(i)
		x, okx := s.GetInt("node" + n + "x")
		y, oky := s.GetInt("node" + n + "y")
		if !okx || !oky {
			return fmt.Errorf("missing node %d", i)
		}
		path = append(path, pathfind.Cell{X: int32(x), Y: int32(y)})
	}
	cursor, _ := s.GetInt("cursor")
	if phase == Moving && (len(path) == 0 || cursor < 0 || int(cursor) > len(path)) {
		return errors.New("bad path")
	}

	if gen < 1 || gen > maxGeneration {
		return fmt.Errorf("bad generation %d", gen)
	}
	id, ok := m.slots.claim(slot, uint16(gen))
	if !ok {
		return fmt.Errorf("slot %d unavailable", slot)
	}

	t := &m.tasks[slot]
	if t.search == nil {
		t.search = pathfind.NewSearch()
	}
	t.reset()
	t.actor = actor
	t.goal = geom.Box{Min: gmin, Max: gmax}
	t.phase = phase
	t.paused, _ = s.GetBool("paused")
	final, _ := s.GetInt("final_dir")
	t.final = geom.Direction(final)
	recoveries, _ := s.GetInt("recoveries")
	replans, _ := s.GetInt("replans")
	t.recoveries, t.replans = int(recoveries), int(replans)
	t.lastPos = actor.Position()

	if phase == Pathfinding {
		if err := t.search.Begin(actor, grid, t.goal); err != nil {
			t.reset()
			m.slots.release(slot)
			return err
		}
	} else {
		t.path = path
		t.cursor = int(cursor)
		if dir, _ := s.GetInt("dir"); !t.paused {
			actor.SetDirection(geom.Direction(dir))
		}
	}
	m.actors[uid] = slot
	m.log.Debug("task restored", zap.Int32("task", int32(id)), zap.String("actor", uid), zap.Stringer("phase", phase))
	return nil
}
