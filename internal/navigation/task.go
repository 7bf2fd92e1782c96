package navigation

import (
	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
)

// Callback is invoked once when a task finishes or fails. It is not called
// for deleted tasks and is never persisted.
type Callback func(id TaskID, state State)

// Task is one actor's navigation request. Tasks live in the manager's slot
// array and keep their search primitives across reuse.
type Task struct {
	actor Actor
	goal  geom.Box

	path   []pathfind.Cell
	cursor int
	// detour is the rest of the old path, appended once a recovery search
	// reaches its first cell
	detour []pathfind.Cell

	final    geom.Direction
	callback Callback

	lastPos    geom.Vec3
	stuck      int
	recoveries int
	replans    int
	// streak counts replans since the actor last reached a path cell
	streak int

	phase  Phase
	paused bool

	search *pathfind.Search
}

func (t *Task) reset() {
	search := t.search
	if search != nil {
		search.Reset()
	}
	*t = Task{search: search}
}

// TaskInfo is a read-only snapshot of a task.
type TaskInfo struct {
	ID         TaskID
	Actor      string
	Goal       geom.Box
	Phase      Phase
	Paused     bool
	Path       []pathfind.Cell
	Cursor     int
	Final      geom.Direction
	Recoveries int
	Replans    int
	// Remaining is the search budget left while Phase is Pathfinding.
	Remaining int
}

func (t *Task) info(id TaskID) TaskInfo {
	info := TaskInfo{
		ID:         id,
		Actor:      t.actor.UID(),
		Goal:       t.goal,
		Phase:      t.phase,
		Paused:     t.paused,
		Cursor:     t.cursor,
		Final:      t.final,
		Recoveries: t.recoveries,
		Replans:    t.replans,
	}
	if t.path != nil {
		info.Path = append([]pathfind.Cell(nil), t.path...)
	}
	if t.phase == Pathfinding && t.search.Active() {
		info.Remaining = t.search.Remaining()
	}
	return info
}
