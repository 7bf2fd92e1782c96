package navigation

import (
	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
)

// Actor is what the manager drives: a path-search agent that can also be
// steered and knows which map it stands on.
type Actor interface {
	pathfind.Agent
	UID() string
	Position() geom.Vec3
	Speed() int32
	Direction() geom.Direction
	SetDirection(d geom.Direction)
	Face(d geom.Direction)
	Stop()
	// Grid is the actor's current map, or nil when it is not placed.
	Grid() pathfind.Grid
	Zone(name string) (geom.Box, bool)
}

// ResolveFunc finds an actor by UID when restoring saved tasks.
type ResolveFunc func(uid string) (Actor, bool)
