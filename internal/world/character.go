package world

import (
	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
	"github.com/l1jgo/worldnav/internal/spatial"
)

// Default character dimensions in world units.
const (
	DefaultFootprint = 16
	DefaultHeight    = 40
	DefaultSpeed     = 4
)

// Character is an actor on a map. Its position is the minimum corner of its
// footprint at feet height. Single-goroutine access only (tick loop).
type Character struct {
	uid    string
	Name   string
	pos    geom.Vec3
	length int32
	width  int32
	height int32
	speed  int32

	dir    geom.Direction
	facing geom.Direction

	costs *Costs
	m     *Map
	entry *spatial.Entry
}

// NewCharacter creates a character with default dimensions and speed.
// A nil costs gets a set holding only the default profile.
func NewCharacter(uid string, pos geom.Vec3, costs *Costs) *Character {
	if costs == nil {
		costs = NewCosts()
	}
	return &Character{
		uid:    uid,
		Name:   uid,
		pos:    pos,
		length: DefaultFootprint,
		width:  DefaultFootprint,
		height: DefaultHeight,
		speed:  DefaultSpeed,
		facing: geom.South,
		costs:  costs,
	}
}

func (c *Character) UID() string               { return c.uid }
func (c *Character) Position() geom.Vec3       { return c.pos }
func (c *Character) Height() int32             { return c.height }
func (c *Character) Speed() int32              { return c.speed }
func (c *Character) Direction() geom.Direction { return c.dir }
func (c *Character) Facing() geom.Direction    { return c.facing }
func (c *Character) Costs() *Costs             { return c.costs }
func (c *Character) Map() *Map                 { return c.m }

// Mind exposes the character's cost profiles to the path search.
func (c *Character) Mind() pathfind.Mind { return c.costs }

// SetSize changes the footprint and height. Only valid before the character
// is added to a map.
func (c *Character) SetSize(length, width, height int32) {
	c.length, c.width, c.height = length, width, height
}

func (c *Character) SetSpeed(v int32) { c.speed = max(v, 0) }

// Box is the volume the character occupies.
func (c *Character) Box() geom.Box {
	return geom.BoxAt(c.pos, c.length, c.width, c.height)
}

// Center is the middle of the footprint at feet height.
func (c *Character) Center() geom.Vec3 {
	return geom.Vec3{X: c.pos.X + c.length/2, Y: c.pos.Y + c.width/2, Z: c.pos.Z}
}

// SetDirection sets the movement direction applied on the next map update.
// A moving character also faces where it goes.
func (c *Character) SetDirection(d geom.Direction) {
	c.dir = d
	if d != geom.None {
		c.facing = d
	}
}

// Face turns the character without moving it.
func (c *Character) Face(d geom.Direction) {
	if d != geom.None {
		c.facing = d
	}
}

// Stop halts movement.
func (c *Character) Stop() { c.dir = geom.None }

// Grid returns the map the character is on, or nil.
func (c *Character) Grid() pathfind.Grid {
	if c.m == nil {
		return nil
	}
	return c.m
}

// Zone looks up a named zone on the character's map.
func (c *Character) Zone(name string) (geom.Box, bool) {
	if c.m == nil {
		return geom.Box{}, false
	}
	return c.m.Zone(name)
}

// SetPosition moves the character instantly, keeping the spatial index in
// step. Used for spawning and by tests; per-tick motion goes through Map.Update.
func (c *Character) SetPosition(pos geom.Vec3) {
	if c.m == nil {
		c.pos = pos
		return
	}
	c.m.relocate(c, pos)
}
