package pathfind

import "github.com/l1jgo/worldnav/internal/geom"

const (
	// CellSize is the side of one grid cell in world units.
	CellSize = 20
	// StraightCost and DiagonalCost are the base costs of a move between
	// neighboring cells. 28 approximates 20*sqrt(2).
	StraightCost = 20
	DiagonalCost = 28
	// MaxStep is the largest climb or drop allowed between neighboring cells.
	MaxStep = 20
)

// DefaultProfile is the name of the cost profile every mind falls back to.
// The zero-cost terrain filter never applies to it.
const DefaultProfile = "default"

// Cell is a grid coordinate on the X/Y plane.
type Cell struct {
	X, Y int32
}

// CellOf returns the cell containing world position p.
func CellOf(p geom.Vec3) Cell {
	return Cell{X: floorDiv(p.X, CellSize), Y: floorDiv(p.Y, CellSize)}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Origin returns the minimum corner of the cell at height z.
func (c Cell) Origin(z int32) geom.Vec3 {
	return geom.Vec3{X: c.X * CellSize, Y: c.Y * CellSize, Z: z}
}

// Center returns the world position of the middle of the cell at height z.
func (c Cell) Center(z int32) geom.Vec3 {
	return geom.Vec3{X: c.X*CellSize + CellSize/2, Y: c.Y*CellSize + CellSize/2, Z: z}
}

// Box returns the volume of the cell between z and z+height.
func (c Cell) Box(z, height int32) geom.Box {
	return geom.BoxAt(c.Origin(z), CellSize, CellSize, height)
}

// Adjacent reports whether o is one of the eight neighbors of c.
func (c Cell) Adjacent(o Cell) bool {
	dx, dy := abs(c.X-o.X), abs(c.Y-o.Y)
	return dx <= 1 && dy <= 1 && dx+dy > 0
}

// Manhattan returns the grid distance between c and o.
func (c Cell) Manhattan(o Cell) int32 {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Ground is the walkable surface found in a cell.
type Ground struct {
	Top     int32
	Terrain string
}

// Mind supplies an actor's terrain preferences.
type Mind interface {
	Profile() string
	// TerrainCost returns the move-cost multiplier for the named terrain.
	TerrainCost(terrain string) int
	ZeroCostImpassable() bool
}

// Agent is the actor a path is searched for.
type Agent interface {
	// Center is the middle of the actor's footprint at feet height.
	Center() geom.Vec3
	Height() int32
	Mind() Mind
}

// Grid answers the map questions the search asks about cells.
type Grid interface {
	InBounds(b geom.Box) bool
	// Ground returns the highest supporting surface in c whose top is no
	// higher than z+MaxStep.
	Ground(c Cell, z int32) (Ground, bool)
	// Obstructed reports whether something solid other than self occupies
	// c between z+1 and z+height.
	Obstructed(c Cell, z, height int32, self any) bool
}
