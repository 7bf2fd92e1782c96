package pathfind

import "github.com/l1jgo/worldnav/internal/geom"

// ListTag records which A* list a node belongs to.
type ListTag uint8

const (
	Unlisted ListTag = iota
	Open
	Closed
)

// Node is one expanded search state. Pos holds the cell in X/Y and the ground
// height in Z. Parent is a pool index; the root is its own parent.
type Node struct {
	Total   int32
	Cost    int32
	Step    int32
	Terrain int32
	List    ListTag
	Parent  int32
	Pos     geom.Vec3

	heapIdx int32
}

// Cell returns the grid cell of the node.
func (n *Node) Cell() Cell { return Cell{X: n.Pos.X, Y: n.Pos.Y} }

// neighbors are the eight grid moves. Z carries the base cost of the move.
var neighbors = [8]geom.Vec3{
	{X: -1, Y: 0, Z: StraightCost},
	{X: -1, Y: -1, Z: DiagonalCost},
	{X: -1, Y: 1, Z: DiagonalCost},
	{X: 0, Y: -1, Z: StraightCost},
	{X: 0, Y: 1, Z: StraightCost},
	{X: 1, Y: 0, Z: StraightCost},
	{X: 1, Y: 1, Z: DiagonalCost},
	{X: 1, Y: -1, Z: DiagonalCost},
}
