package world

import (
	"fmt"
	"strings"

	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/spatial"
)

// Kind classifies a placed object.
type Kind uint8

const (
	KindFloor Kind = iota // walkable surface, never blocks
	KindWall              // solid obstacle
	KindProp              // decoration; blocks only when Solid
)

func (k Kind) String() string {
	switch k {
	case KindFloor:
		return "floor"
	case KindWall:
		return "wall"
	case KindProp:
		return "prop"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "floor", "":
		return KindFloor, nil
	case "wall":
		return KindWall, nil
	case "prop":
		return KindProp, nil
	}
	return 0, fmt.Errorf("world: unknown object kind %q", s)
}

// Object is a placeable template. Floors usually have zero height.
type Object struct {
	Name    string
	Kind    Kind
	Solid   bool
	Terrain string
	Length  int32
	Width   int32
	Height  int32
}

// Placement is an object instance on a map.
type Placement struct {
	Object *Object
	Pos    geom.Vec3
	entry  *spatial.Entry
}

// Box is the volume the placement occupies.
func (p *Placement) Box() geom.Box {
	return geom.BoxAt(p.Pos, p.Object.Length, p.Object.Width, p.Object.Height)
}

// Top is the height of the placement's upper surface.
func (p *Placement) Top() int32 { return p.Pos.Z + p.Object.Height }

// Supports reports whether characters can stand on the placement.
func (p *Placement) Supports() bool {
	return p.Object.Kind == KindFloor || p.Object.Solid
}

// Blocks reports whether the placement is an obstacle.
func (p *Placement) Blocks() bool {
	return p.Object.Kind == KindWall || p.Object.Solid
}
