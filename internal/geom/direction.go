package geom

import "strings"

// Direction is a movement or facing bitmask. Any subset of the four cardinal
// directions may be set; NORTH points toward decreasing Y.
type Direction uint8

const (
	None  Direction = 0
	West  Direction = 1
	East  Direction = 2
	North Direction = 4
	South Direction = 8
)

// Step returns the unit delta of d on the X/Y plane.
func (d Direction) Step() (dx, dy int32) {
	if d&West != 0 {
		dx--
	}
	if d&East != 0 {
		dx++
	}
	if d&North != 0 {
		dy--
	}
	if d&South != 0 {
		dy++
	}
	return dx, dy
}

func (d Direction) String() string {
	if d == None {
		return "none"
	}
	var parts []string
	if d&North != 0 {
		parts = append(parts, "north")
	}
	if d&South != 0 {
		parts = append(parts, "south")
	}
	if d&West != 0 {
		parts = append(parts, "west")
	}
	if d&East != 0 {
		parts = append(parts, "east")
	}
	return strings.Join(parts, "-")
}

// ParseDirection is the inverse of String. Unknown names yield None.
func ParseDirection(s string) Direction {
	var d Direction
	for _, p := range strings.Split(strings.ToLower(s), "-") {
		switch strings.TrimSpace(p) {
		case "north":
			d |= North
		case "south":
			d |= South
		case "west":
			d |= West
		case "east":
			d |= East
		}
	}
	return d
}
