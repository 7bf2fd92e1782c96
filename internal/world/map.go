package world

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
	"github.com/l1jgo/worldnav/internal/spatial"
)

var ErrDuplicateCharacter = errors.New("world: character already on a map")

var (
	_ pathfind.Grid  = (*Map)(nil)
	_ pathfind.Agent = (*Character)(nil)
)

// Map holds everything placed in one area: static objects, characters and
// named zones, all indexed by a single chunk tree.
// Accessed only from the tick loop goroutine; no locks.
type Map struct {
	Name   string
	bounds geom.Box

	index      *spatial.Chunk
	placements map[*Placement]struct{}
	chars      map[string]*Character
	order      []*Character // insertion order, for deterministic updates
	zones      map[string]geom.Box

	log *zap.Logger
}

// NewMap creates an empty map. Only the X/Y extent of bounds is used to
// accept or reject goals.
func NewMap(name string, bounds geom.Box, log *zap.Logger) *Map {
	if log == nil {
		log = zap.NewNop()
	}
	return &Map{
		Name:       name,
		bounds:     bounds,
		index:      spatial.New(),
		placements: make(map[*Placement]struct{}),
		chars:      make(map[string]*Character),
		zones:      make(map[string]geom.Box),
		log:        log,
	}
}

func (m *Map) Bounds() geom.Box         { return m.bounds }
func (m *Map) Index() *spatial.Chunk    { return m.index }
func (m *Map) Characters() []*Character { return m.order }

// Place puts an instance of obj on the map with its minimum corner at pos.
func (m *Map) Place(obj *Object, pos geom.Vec3) *Placement {
	p := &Placement{Object: obj, Pos: pos}
	p.entry = &spatial.Entry{Object: p, Box: p.Box()}
	m.index.Insert(p.entry)
	m.placements[p] = struct{}{}
	return p
}

// RemovePlacement takes a placed object off the map.
func (m *Map) RemovePlacement(p *Placement) bool {
	if _, ok := m.placements[p]; !ok {
		return false
	}
	delete(m.placements, p)
	return m.index.Remove(p.entry)
}

// Placements returns the number of placed objects.
func (m *Map) Placements() int { return len(m.placements) }

// AddCharacter puts c on the map at its current position.
func (m *Map) AddCharacter(c *Character) error {
	if c.m != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateCharacter, c.uid)
	}
	if _, ok := m.chars[c.uid]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCharacter, c.uid)
	}
	c.m = m
	c.entry = &spatial.Entry{Object: c, Box: c.Box()}
	m.index.Insert(c.entry)
	m.chars[c.uid] = c
	m.order = append(m.order, c)
	m.log.Debug("character added",
		zap.String("map", m.Name),
		zap.String("uid", c.uid),
		zap.Int32("x", c.pos.X), zap.Int32("y", c.pos.Y), zap.Int32("z", c.pos.Z))
	return nil
}

// RemoveCharacter takes the character with the given uid off the map.
func (m *Map) RemoveCharacter(uid string) bool {
	c, ok := m.chars[uid]
	if !ok {
		return false
	}
	m.index.Remove(c.entry)
	delete(m.chars, uid)
	for i, o := range m.order {
		if o == c {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	c.m = nil
	c.entry = nil
	m.log.Debug("character removed", zap.String("map", m.Name), zap.String("uid", uid))
	return true
}

func (m *Map) Character(uid string) (*Character, bool) {
	c, ok := m.chars[uid]
	return c, ok
}

// AddZone registers a named volume. An existing zone of that name is replaced.
func (m *Map) AddZone(name string, box geom.Box) {
	m.zones[name] = box
}

func (m *Map) Zone(name string) (geom.Box, bool) {
	b, ok := m.zones[name]
	return b, ok
}

// Zones returns the zone names in sorted order.
func (m *Map) Zones() []string {
	names := make([]string, 0, len(m.zones))
	for n := range m.zones {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// InBounds reports whether b overlaps the map on the X/Y plane.
func (m *Map) InBounds(b geom.Box) bool {
	return b.Min.X <= m.bounds.Max.X && m.bounds.Min.X <= b.Max.X &&
		b.Min.Y <= m.bounds.Max.Y && m.bounds.Min.Y <= b.Max.Y
}

// ObjectsInBox returns every entry overlapping [min, max].
func (m *Map) ObjectsInBox(min, max geom.Vec3) []*spatial.Entry {
	return m.index.QueryBox(min, max)
}

// ObjectsInView returns every entry visible through a view at origin.
func (m *Map) ObjectsInView(origin geom.Vec3, length, width int32) []*spatial.Entry {
	return m.index.QueryView(origin, length, width)
}

// Ground implements pathfind.Grid.
func (m *Map) Ground(c pathfind.Cell, z int32) (pathfind.Ground, bool) {
	return m.groundIn(c.Box(math.MinInt32/2, 1), z)
}

// groundIn finds the highest supporting top under the X/Y extent of area
// that is within MaxStep above z.
func (m *Map) groundIn(area geom.Box, z int32) (pathfind.Ground, bool) {
	limit := z + pathfind.MaxStep
	q := geom.Box{
		Min: geom.Vec3{X: area.Min.X, Y: area.Min.Y, Z: math.MinInt32 / 2},
		Max: geom.Vec3{X: area.Max.X, Y: area.Max.Y, Z: limit},
	}
	var best pathfind.Ground
	found := false
	for _, e := range m.index.CollectBox(nil, q) {
		p, ok := e.Object.(*Placement)
		if !ok || !p.Supports() {
			continue
		}
		top := p.Top()
		if top > limit {
			continue
		}
		if !found || top > best.Top {
			best = pathfind.Ground{Top: top, Terrain: p.Object.Terrain}
			found = true
		}
	}
	return best, found
}

// Obstructed implements pathfind.Grid.
func (m *Map) Obstructed(c pathfind.Cell, z, height int32, self any) bool {
	return m.blocked(c.Box(z, 1), z, height, self)
}

// blocked reports whether anything solid other than self occupies the X/Y
// extent of area between z+1 and z+height.
func (m *Map) blocked(area geom.Box, z, height int32, self any) bool {
	q := geom.Box{
		Min: geom.Vec3{X: area.Min.X, Y: area.Min.Y, Z: z + 1},
		Max: geom.Vec3{X: area.Max.X, Y: area.Max.Y, Z: z + max(height, 1)},
	}
	for _, e := range m.index.CollectBox(nil, q) {
		if e.Object == self {
			continue
		}
		switch o := e.Object.(type) {
		case *Placement:
			if o.Blocks() {
				return true
			}
		case *Character:
			return true
		}
	}
	return false
}

// relocate moves c and keeps the index consistent: the old entry is removed
// before the new one is inserted.
func (m *Map) relocate(c *Character, pos geom.Vec3) {
	m.index.Remove(c.entry)
	c.pos = pos
	c.entry.Box = c.Box()
	m.index.Insert(c.entry)
}

// Update advances every moving character by one tick. A blocked diagonal
// move slides along whichever axis is free.
func (m *Map) Update() {
	for _, c := range m.order {
		if c.dir == geom.None || c.speed == 0 {
			continue
		}
		dx, dy := c.dir.Step()
		dx *= c.speed
		dy *= c.speed

		tries := [3][2]int32{{dx, dy}, {dx, 0}, {0, dy}}
		for i, d := range tries {
			if i > 0 && (dx == 0 || dy == 0) {
				break
			}
			if pos, ok := m.stepTarget(c, d[0], d[1]); ok {
				m.relocate(c, pos)
				break
			}
		}
	}
}

// stepTarget returns where c would stand after moving by (dx, dy), or false
// if the move is blocked or leads over a hole.
func (m *Map) stepTarget(c *Character, dx, dy int32) (geom.Vec3, bool) {
	if dx == 0 && dy == 0 {
		return geom.Vec3{}, false
	}
	next := geom.Vec3{X: c.pos.X + dx, Y: c.pos.Y + dy, Z: c.pos.Z}
	foot := geom.BoxAt(next, c.length, c.width, 1)
	center := geom.Vec3{X: next.X + c.length/2, Y: next.Y + c.width/2}

	g, ok := m.groundIn(geom.BoxAt(center, 1, 1, 1), c.pos.Z)
	if !ok || c.pos.Z-g.Top > pathfind.MaxStep {
		return geom.Vec3{}, false
	}
	// anything up to MaxStep high is stepped onto rather than bumped into
	if m.blocked(foot, g.Top+pathfind.MaxStep, c.height-pathfind.MaxStep, c) {
		return geom.Vec3{}, false
	}
	next.Z = g.Top
	return next, true
}
