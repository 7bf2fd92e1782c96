package pathfind

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/worldnav/internal/geom"
)

type stubMind struct {
	profile        string
	costs          map[string]int
	zeroImpassable bool
}

func (m stubMind) Profile() string { return m.profile }

func (m stubMind) TerrainCost(t string) int {
	if v, ok := m.costs[t]; ok {
		return v
	}
	return 1
}

func (m stubMind) ZeroCostImpassable() bool { return m.zeroImpassable }

type stubAgent struct {
	pos    geom.Vec3
	height int32
	mind   Mind
}

func (a *stubAgent) Center() geom.Vec3 { return a.pos }
func (a *stubAgent) Height() int32     { return a.height }
func (a *stubAgent) Mind() Mind        { return a.mind }

func agentAt(c Cell) *stubAgent {
	return &stubAgent{pos: c.Center(0), height: 40, mind: stubMind{profile: DefaultProfile}}
}

type stubGrid struct {
	min, max Cell
	blocked  map[Cell]bool
	holes    map[Cell]bool
	tops     map[Cell]int32
	terrain  map[Cell]string
}

func newGrid(min, max Cell) *stubGrid {
	return &stubGrid{
		min:     min,
		max:     max,
		blocked: make(map[Cell]bool),
		holes:   make(map[Cell]bool),
		tops:    make(map[Cell]int32),
		terrain: make(map[Cell]string),
	}
}

func (g *stubGrid) inside(c Cell) bool {
	return c.X >= g.min.X && c.X <= g.max.X && c.Y >= g.min.Y && c.Y <= g.max.Y
}

func (g *stubGrid) InBounds(b geom.Box) bool {
	area := geom.Box{Min: g.min.Origin(-1000), Max: g.max.Origin(1000).Add(geom.Vec3{X: CellSize - 1, Y: CellSize - 1})}
	return area.Overlaps(b)
}

func (g *stubGrid) Ground(c Cell, z int32) (Ground, bool) {
	if !g.inside(c) || g.holes[c] {
		return Ground{}, false
	}
	top := g.tops[c]
	if top > z+MaxStep {
		return Ground{}, false
	}
	t, ok := g.terrain[c]
	if !ok {
		t = "grass"
	}
	return Ground{Top: top, Terrain: t}, true
}

func (g *stubGrid) Obstructed(c Cell, _, _ int32, _ any) bool { return g.blocked[c] }

func cellBox(a, b Cell) geom.Box {
	return geom.NewBox(a.Origin(0), b.Origin(0).Add(geom.Vec3{X: CellSize - 1, Y: CellSize - 1}))
}

func assertWalkable(t *testing.T, path []Cell) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		assert.True(t, path[i-1].Adjacent(path[i]), "step %d: %v -> %v", i, path[i-1], path[i])
	}
}

func TestPoolGrowthKeepsIndices(t *testing.T) {
	p := NewPool()
	var idx []int32
	for i := 0; i < poolInitial+1; i++ {
		n := p.Acquire()
		p.At(n).Total = int32(i)
		idx = append(idx, n)
	}
	assert.Equal(t, poolInitial+poolGrow, p.Cap())
	for i, n := range idx {
		assert.Equal(t, int32(i), p.At(n).Total)
	}

	p.Reset()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, poolInitial+poolGrow, p.Cap())
	n := p.Acquire()
	assert.Equal(t, int32(0), n)
	assert.Equal(t, int32(0), p.At(n).Total, "acquired nodes are zeroed")
}

func TestCacheKeysAreDistinct(t *testing.T) {
	c := NewCache()
	cells := []Cell{{0, 0}, {-1, 0}, {0, -1}, {1, 0}, {0, 1}, {-1, -1}, {1 << 20, -3}}
	for i, cell := range cells {
		c.Add(cell, int32(i))
	}
	assert.Equal(t, len(cells), c.Len())
	for i, cell := range cells {
		got, ok := c.Lookup(cell)
		require.True(t, ok)
		assert.Equal(t, int32(i), got)
	}
	c.Reset()
	_, ok := c.Lookup(Cell{0, 0})
	assert.False(t, ok)
}

func TestOpenListPopsInOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := NewPool()
	o := NewOpenList(p)
	var totals []int
	for i := 0; i < 300; i++ {
		n := p.Acquire()
		v := rng.Intn(1000)
		p.At(n).Total = int32(v)
		totals = append(totals, v)
		o.Push(n)
	}
	sort.Ints(totals)
	for _, want := range totals {
		assert.Equal(t, int32(want), p.At(o.PopMin()).Total)
	}
	assert.Zero(t, o.Len())
}

func TestOpenListRebalanceMovesNodeUp(t *testing.T) {
	p := NewPool()
	o := NewOpenList(p)
	var last int32
	for _, v := range []int32{10, 20, 30, 40, 50} {
		last = p.Acquire()
		p.At(last).Total = v
		o.Push(last)
	}
	p.At(last).Total = 5
	o.Rebalance(last)
	assert.Equal(t, last, o.PopMin())
	assert.Equal(t, int32(10), p.At(o.PopMin()).Total)
}

func TestOpenListRebalanceLeavesTailAlone(t *testing.T) {
	p := NewPool()
	o := NewOpenList(p)
	var nodes []int32
	for _, v := range []int32{10, 20, 30, 40, 50} {
		n := p.Acquire()
		p.At(n).Total = v
		o.Push(n)
		nodes = append(nodes, n)
	}
	totals := func() []int32 {
		var out []int32
		for _, n := range o.h.items {
			out = append(out, p.At(n).Total)
		}
		return out
	}
	require.Equal(t, []int32{10, 20, 30, 40, 50}, totals())

	// the last entry gets cheaper without being rebalanced, then the one
	// before it is rebalanced
	p.At(nodes[4]).Total = 1
	p.At(nodes[3]).Total = 12
	o.Rebalance(nodes[3])

	// a full re-heapify would lift the 1 to the root
	assert.Equal(t, []int32{10, 12, 30, 20, 1}, totals())
	assert.Equal(t, int32(10), p.At(o.PopMin()).Total)
}

func TestFindOpenField(t *testing.T) {
	g := newGrid(Cell{-10, -10}, Cell{20, 20})
	s := NewSearch()

	goal := geom.NewBox(geom.Vec3{X: 100, Y: 100}, geom.Vec3{X: 120, Y: 120})
	path, err := s.Find(agentAt(Cell{0, 0}), g, goal)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	assert.Equal(t, Cell{0, 0}, path[0])
	assert.Equal(t, Cell{5, 5}, path[len(path)-1])
	assert.Len(t, path, 6)
	assertWalkable(t, path)
	assert.False(t, s.Active())
}

func TestFindEnclosedActorFails(t *testing.T) {
	g := newGrid(Cell{-10, -10}, Cell{20, 20})
	for _, d := range neighbors {
		g.blocked[Cell{d.X, d.Y}] = true
	}
	s := NewSearch()
	goal := cellBox(Cell{8, 8}, Cell{8, 8})

	_, err := s.Find(agentAt(Cell{0, 0}), g, goal)
	assert.ErrorIs(t, err, ErrNoPath)

	require.NoError(t, s.Begin(agentAt(Cell{0, 0}), g, goal))
	assert.Equal(t, Failed, s.Step(10))
	assert.Equal(t, 1, s.Iterations())
	assert.Nil(t, s.Path())
	s.Reset()
}

func TestGoalOutsideMap(t *testing.T) {
	g := newGrid(Cell{0, 0}, Cell{10, 10})
	s := NewSearch()
	_, err := s.Find(agentAt(Cell{1, 1}), g, cellBox(Cell{50, 50}, Cell{51, 51}))
	assert.ErrorIs(t, err, ErrGoalOutside)
	assert.False(t, s.Active())
}

func blockColumn(g *stubGrid, x, y0, y1 int32) {
	for y := y0; y <= y1; y++ {
		g.blocked[Cell{x, y}] = true
	}
}

func TestFindIsDeterministic(t *testing.T) {
	g := newGrid(Cell{0, 0}, Cell{32, 6})
	blockColumn(g, 10, 2, 6)
	blockColumn(g, 20, 0, 4)
	s := NewSearch()
	goal := cellBox(Cell{30, 1}, Cell{30, 1})

	first, err := s.Find(agentAt(Cell{2, 5}), g, goal)
	require.NoError(t, err)
	second, err := s.Find(agentAt(Cell{2, 5}), g, goal)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assertWalkable(t, first)
	for _, c := range first {
		assert.False(t, g.blocked[c], "path crosses wall at %v", c)
	}
	assert.Equal(t, Cell{30, 1}, first[len(first)-1])
}

func TestStepResumesAcrossCalls(t *testing.T) {
	g := newGrid(Cell{0, 0}, Cell{32, 6})
	blockColumn(g, 10, 2, 6)
	goal := cellBox(Cell{30, 5}, Cell{30, 5})

	whole, err := NewSearch().Find(agentAt(Cell{2, 5}), g, goal)
	require.NoError(t, err)

	s := NewSearch()
	require.NoError(t, s.Begin(agentAt(Cell{2, 5}), g, goal))
	calls := 0
	st := Pending
	for st == Pending {
		st = s.Step(3)
		calls++
	}
	require.Equal(t, Found, st)
	assert.Greater(t, calls, 1)
	assert.Equal(t, whole, s.Path())
	assert.LessOrEqual(t, s.Iterations(), s.Limit())
	s.Reset()
	assert.Zero(t, s.Expanded())
}

func TestIterationCapBoundsSearch(t *testing.T) {
	g := newGrid(Cell{0, 0}, Cell{40, 40})
	// a long wall forces a detour far beyond 1+5*distance
	for y := int32(0); y < 40; y++ {
		g.blocked[Cell{3, y}] = true
	}
	s := NewSearch()
	require.NoError(t, s.Begin(agentAt(Cell{1, 0}), g, cellBox(Cell{5, 0}, Cell{5, 0})))
	assert.Equal(t, 21, s.Limit())
	for s.Step(1) == Pending {
	}
	assert.Equal(t, Failed, s.Status())
	assert.Equal(t, s.Limit(), s.Iterations())
}

func TestZeroCostTerrainFilter(t *testing.T) {
	g := newGrid(Cell{0, 0}, Cell{10, 4})
	for y := int32(0); y <= 4; y++ {
		g.terrain[Cell{5, y}] = "water"
	}
	goal := cellBox(Cell{8, 2}, Cell{8, 2})
	costs := map[string]int{"water": 0}

	careful := agentAt(Cell{1, 2})
	careful.mind = stubMind{profile: "landlubber", costs: costs, zeroImpassable: true}
	_, err := NewSearch().Find(careful, g, goal)
	assert.ErrorIs(t, err, ErrNoPath)

	// the default profile ignores the filter
	plain := agentAt(Cell{1, 2})
	plain.mind = stubMind{profile: DefaultProfile, costs: costs, zeroImpassable: true}
	path, err := NewSearch().Find(plain, g, goal)
	require.NoError(t, err)
	assertWalkable(t, path)
}

func TestTerrainCostShapesPath(t *testing.T) {
	g := newGrid(Cell{0, 0}, Cell{12, 6})
	for x := int32(2); x <= 10; x++ {
		for y := int32(1); y <= 5; y++ {
			g.terrain[Cell{x, y}] = "mud"
		}
	}
	a := agentAt(Cell{0, 3})
	a.mind = stubMind{profile: DefaultProfile, costs: map[string]int{"mud": 10}}

	path, err := NewSearch().Find(a, g, cellBox(Cell{12, 3}, Cell{12, 3}))
	require.NoError(t, err)
	for _, c := range path {
		assert.NotEqual(t, "mud", g.terrain[c], "path crosses mud at %v", c)
	}
}

func TestHolesAndCliffs(t *testing.T) {
	g := newGrid(Cell{0, 0}, Cell{10, 4})
	for y := int32(0); y <= 4; y++ {
		if y != 2 {
			g.holes[Cell{5, y}] = true
		}
	}
	goal := cellBox(Cell{9, 0}, Cell{9, 0})
	path, err := NewSearch().Find(agentAt(Cell{1, 0}), g, goal)
	require.NoError(t, err)
	assert.Contains(t, path, Cell{5, 2})

	g.holes[Cell{5, 2}] = true
	_, err = NewSearch().Find(agentAt(Cell{1, 0}), g, goal)
	assert.ErrorIs(t, err, ErrNoPath)

	// a plateau too high to climb in one step, then a staircase up to it
	cliff := newGrid(Cell{0, 0}, Cell{10, 0})
	for x := int32(5); x <= 10; x++ {
		cliff.tops[Cell{x, 0}] = 60
	}
	_, err = NewSearch().Find(agentAt(Cell{0, 0}), cliff, cellBox(Cell{8, 0}, Cell{8, 0}))
	assert.ErrorIs(t, err, ErrNoPath)

	cliff.tops[Cell{2, 0}] = 20
	cliff.tops[Cell{3, 0}] = 40
	cliff.tops[Cell{4, 0}] = 50
	path, err = NewSearch().Find(agentAt(Cell{0, 0}), cliff, cellBox(Cell{8, 0}, Cell{8, 0}))
	require.NoError(t, err)
	assert.Equal(t, Cell{8, 0}, path[len(path)-1])
}

func TestCellOfFloorsNegatives(t *testing.T) {
	assert.Equal(t, Cell{-1, -1}, CellOf(geom.Vec3{X: -1, Y: -20}))
	assert.Equal(t, Cell{-2, 0}, CellOf(geom.Vec3{X: -21, Y: 19}))
	assert.Equal(t, geom.Vec3{X: 110, Y: 50, Z: 7}, Cell{5, 2}.Center(7))
}
