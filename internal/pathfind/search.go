package pathfind

import (
	"errors"
	"math"

	"github.com/l1jgo/worldnav/internal/geom"
)

var (
	ErrGoalOutside = errors.New("pathfind: goal outside map bounds")
	ErrNoPath      = errors.New("pathfind: no path to goal")
)

// Status is the outcome of a search so far.
type Status uint8

const (
	Pending Status = iota
	Found
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Found:
		return "found"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Search is a bounded, resumable A* over grid cells. It owns its node pool,
// visited cache and open list; Begin reuses them from the previous search.
//
// A search is started with Begin and advanced with Step, which may be called
// across several ticks with a small budget each time. Reset must be called
// after a terminal status before the primitives are reused.
type Search struct {
	pool  *Pool
	cache *Cache
	open  *OpenList

	agent  Agent
	grid   Grid
	mind   Mind
	height int32
	filter bool

	goalMin, goalMax Cell
	target           Cell

	limit      int
	iterations int
	status     Status
	active     bool
	path       []Cell
}

func NewSearch() *Search {
	pool := NewPool()
	return &Search{
		pool:  pool,
		cache: NewCache(),
		open:  NewOpenList(pool),
	}
}

// Begin resets the search and seeds it with the agent's current cell.
func (s *Search) Begin(agent Agent, grid Grid, goal geom.Box) error {
	s.Reset()
	if !grid.InBounds(goal) {
		return ErrGoalOutside
	}

	s.agent = agent
	s.grid = grid
	s.mind = agent.Mind()
	s.height = agent.Height()
	s.filter = s.mind != nil && s.mind.Profile() != DefaultProfile && s.mind.ZeroCostImpassable()

	s.goalMin = CellOf(goal.Min)
	s.goalMax = CellOf(goal.Max)
	s.target = CellOf(goal.Center())

	center := agent.Center()
	start := CellOf(center)
	z := center.Z
	if g, ok := grid.Ground(start, z); ok {
		z = g.Top
	}

	s.limit = 1 + 5*int(start.Manhattan(s.target))

	root := s.pool.Acquire()
	n := s.pool.At(root)
	n.Parent = root
	n.Pos = geom.Vec3{X: start.X, Y: start.Y, Z: z}
	n.Terrain = 1
	n.Total = s.heuristic(start)
	n.List = Open
	s.cache.Add(start, root)
	s.open.Push(root)

	s.status = Pending
	s.active = true
	return nil
}

// Step runs up to budget iterations and returns the resulting status.
func (s *Search) Step(budget int) Status {
	if !s.active || s.status != Pending {
		return s.status
	}
	for budget > 0 && s.iterations < s.limit && s.open.Len() > 0 {
		budget--
		s.iterations++

		cur := s.open.PopMin()
		n := s.pool.At(cur)
		if s.inGoal(n.Cell()) {
			s.path = s.trace(cur)
			s.status = Found
			return s.status
		}
		n.List = Closed
		s.expand(cur)
	}
	if s.open.Len() == 0 || s.iterations >= s.limit {
		s.status = Failed
	}
	return s.status
}

func (s *Search) expand(cur int32) {
	parent := *s.pool.At(cur)
	for _, d := range neighbors {
		c := Cell{X: parent.Pos.X + d.X, Y: parent.Pos.Y + d.Y}

		if idx, ok := s.cache.Lookup(c); ok {
			n := s.pool.At(idx)
			if n.List != Open || abs(n.Pos.Z-parent.Pos.Z) > MaxStep {
				continue
			}
			step := d.Z * n.Terrain
			if cost := parent.Cost + step; cost < n.Cost {
				n.Cost = cost
				n.Step = step
				n.Parent = cur
				n.Total = cost + s.heuristic(c)
				s.open.Rebalance(idx)
			}
			continue
		}

		g, ok := s.grid.Ground(c, parent.Pos.Z)
		if !ok {
			continue
		}
		mult := int32(1)
		if s.mind != nil {
			tc := s.mind.TerrainCost(g.Terrain)
			if tc == 0 && s.filter {
				continue
			}
			if tc > 0 {
				mult = int32(tc)
			}
		}
		if parent.Pos.Z-g.Top > MaxStep {
			continue
		}
		if s.grid.Obstructed(c, g.Top, s.height, s.agent) {
			continue
		}

		idx := s.pool.Acquire()
		n := s.pool.At(idx)
		n.Parent = cur
		n.Pos = geom.Vec3{X: c.X, Y: c.Y, Z: g.Top}
		n.Terrain = mult
		n.Step = d.Z * mult
		n.Cost = parent.Cost + n.Step
		n.Total = n.Cost + s.heuristic(c)
		n.List = Open
		s.cache.Add(c, idx)
		s.open.Push(idx)
	}
}

func (s *Search) heuristic(c Cell) int32 {
	return c.Manhattan(s.target) * CellSize
}

func (s *Search) inGoal(c Cell) bool {
	return c.X >= s.goalMin.X && c.X <= s.goalMax.X &&
		c.Y >= s.goalMin.Y && c.Y <= s.goalMax.Y
}

func (s *Search) trace(idx int32) []Cell {
	var path []Cell
	for {
		n := s.pool.At(idx)
		path = append(path, n.Cell())
		if n.Parent == idx {
			break
		}
		idx = n.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Path returns the path found, start cell first. It is nil unless Found.
func (s *Search) Path() []Cell { return s.path }

func (s *Search) Status() Status { return s.status }

// Active reports whether Begin has been called since the last Reset.
func (s *Search) Active() bool { return s.active }

func (s *Search) Limit() int { return s.limit }

func (s *Search) Iterations() int { return s.iterations }

// Remaining is the number of iterations left before the search gives up.
func (s *Search) Remaining() int { return s.limit - s.iterations }

// Expanded is the number of nodes drawn from the pool by the current search.
func (s *Search) Expanded() int { return s.pool.Len() }

// Reset returns the pool, cache and open list to a reusable state.
func (s *Search) Reset() {
	s.pool.Reset()
	s.cache.Reset()
	s.open.Reset()
	s.agent = nil
	s.grid = nil
	s.mind = nil
	s.path = nil
	s.limit = 0
	s.iterations = 0
	s.status = Pending
	s.active = false
}

// Find runs a complete search in one call.
func (s *Search) Find(agent Agent, grid Grid, goal geom.Box) ([]Cell, error) {
	if err := s.Begin(agent, grid, goal); err != nil {
		return nil, err
	}
	st := s.Step(math.MaxInt)
	path := s.path
	s.Reset()
	if st != Found {
		return nil, ErrNoPath
	}
	return path, nil
}
