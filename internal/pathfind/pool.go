package pathfind

const (
	poolInitial = 200
	poolGrow    = 60
)

// Pool is an arena of search nodes addressed by index. Indices stay valid
// when the arena grows; pointers returned by At do not survive an Acquire.
type Pool struct {
	nodes []Node
	used  int32
}

func NewPool() *Pool {
	return &Pool{nodes: make([]Node, poolInitial)}
}

// Acquire returns the index of a zeroed node, growing the arena if needed.
func (p *Pool) Acquire() int32 {
	if int(p.used) == len(p.nodes) {
		p.nodes = append(p.nodes, make([]Node, poolGrow)...)
	}
	i := p.used
	p.used++
	p.nodes[i] = Node{}
	return i
}

func (p *Pool) At(i int32) *Node { return &p.nodes[i] }

// Len is the number of nodes handed out since the last Reset.
func (p *Pool) Len() int { return int(p.used) }

// Cap is the current arena size.
func (p *Pool) Cap() int { return len(p.nodes) }

// Reset rewinds the arena without releasing memory.
func (p *Pool) Reset() { p.used = 0 }
