package pathfind

// Cache maps visited cells to their node index for the duration of a search.
type Cache struct {
	m map[uint64]int32
}

func NewCache() *Cache {
	return &Cache{m: make(map[uint64]int32, poolInitial)}
}

func cellKey(c Cell) uint64 {
	return uint64(uint32(c.X))<<32 | uint64(uint32(c.Y))
}

func (c *Cache) Add(cell Cell, idx int32) { c.m[cellKey(cell)] = idx }

func (c *Cache) Lookup(cell Cell) (int32, bool) {
	idx, ok := c.m[cellKey(cell)]
	return idx, ok
}

func (c *Cache) Len() int { return len(c.m) }

func (c *Cache) Reset() { clear(c.m) }
