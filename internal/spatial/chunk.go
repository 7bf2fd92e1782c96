package spatial

import (
	"slices"

	"github.com/l1jgo/worldnav/internal/geom"
)

const (
	// MaxEntries is the number of entries a leaf holds before it tries to split.
	MaxEntries = 16
	// MinSize is the smallest extent a child node may have along any axis.
	MinSize = 240
)

// Octant bits. A child index is LOW/HIGH on X, Y and Z combined.
const (
	highX = 1
	highY = 2
	highZ = 4
)

// Entry is a placed object together with the box it occupies.
type Entry struct {
	Object any
	Box    geom.Box
}

// Chunk is one node of the adaptive octree. A chunk without a split point is
// a leaf holding its entries directly; a split chunk keeps only the entries
// that straddle one of its split planes and pushes the rest into children.
//
// Splitting is permanent. Bounding boxes grow on insert and are never shrunk.
// Single-goroutine access only.
type Chunk struct {
	box       geom.Box
	populated bool // box is meaningful

	split    geom.Vec3
	divided  bool
	children [8]*Chunk
	entries  []*Entry
}

// New returns an empty root chunk.
func New() *Chunk {
	return &Chunk{}
}

// IsLeaf reports whether the chunk has not been split.
func (c *Chunk) IsLeaf() bool { return !c.divided }

// Bounds returns the union of every entry ever inserted beneath c.
func (c *Chunk) Bounds() (geom.Box, bool) { return c.box, c.populated }

// SplitPoint returns the split point of an internal node.
func (c *Chunk) SplitPoint() (geom.Vec3, bool) { return c.split, c.divided }

// Child returns the child in octant i, or nil.
func (c *Chunk) Child(i int) *Chunk { return c.children[i] }

// Entries returns the entries stored directly in c (not in its children).
func (c *Chunk) Entries() []*Entry { return c.entries }

// Len counts every entry stored in c and below.
func (c *Chunk) Len() int {
	n := len(c.entries)
	for _, ch := range c.children {
		if ch != nil {
			n += ch.Len()
		}
	}
	return n
}

// CanSplit reports whether the chunk is large enough to be divided further.
func (c *Chunk) CanSplit() bool {
	size := c.box.Size()
	const min2 = MinSize * 2
	return size.X >= min2 || size.Y >= min2 || size.Z >= min2
}

func (c *Chunk) grow(b geom.Box) {
	if !c.populated {
		c.box = b
		c.populated = true
		return
	}
	c.box = c.box.Union(b)
}

// Insert adds e to the tree rooted at c.
func (c *Chunk) Insert(e *Entry) {
	c.grow(e.Box)

	if !c.divided {
		if len(c.entries) < MaxEntries || !c.CanSplit() {
			c.entries = append(c.entries, e)
			return
		}

		c.divide()

		// redistribute everything that fits into a single octant
		kept := c.entries[:0]
		for _, old := range c.entries {
			var oct [8]int
			if c.octants(&oct, old.Box) == 1 {
				c.childAt(oct[0], old.Box).Insert(old)
				continue
			}
			kept = append(kept, old)
		}
		clear(c.entries[len(kept):])
		c.entries = kept
	}

	var oct [8]int
	if c.octants(&oct, e.Box) == 1 {
		c.childAt(oct[0], e.Box).Insert(e)
		return
	}
	c.entries = append(c.entries, e)
}

// Remove takes e out of the tree. It returns false if e was not found.
// Leaf children left empty are dropped.
func (c *Chunk) Remove(e *Entry) bool {
	if !c.divided {
		return c.removeLocal(e)
	}

	var oct [8]int
	if c.octants(&oct, e.Box) != 1 {
		return c.removeLocal(e)
	}

	child := c.children[oct[0]]
	if child == nil || !child.Remove(e) {
		return false
	}
	if !child.divided && len(child.entries) == 0 {
		c.children[oct[0]] = nil
	}
	return true
}

func (c *Chunk) removeLocal(e *Entry) bool {
	i := slices.Index(c.entries, e)
	if i < 0 {
		return false
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	return true
}

// divide fixes the split point: the midpoint of each axis, but never closer
// than MinSize to the minimum corner, aligned down to a multiple of MinSize.
func (c *Chunk) divide() {
	size := c.box.Size()
	c.split = geom.Vec3{
		X: c.box.Min.X + max(MinSize, size.X/2),
		Y: c.box.Min.Y + max(MinSize, size.Y/2),
		Z: c.box.Min.Z + max(MinSize, size.Z/2),
	}
	c.split.X -= c.split.X % MinSize
	c.split.Y -= c.split.Y % MinSize
	c.split.Z -= c.split.Z % MinSize
	c.divided = true
}

func (c *Chunk) childAt(i int, b geom.Box) *Chunk {
	ch := c.children[i]
	if ch == nil {
		ch = &Chunk{box: b, populated: true}
		c.children[i] = ch
	}
	return ch
}

// octants fills out with the child indices an entry box belongs to and
// returns how many there are (1, 2, 4 or 8). On each axis a box is low when
// max <= split, high when min >= split, and straddles otherwise.
func (c *Chunk) octants(out *[8]int, b geom.Box) int {
	n := 1
	out[0] = 0
	n = c.axis(out, n, b.Min.X, b.Max.X, c.split.X, highX, false)
	n = c.axis(out, n, b.Min.Y, b.Max.Y, c.split.Y, highY, false)
	n = c.axis(out, n, b.Min.Z, b.Max.Z, c.split.Z, highZ, false)
	return n
}

// queryOctants is octants for a query box: a child is a candidate whenever
// some entry it could hold may overlap the box.
func (c *Chunk) queryOctants(out *[8]int, b geom.Box) int {
	n := 1
	out[0] = 0
	n = c.axis(out, n, b.Min.X, b.Max.X, c.split.X, highX, true)
	n = c.axis(out, n, b.Min.Y, b.Max.Y, c.split.Y, highY, true)
	n = c.axis(out, n, b.Min.Z, b.Max.Z, c.split.Z, highZ, true)
	return n
}

func (c *Chunk) axis(out *[8]int, n int, lo, hi, split int32, bit int, query bool) int {
	var low, high bool
	if query {
		low = lo <= split
		high = hi >= split
	} else {
		low = lo < split
		high = !low || hi > split
	}
	switch {
	case low && high:
		for i := 0; i < n; i++ {
			out[i+n] = out[i] | bit
		}
		return n * 2
	case high:
		for i := 0; i < n; i++ {
			out[i] |= bit
		}
	}
	return n
}

// QueryBox returns every entry whose box overlaps [min, max].
func (c *Chunk) QueryBox(min, max geom.Vec3) []*Entry {
	return c.CollectBox(nil, geom.Box{Min: min, Max: max})
}

// CollectBox appends to dst every entry overlapping q.
func (c *Chunk) CollectBox(dst []*Entry, q geom.Box) []*Entry {
	if !c.populated || !c.box.Overlaps(q) {
		return dst
	}
	for _, e := range c.entries {
		if e.Box.Overlaps(q) {
			dst = append(dst, e)
		}
	}
	if !c.divided {
		return dst
	}
	var oct [8]int
	n := c.queryOctants(&oct, q)
	for i := 0; i < n; i++ {
		if ch := c.children[oct[i]]; ch != nil {
			dst = ch.CollectBox(dst, q)
		}
	}
	return dst
}

// View is a camera-style query volume: a range on X, and a single merged
// screen-vertical range over Y and Z where v = y - z.
type View struct {
	X0, X1 int32
	V0, V1 int32
}

// NewView builds the view of the given length and width whose top-left
// corner is at origin.
func NewView(origin geom.Vec3, length, width int32) View {
	v0 := origin.Y - origin.Z
	return View{X0: origin.X, X1: origin.X + length, V0: v0, V1: v0 + width}
}

// Sees reports whether b is at least partially visible in v.
func (v View) Sees(b geom.Box) bool {
	bv0 := b.Min.Y - b.Max.Z
	bv1 := b.Max.Y - b.Min.Z
	return b.Min.X <= v.X1 && v.X0 <= b.Max.X && bv0 <= v.V1 && v.V0 <= bv1
}

// QueryView returns every entry visible through the view at origin.
func (c *Chunk) QueryView(origin geom.Vec3, length, width int32) []*Entry {
	return c.CollectView(nil, NewView(origin, length, width))
}

// CollectView appends to dst every entry visible in v. Children are pruned by
// their bounding boxes only; the split point says nothing about the merged axis.
func (c *Chunk) CollectView(dst []*Entry, v View) []*Entry {
	if !c.populated || !v.Sees(c.box) {
		return dst
	}
	for _, e := range c.entries {
		if v.Sees(e.Box) {
			dst = append(dst, e)
		}
	}
	for _, ch := range c.children {
		if ch != nil {
			dst = ch.CollectView(dst, v)
		}
	}
	return dst
}
