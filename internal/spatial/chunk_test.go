package spatial

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/worldnav/internal/geom"
)

func cube(x, y, z, size int32) *Entry {
	return &Entry{Box: geom.BoxAt(geom.Vec3{X: x, Y: y, Z: z}, size, size, size)}
}

func bruteForce(live map[*Entry]struct{}, q geom.Box) map[*Entry]struct{} {
	out := make(map[*Entry]struct{})
	for e := range live {
		if e.Box.Overlaps(q) {
			out[e] = struct{}{}
		}
	}
	return out
}

func asSet(entries []*Entry) map[*Entry]struct{} {
	out := make(map[*Entry]struct{}, len(entries))
	for _, e := range entries {
		out[e] = struct{}{}
	}
	return out
}

func randomBox(rng *rand.Rand, extent, maxSize int32) geom.Box {
	pos := geom.Vec3{
		X: rng.Int31n(extent) - extent/4,
		Y: rng.Int31n(extent) - extent/4,
		Z: rng.Int31n(extent / 4),
	}
	return geom.BoxAt(pos, 1+rng.Int31n(maxSize), 1+rng.Int31n(maxSize), rng.Int31n(maxSize/2))
}

func TestQueryBoxMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	root := New()
	live := make(map[*Entry]struct{})
	var order []*Entry

	for round := 0; round < 600; round++ {
		if len(order) > 0 && rng.Intn(4) == 0 {
			i := rng.Intn(len(order))
			e := order[i]
			order = append(order[:i], order[i+1:]...)
			require.True(t, root.Remove(e))
			delete(live, e)
		} else {
			e := &Entry{Object: round, Box: randomBox(rng, 4000, 300)}
			root.Insert(e)
			live[e] = struct{}{}
			order = append(order, e)
		}

		if round%10 == 0 {
			q := randomBox(rng, 4000, 1200)
			assert.Equal(t, bruteForce(live, q), asSet(root.QueryBox(q.Min, q.Max)), "round %d", round)
		}
	}

	require.Equal(t, len(live), root.Len())
	require.False(t, root.IsLeaf(), "600 scattered inserts should have split the root")

	bounds, ok := root.Bounds()
	require.True(t, ok)
	for e := range live {
		assert.True(t, bounds.Contains(e.Box))
	}

	everything := geom.Box{Min: geom.Vec3{X: -5000, Y: -5000, Z: -5000}, Max: geom.Vec3{X: 9000, Y: 9000, Z: 9000}}
	assert.Len(t, root.QueryBox(everything.Min, everything.Max), len(live))
}

func TestSplitAfterCapacity(t *testing.T) {
	root := New()
	var all []*Entry
	for i := int32(0); i < 20; i++ {
		e := cube(i*40, i*40, 0, 20)
		all = append(all, e)

		before := root.QueryBox(geom.Vec3{}, geom.Vec3{X: 1000, Y: 1000, Z: 100})
		root.Insert(e)

		switch {
		case i < MaxEntries:
			assert.True(t, root.IsLeaf(), "insert %d", i+1)
		default:
			assert.False(t, root.IsLeaf(), "insert %d", i+1)
		}
		after := root.QueryBox(geom.Vec3{}, geom.Vec3{X: 1000, Y: 1000, Z: 100})
		assert.Len(t, after, len(before)+1)
	}

	split, ok := root.SplitPoint()
	require.True(t, ok)
	assert.Equal(t, geom.Vec3{X: 240, Y: 240, Z: 240}, split)

	var children int
	for i := 0; i < 8; i++ {
		if root.Child(i) != nil {
			children++
		}
	}
	assert.Equal(t, 2, children)
	assert.NotNil(t, root.Child(0))
	assert.NotNil(t, root.Child(highX|highY))

	got := root.QueryBox(geom.Vec3{}, geom.Vec3{X: 1000, Y: 1000, Z: 100})
	assert.Equal(t, asSet(all), asSet(got))
}

func TestStraddlingEntriesStayInParent(t *testing.T) {
	root := New()
	for i := int32(0); i < 17; i++ {
		root.Insert(cube(i*40, 0, 0, 20))
	}
	require.False(t, root.IsLeaf())

	wide := &Entry{Box: geom.BoxAt(geom.Vec3{X: 200, Y: 0, Z: 0}, 100, 10, 10)}
	root.Insert(wide)
	assert.Contains(t, root.Entries(), wide)

	assert.True(t, root.Remove(wide))
	assert.NotContains(t, root.Entries(), wide)
	assert.False(t, root.Remove(wide))
}

func TestRemoveDropsEmptyLeafChild(t *testing.T) {
	root := New()
	var high []*Entry
	for i := int32(0); i < 20; i++ {
		e := cube(i*40, i*40, 0, 20)
		root.Insert(e)
		if i >= 6 {
			high = append(high, e)
		}
	}
	require.NotNil(t, root.Child(highX|highY))

	for _, e := range high {
		require.True(t, root.Remove(e))
	}
	assert.Nil(t, root.Child(highX|highY))
	assert.NotNil(t, root.Child(0))
	assert.False(t, root.IsLeaf(), "splitting is permanent")
	assert.Equal(t, 6, root.Len())
}

func TestSmallChunkNeverSplits(t *testing.T) {
	root := New()
	for i := int32(0); i < 40; i++ {
		root.Insert(cube(i%10*10, i/10*10, 0, 5))
	}
	assert.True(t, root.IsLeaf())
	assert.Len(t, root.Entries(), 40)
}

func TestQueryView(t *testing.T) {
	root := New()
	floor := &Entry{Object: "floor", Box: geom.BoxAt(geom.Vec3{X: 0, Y: 0, Z: 0}, 40, 40, 0)}
	tower := &Entry{Object: "tower", Box: geom.BoxAt(geom.Vec3{X: 100, Y: 200, Z: 0}, 20, 20, 150)}
	far := &Entry{Object: "far", Box: geom.BoxAt(geom.Vec3{X: 900, Y: 0, Z: 0}, 20, 20, 20)}
	for _, e := range []*Entry{floor, tower, far} {
		root.Insert(e)
	}

	// the tower base lies past the bottom edge but its top reaches into view
	got := asSet(root.QueryView(geom.Vec3{X: 0, Y: 0, Z: 0}, 200, 100))
	assert.Contains(t, got, floor)
	assert.Contains(t, got, tower)
	assert.NotContains(t, got, far)
}

func TestWriteDOT(t *testing.T) {
	root := New()
	for i := int32(0); i < 20; i++ {
		root.Insert(cube(i*40, i*40, 0, 20))
	}
	var buf bytes.Buffer
	require.NoError(t, root.WriteDOT(&buf))
	out := buf.String()
	assert.Contains(t, out, "digraph chunk_debug {")
	assert.Contains(t, out, "n0 -> n1;")
	assert.Contains(t, out, "n0 -> n2;")
}
