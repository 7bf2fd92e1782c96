package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/worldnav/internal/pathfind"
	"github.com/l1jgo/worldnav/internal/world"
)

const testGrid = `# 5x3 yard
1,1,2,2,1
1,4,0,3,3
5,1,1,x,1
`

func TestLayoutFromGrid(t *testing.T) {
	rows, err := ReadTileGrid(writeFile(t, "yard.txt", testGrid))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []byte{5, 1, 1, 0, 1}, rows[2], "bad values read as holes")

	l, err := LayoutFromGrid("yard", rows)
	require.NoError(t, err)
	assert.Equal(t, Rect{Length: 100, Width: 60, Height: gridHeight}, l.Bounds)
	assert.Equal(t, []FloorFill{
		{Object: "grass", FromX: 0, FromY: 0, ToX: 1, ToY: 0},
		{Object: "road", FromX: 2, FromY: 0, ToX: 3, ToY: 0},
		{Object: "grass", FromX: 4, FromY: 0, ToX: 4, ToY: 0},
		{Object: "grass", FromX: 0, FromY: 1, ToX: 1, ToY: 1},
		{Object: "swamp", FromX: 3, FromY: 1, ToX: 4, ToY: 1},
		{Object: "grass", FromX: 0, FromY: 2, ToX: 2, ToY: 2},
		{Object: "grass", FromX: 4, FromY: 2, ToX: 4, ToY: 2},
	}, l.Floors)
	assert.Equal(t, []PlacementDef{
		{Object: "wall", X: 20, Y: 20},
		{Object: "crate", X: 0, Y: 40},
	}, l.Placements)

	// written out and read back, the layout builds the same map
	out, err := yaml.Marshal(l)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "yard.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))
	m, err := LoadMap(path, nil, nil)
	require.NoError(t, err)

	_, ok := m.Ground(pathfind.Cell{X: 2, Y: 1}, 0)
	assert.False(t, ok, "hole")
	g, ok := m.Ground(pathfind.Cell{X: 3, Y: 0}, 0)
	require.True(t, ok)
	assert.Equal(t, "road", g.Terrain)
	assert.True(t, m.Obstructed(pathfind.Cell{X: 1, Y: 1}, 0, world.DefaultHeight, nil))
	g, ok = m.Ground(pathfind.Cell{X: 0, Y: 2}, 0)
	require.True(t, ok)
	assert.Equal(t, "wood", g.Terrain, "crate top is the step")
}

func TestLayoutFromGridErrors(t *testing.T) {
	_, err := LayoutFromGrid("empty", nil)
	assert.Error(t, err)
	_, err = LayoutFromGrid("bad", [][]byte{{1, 9}})
	assert.ErrorContains(t, err, "unknown tile code 9")
}
