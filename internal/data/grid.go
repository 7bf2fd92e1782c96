package data

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/l1jgo/worldnav/internal/pathfind"
)

// Tile codes of a tile grid file.
const (
	TileHole  byte = 0
	TileGrass byte = 1
	TileRoad  byte = 2
	TileSwamp byte = 3
	TileWall  byte = 4 // wall standing on grass
	TileCrate byte = 5 // crate standing on grass
)

// gridHeight is the bounds height given to converted maps.
const gridHeight = 400

var gridObjects = []ObjectDef{
	{Name: "grass", Kind: "floor", Terrain: "grass", Length: pathfind.CellSize, Width: pathfind.CellSize},
	{Name: "road", Kind: "floor", Terrain: "road", Length: pathfind.CellSize, Width: pathfind.CellSize},
	{Name: "swamp", Kind: "floor", Terrain: "swamp", Length: pathfind.CellSize, Width: pathfind.CellSize},
	{Name: "wall", Kind: "wall", Solid: true, Length: pathfind.CellSize, Width: pathfind.CellSize, Height: 40},
	{Name: "crate", Kind: "prop", Solid: true, Terrain: "wood", Length: pathfind.CellSize, Width: pathfind.CellSize, Height: 20},
}

// ReadTileGrid reads a CSV tile file: each line is a row of comma-separated
// tile codes, one per cell. Blank lines and lines starting with '#' are
// skipped; unparsable values read as holes.
func ReadTileGrid(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		toks := strings.Split(line, ",")
		row := make([]byte, len(toks))
		for x, tok := range toks {
			val, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 8)
			if err != nil {
				val = uint64(TileHole)
			}
			row[x] = byte(val)
		}
		rows = append(rows, row)
	}
	return rows, scanner.Err()
}

// LayoutFromGrid converts a tile grid into a layout. Row y of the grid is
// cell row y; consecutive equal floor tiles in a row become one fill.
func LayoutFromGrid(name string, rows [][]byte) (*Layout, error) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return nil, fmt.Errorf("grid %s is empty", name)
	}

	l := &Layout{
		Name:    name,
		Bounds:  Rect{Length: int32(width) * pathfind.CellSize, Width: int32(len(rows)) * pathfind.CellSize, Height: gridHeight},
		Objects: gridObjects,
	}
	for y, row := range rows {
		run, start := "", 0
		flush := func(end int) {
			if run != "" {
				l.Floors = append(l.Floors, FloorFill{Object: run, FromX: int32(start), FromY: int32(y), ToX: int32(end - 1), ToY: int32(y)})
			}
		}
		for x, tile := range row {
			floor, prop, err := tileParts(tile)
			if err != nil {
				return nil, fmt.Errorf("grid %s: cell %d,%d: %w", name, x, y, err)
			}
			if floor != run {
				flush(x)
				run, start = floor, x
			}
			if prop != "" {
				origin := pathfind.Cell{X: int32(x), Y: int32(y)}.Origin(0)
				l.Placements = append(l.Placements, PlacementDef{Object: prop, X: origin.X, Y: origin.Y})
			}
		}
		flush(len(row))
	}
	return l, nil
}

func tileParts(tile byte) (floor, prop string, err error) {
	switch tile {
	case TileHole:
		return "", "", nil
	case TileGrass:
		return "grass", "", nil
	case TileRoad:
		return "road", "", nil
	case TileSwamp:
		return "swamp", "", nil
	case TileWall:
		return "grass", "wall", nil
	case TileCrate:
		return "grass", "crate", nil
	}
	return "", "", fmt.Errorf("unknown tile code %d", tile)
}
