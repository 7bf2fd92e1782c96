// mapconv converts a CSV tile grid into a map YAML file for worldnav.
//
// Each line of the input is one row of cells; each value is a tile code:
//
//	0 hole, 1 grass, 2 road, 3 swamp, 4 wall, 5 crate
//
// Usage:
//
//	go run ./cmd/mapconv <tiles.txt> [output.yaml] [name]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/worldnav/internal/data"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: mapconv <tiles.txt> [output.yaml] [name]")
		os.Exit(2)
	}
	inputPath := os.Args[1]
	outputPath := filepath.Join("data", "yaml", "map.yaml")
	if len(os.Args) >= 3 {
		outputPath = os.Args[2]
	}
	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if len(os.Args) >= 4 {
		name = os.Args[3]
	}

	rows, err := data.ReadTileGrid(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", inputPath, err)
		os.Exit(1)
	}
	layout, err := data.LayoutFromGrid(name, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error converting: %v\n", err)
		os.Exit(1)
	}
	// Fail here rather than at server start.
	if _, err := layout.Build(nil, nil); err != nil {
		fmt.Fprintf(os.Stderr, "error building map: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}
	yamlData, err := yaml.Marshal(layout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshalling YAML: %v\n", err)
		os.Exit(1)
	}
	header := fmt.Sprintf("# Map %s - converted from %s\n\n", name, filepath.Base(inputPath))
	if err := os.WriteFile(outputPath, append([]byte(header), yamlData...), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d floor runs and %d placements to %s\n", len(layout.Floors), len(layout.Placements), outputPath)
}
