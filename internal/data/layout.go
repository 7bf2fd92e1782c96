package data

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/pathfind"
	"github.com/l1jgo/worldnav/internal/world"
)

// Rect is an axis-aligned volume given by its minimum corner and size.
type Rect struct {
	X      int32 `yaml:"x"`
	Y      int32 `yaml:"y"`
	Z      int32 `yaml:"z,omitempty"`
	Length int32 `yaml:"length"`
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
}

func (r Rect) Box() geom.Box {
	return geom.BoxAt(geom.Vec3{X: r.X, Y: r.Y, Z: r.Z}, r.Length, r.Width, r.Height)
}

// ObjectDef is a placeable object template.
type ObjectDef struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind,omitempty"`
	Solid   bool   `yaml:"solid,omitempty"`
	Terrain string `yaml:"terrain,omitempty"`
	Length  int32  `yaml:"length"`
	Width   int32  `yaml:"width"`
	Height  int32  `yaml:"height"`
}

// FloorFill places one object per cell over an inclusive cell rectangle.
type FloorFill struct {
	Object string `yaml:"object"`
	FromX  int32  `yaml:"from_x"`
	FromY  int32  `yaml:"from_y"`
	ToX    int32  `yaml:"to_x"`
	ToY    int32  `yaml:"to_y"`
	Z      int32  `yaml:"z,omitempty"`
}

// PlacementDef places one object at a world position.
type PlacementDef struct {
	Object string `yaml:"object"`
	X      int32  `yaml:"x"`
	Y      int32  `yaml:"y"`
	Z      int32  `yaml:"z,omitempty"`
}

type ZoneDef struct {
	Name string `yaml:"name"`
	Rect `yaml:",inline"`
}

// CharacterDef spawns a character. An empty UID gets a random one; Speed is
// a pointer so that an explicit 0 (immobile) differs from "use default".
type CharacterDef struct {
	UID      string   `yaml:"uid,omitempty"`
	Name     string   `yaml:"name,omitempty"`
	X        int32    `yaml:"x"`
	Y        int32    `yaml:"y"`
	Z        int32    `yaml:"z,omitempty"`
	Length   int32    `yaml:"length,omitempty"`
	Width    int32    `yaml:"width,omitempty"`
	Height   int32    `yaml:"height,omitempty"`
	Speed    *int32   `yaml:"speed,omitempty"`
	Profiles []string `yaml:"profiles,omitempty"`
	Profile  string   `yaml:"profile,omitempty"`
	// Goal names a zone the character walks to at startup; Face is the
	// direction it turns to on arrival.
	Goal string `yaml:"goal,omitempty"`
	Face string `yaml:"face,omitempty"`
}

// Order is a startup walk request resolved from a CharacterDef.
type Order struct {
	Actor string
	Zone  string
	Face  geom.Direction
}

// Layout is the decoded contents of a map file.
type Layout struct {
	Name       string         `yaml:"name"`
	Bounds     Rect           `yaml:"bounds"`
	Objects    []ObjectDef    `yaml:"objects"`
	Floors     []FloorFill    `yaml:"floors,omitempty"`
	Placements []PlacementDef `yaml:"placements,omitempty"`
	Zones      []ZoneDef      `yaml:"zones,omitempty"`
	Characters []CharacterDef `yaml:"characters,omitempty"`

	// Orders is filled by Build, once generated uids are known.
	Orders []Order `yaml:"-"`
}

// LoadLayout reads a map file without building anything.
func LoadLayout(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("map: read %s: %w", path, err)
	}
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("map: parse %s: %w", path, err)
	}
	return &l, nil
}

// LoadMap reads a map file and builds the map it describes. profiles may be
// nil, in which case characters only get the default profile.
func LoadMap(path string, profiles *ProfileTable, log *zap.Logger) (*world.Map, error) {
	m, _, err := LoadMapOrders(path, profiles, log)
	return m, err
}

// LoadMapOrders is LoadMap that also returns the startup walk orders.
func LoadMapOrders(path string, profiles *ProfileTable, log *zap.Logger) (*world.Map, []Order, error) {
	l, err := LoadLayout(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := l.Build(profiles, log)
	if err != nil {
		return nil, nil, fmt.Errorf("map: %s: %w", path, err)
	}
	return m, l.Orders, nil
}

// Build creates the map: objects, floors, placements, zones, then characters.
func (l *Layout) Build(profiles *ProfileTable, log *zap.Logger) (*world.Map, error) {
	l.Orders = nil
	if log == nil {
		log = zap.NewNop()
	}
	if l.Bounds.Length <= 0 || l.Bounds.Width <= 0 {
		return nil, fmt.Errorf("bounds must have a positive length and width")
	}

	objects := make(map[string]*world.Object, len(l.Objects))
	for _, def := range l.Objects {
		kind, err := world.ParseKind(def.Kind)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", def.Name, err)
		}
		if _, dup := objects[def.Name]; dup {
			return nil, fmt.Errorf("duplicate object %q", def.Name)
		}
		objects[def.Name] = &world.Object{
			Name:    def.Name,
			Kind:    kind,
			Solid:   def.Solid,
			Terrain: def.Terrain,
			Length:  def.Length,
			Width:   def.Width,
			Height:  def.Height,
		}
	}
	object := func(name string) (*world.Object, error) {
		o, ok := objects[name]
		if !ok {
			return nil, fmt.Errorf("unknown object %q", name)
		}
		return o, nil
	}

	m := world.NewMap(l.Name, l.Bounds.Box(), log)

	for _, f := range l.Floors {
		o, err := object(f.Object)
		if err != nil {
			return nil, err
		}
		for x := min(f.FromX, f.ToX); x <= max(f.FromX, f.ToX); x++ {
			for y := min(f.FromY, f.ToY); y <= max(f.FromY, f.ToY); y++ {
				m.Place(o, pathfind.Cell{X: x, Y: y}.Origin(f.Z))
			}
		}
	}
	for _, p := range l.Placements {
		o, err := object(p.Object)
		if err != nil {
			return nil, err
		}
		m.Place(o, geom.Vec3{X: p.X, Y: p.Y, Z: p.Z})
	}
	for _, z := range l.Zones {
		m.AddZone(z.Name, z.Box())
	}

	for _, def := range l.Characters {
		c, err := newCharacter(def, profiles)
		if err != nil {
			return nil, err
		}
		if err := m.AddCharacter(c); err != nil {
			return nil, fmt.Errorf("character %s: %w", c.UID(), err)
		}
		if def.Goal != "" {
			if _, ok := m.Zone(def.Goal); !ok {
				return nil, fmt.Errorf("character %s: unknown goal zone %q", c.UID(), def.Goal)
			}
			l.Orders = append(l.Orders, Order{Actor: c.UID(), Zone: def.Goal, Face: geom.ParseDirection(def.Face)})
		}
	}

	log.Info("map loaded",
		zap.String("map", l.Name),
		zap.Int("objects", len(objects)),
		zap.Int("placements", m.Placements()),
		zap.Int("zones", len(l.Zones)),
		zap.Int("characters", len(l.Characters)))
	return m, nil
}

func newCharacter(def CharacterDef, profiles *ProfileTable) (*world.Character, error) {
	uid := def.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	var costs *world.Costs
	if profiles != nil {
		names := append([]string(nil), def.Profiles...)
		if def.Profile != "" {
			names = append(names, def.Profile)
		}
		var err error
		if costs, err = profiles.NewCosts(names...); err != nil {
			return nil, fmt.Errorf("character %s: %w", uid, err)
		}
	} else if len(def.Profiles) > 0 || (def.Profile != "" && def.Profile != pathfind.DefaultProfile) {
		return nil, fmt.Errorf("character %s: profiles requested but none loaded", uid)
	}

	c := world.NewCharacter(uid, geom.Vec3{X: def.X, Y: def.Y, Z: def.Z}, costs)
	if def.Name != "" {
		c.Name = def.Name
	}
	if def.Length > 0 || def.Width > 0 || def.Height > 0 {
		c.SetSize(orDefault(def.Length, world.DefaultFootprint), orDefault(def.Width, world.DefaultFootprint), orDefault(def.Height, world.DefaultHeight))
	}
	if def.Speed != nil {
		c.SetSpeed(*def.Speed)
	}
	if def.Profile != "" {
		if err := c.Costs().Use(def.Profile); err != nil {
			return nil, fmt.Errorf("character %s: %w", uid, err)
		}
	}
	return c, nil
}

func orDefault(v, def int32) int32 {
	if v > 0 {
		return v
	}
	return def
}
