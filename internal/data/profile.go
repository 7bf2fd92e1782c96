package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/worldnav/internal/pathfind"
	"github.com/l1jgo/worldnav/internal/world"
)

// ProfileDef is one pathfinding cost profile as written in profiles.yaml.
// A cost of 0 marks terrain the profile may treat as impassable.
type ProfileDef struct {
	Name               string         `yaml:"name"`
	Costs              map[string]int `yaml:"costs"`
	ZeroCostImpassable bool           `yaml:"zero_cost_impassable"`
}

// ProfileTable indexes cost profiles by name.
type ProfileTable struct {
	byName map[string]*ProfileDef
}

type profileFile struct {
	Profiles []ProfileDef `yaml:"profiles"`
}

// LoadProfileTable loads cost profiles from YAML. Negative costs are rejected.
func LoadProfileTable(path string) (*ProfileTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles: read %s: %w", path, err)
	}
	return parseProfiles(raw, path)
}

func parseProfiles(raw []byte, path string) (*ProfileTable, error) {
	var f profileFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("profiles: parse %s: %w", path, err)
	}

	t := &ProfileTable{byName: make(map[string]*ProfileDef, len(f.Profiles))}
	for i := range f.Profiles {
		p := &f.Profiles[i]
		if p.Name == "" {
			return nil, fmt.Errorf("profiles: %s: entry %d has no name", path, i)
		}
		if _, dup := t.byName[p.Name]; dup {
			return nil, fmt.Errorf("profiles: %s: duplicate profile %q", path, p.Name)
		}
		for terrain, cost := range p.Costs {
			if cost < 0 {
				return nil, fmt.Errorf("profiles: %s: %s/%s has negative cost %d", path, p.Name, terrain, cost)
			}
		}
		t.byName[p.Name] = p
	}
	return t, nil
}

// Get returns a profile definition, or nil if not found.
func (t *ProfileTable) Get(name string) *ProfileDef {
	return t.byName[name]
}

// Names returns all profile names, sorted.
func (t *ProfileTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of profiles loaded.
func (t *ProfileTable) Count() int {
	return len(t.byName)
}

// NewCosts builds a character's cost set from the named profiles. The
// default profile is always included; each character gets its own copies so
// later edits do not leak between characters.
func (t *ProfileTable) NewCosts(names ...string) (*world.Costs, error) {
	var profiles []*world.Profile
	if def := t.byName[pathfind.DefaultProfile]; def != nil {
		profiles = append(profiles, def.build())
	}
	for _, n := range names {
		if n == pathfind.DefaultProfile {
			continue
		}
		def := t.byName[n]
		if def == nil {
			return nil, fmt.Errorf("profiles: unknown profile %q", n)
		}
		profiles = append(profiles, def.build())
	}
	return world.NewCosts(profiles...), nil
}

func (p *ProfileDef) build() *world.Profile {
	costs := make(map[string]int, len(p.Costs))
	for k, v := range p.Costs {
		costs[k] = v
	}
	return &world.Profile{Name: p.Name, Costs: costs, ForcedImpassable: p.ZeroCostImpassable}
}
