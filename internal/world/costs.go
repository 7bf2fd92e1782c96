package world

import (
	"fmt"

	"github.com/l1jgo/worldnav/internal/pathfind"
)

// Profile is a named set of terrain move-cost multipliers.
type Profile struct {
	Name string
	// Costs maps terrain name to multiplier. Missing terrain falls back to
	// the default profile, then to 1.
	Costs map[string]int
	// ForcedImpassable makes zero-cost terrain unwalkable for this profile.
	ForcedImpassable bool
}

// Costs is a character's pathfinding mind: its cost profiles and which one
// is active. The default profile always exists and is always first.
type Costs struct {
	profiles []*Profile
	current  *Profile
}

// NewCosts builds a cost set. A profile named pathfind.DefaultProfile is
// created if none of the given profiles has that name.
func NewCosts(profiles ...*Profile) *Costs {
	c := &Costs{}
	for _, p := range profiles {
		c.Add(p)
	}
	if c.find(pathfind.DefaultProfile) == nil {
		c.Add(&Profile{Name: pathfind.DefaultProfile})
	}
	c.current = c.profiles[0]
	return c
}

// Add registers p, replacing a profile of the same name.
func (c *Costs) Add(p *Profile) {
	if p.Costs == nil {
		p.Costs = map[string]int{}
	}
	for i, old := range c.profiles {
		if old.Name == p.Name {
			c.profiles[i] = p
			if c.current == old {
				c.current = p
			}
			return
		}
	}
	if p.Name == pathfind.DefaultProfile {
		c.profiles = append([]*Profile{p}, c.profiles...)
		return
	}
	c.profiles = append(c.profiles, p)
}

// Remove drops a non-default profile. Removing the active profile switches
// back to the default one.
func (c *Costs) Remove(name string) bool {
	if name == pathfind.DefaultProfile {
		return false
	}
	for i, p := range c.profiles {
		if p.Name == name {
			c.profiles = append(c.profiles[:i], c.profiles[i+1:]...)
			if c.current == p {
				c.current = c.profiles[0]
			}
			return true
		}
	}
	return false
}

// Use switches the active profile.
func (c *Costs) Use(name string) error {
	p := c.find(name)
	if p == nil {
		return fmt.Errorf("world: unknown cost profile %q", name)
	}
	c.current = p
	return nil
}

func (c *Costs) find(name string) *Profile {
	for _, p := range c.profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Profiles returns the profile names, default first.
func (c *Costs) Profiles() []string {
	names := make([]string, len(c.profiles))
	for i, p := range c.profiles {
		names[i] = p.Name
	}
	return names
}

func (c *Costs) Profile() string { return c.current.Name }

func (c *Costs) TerrainCost(terrain string) int {
	if v, ok := c.current.Costs[terrain]; ok {
		return v
	}
	if v, ok := c.profiles[0].Costs[terrain]; ok {
		return v
	}
	return 1
}

func (c *Costs) ZeroCostImpassable() bool { return c.current.ForcedImpassable }
