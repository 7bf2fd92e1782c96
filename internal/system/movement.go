package system

import (
	"time"

	coresys "github.com/l1jgo/worldnav/internal/core/system"
	"github.com/l1jgo/worldnav/internal/world"
)

// MovementSystem applies each character's direction on every map. Phase 2
// (PostUpdate).
type MovementSystem struct {
	maps []*world.Map
}

func NewMovementSystem(maps ...*world.Map) *MovementSystem {
	return &MovementSystem{maps: maps}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *MovementSystem) Update(_ time.Duration) {
	for _, m := range s.maps {
		m.Update()
	}
}
