package system

import (
	"time"

	coresys "github.com/l1jgo/worldnav/internal/core/system"
	"github.com/l1jgo/worldnav/internal/navigation"
)

// NavigationSystem advances every navigation task once per tick. Phase 1
// (Update); it only sets directions, movement happens in MovementSystem.
type NavigationSystem struct {
	mgr *navigation.Manager
}

func NewNavigationSystem(mgr *navigation.Manager) *NavigationSystem {
	return &NavigationSystem{mgr: mgr}
}

func (s *NavigationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *NavigationSystem) Update(_ time.Duration) {
	s.mgr.Update()
}
