package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: deliver last tick's events
	PhaseUpdate                  // 1: navigation tasks steer their actors
	PhasePostUpdate              // 2: characters move
	PhasePersist                 // 3: autosave
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
