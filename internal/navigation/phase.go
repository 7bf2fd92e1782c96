package navigation

// Phase is where a task is in its lifecycle. Pausing is tracked separately.
type Phase uint8

const (
	Pathfinding Phase = iota
	Moving
	Finished
	Failed
)

var phaseNames = [...]string{"pathfinding", "moving", "finished", "failed"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

func parsePhase(s string) (Phase, bool) {
	for i, n := range phaseNames {
		if n == s {
			return Phase(i), true
		}
	}
	return 0, false
}

// State is the coarse outcome reported by ReturnState and to callbacks.
type State uint8

const (
	Active State = iota
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "unknown"
}
