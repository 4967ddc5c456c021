package session

// State is a session lifecycle state.
type State int32

const (
	StateStarting State = iota
	StateActive
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// transitions lists the legal moves out of each state. Stopped is terminal.
var transitions = map[State][]State{
	StateStarting: {StateActive, StateStopped},
	StateActive:   {StateStopping},
	StateStopping: {StateStopped},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
