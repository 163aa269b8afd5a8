package orchestrator

// State is the phase of a single run.
type State string

const (
	Idle             State = "IDLE"
	CollectingInputs State = "COLLECTING_INPUTS"
	Dispatching      State = "DISPATCHING"
	Completed        State = "COMPLETED"
	Failed           State = "FAILED"
)

// IsTerminal reports whether the state ends a run.
func IsTerminal(s State) bool {
	return s == Completed || s == Failed
}

// Observer is notified of every state change of a run.
type Observer func(runID string, from, to State)

func isAllowedTransition(from, to State) bool {
	switch from {
	case Idle:
		return to == CollectingInputs || to == Dispatching
	case CollectingInputs:
		return to == Dispatching || to == Failed
	case Dispatching:
		return to == Completed || to == Failed
	case Completed, Failed:
		return to == Idle
	default:
		return false
	}
}
