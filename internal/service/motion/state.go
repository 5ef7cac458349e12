package motion

// Phase is the position of the change detector in its cycle.
type Phase int

const (
	Idle Phase = iota
	ChangeDetected
	WaitingForStability
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ChangeDetected:
		return "change_detected"
	case WaitingForStability:
		return "waiting_for_stability"
	default:
		return "unknown"
	}
}

// State is the full detector state. The zero value is Idle with no stable frames.
type State struct {
	Phase  Phase
	Stable int
}

// Thresholds tune the transition function.
type Thresholds struct {
	// Change is the fraction above which a sample counts as a change burst.
	Change float64
	// LowChange is the fraction below which a sample counts as settled.
	LowChange float64
	// StabilityFrames is how many consecutive settled samples fire the trigger.
	StabilityFrames int
}

// DefaultThresholds returns 0.015 / 0.01 / 3.
func DefaultThresholds() Thresholds {
	return Thresholds{Change: 0.015, LowChange: 0.01, StabilityFrames: 3}
}

// Step advances the detector by one sample and reports whether recognition
// should run now. Samples between LowChange and Change while waiting reset the
// stable counter without leaving WaitingForStability.
func Step(s State, fraction float64, t Thresholds) (State, bool) {
	switch s.Phase {
	case Idle:
		if fraction > t.Change {
			return State{Phase: ChangeDetected}, false
		}
		return State{Phase: Idle}, false

	case ChangeDetected:
		if fraction < t.LowChange {
			next := State{Phase: WaitingForStability, Stable: 1}
			if next.Stable >= t.StabilityFrames {
				return State{Phase: Idle}, true
			}
			return next, false
		}
		return State{Phase: ChangeDetected}, false

	case WaitingForStability:
		switch {
		case fraction < t.LowChange:
			stable := s.Stable + 1
			if stable >= t.StabilityFrames {
				return State{Phase: Idle}, true
			}
			return State{Phase: WaitingForStability, Stable: stable}, false
		case fraction > t.Change:
			return State{Phase: ChangeDetected}, false
		default:
			return State{Phase: WaitingForStability}, false
		}
	}

	return State{Phase: Idle}, false
}
