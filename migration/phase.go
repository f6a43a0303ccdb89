package migration

// Phase is the orchestrator workflow state
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTargetSelected
	PhaseValidating
	PhaseSuccessResetting
	PhaseBlocked
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseTargetSelected:
		return "TARGET_SELECTED"
	case PhaseValidating:
		return "VALIDATING"
	case PhaseSuccessResetting:
		return "SUCCESS_RESETTING"
	case PhaseBlocked:
		return "BLOCKED"
	}
	return "UNKNOWN"
}

// validTransitions lists every allowed phase change
// VALIDATING has no operator exits; only the remote result or the watchdog leaves it
// Selection is refused there so the target cannot change while its call is in flight
var validTransitions = map[Phase][]Phase{
	PhaseIdle:             {PhaseTargetSelected},
	PhaseTargetSelected:   {PhaseTargetSelected, PhaseIdle, PhaseValidating},
	PhaseValidating:       {PhaseSuccessResetting, PhaseBlocked},
	PhaseSuccessResetting: {PhaseIdle, PhaseTargetSelected},
	PhaseBlocked:          {PhaseIdle, PhaseTargetSelected},
}

// CanTransition checks if a phase transition is valid
func CanTransition(from, to Phase) bool {
	for _, p := range validTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}
