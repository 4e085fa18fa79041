package features

// Phase classifies the instantaneous direction and intensity of motion
// within a repetition.
type Phase int

const (
	PhaseRest Phase = iota
	PhaseStarting
	PhaseEccentric
	PhasePeak
	PhaseConcentric
	PhaseEnding
)

// Phases lists every phase in declaration order.
var Phases = []Phase{PhaseRest, PhaseStarting, PhaseEccentric, PhasePeak, PhaseConcentric, PhaseEnding}

// RestIntensity is the intensity below which a frame counts as rest.
const RestIntensity float32 = 0.1

func (p Phase) String() string {
	switch p {
	case PhaseRest:
		return "rest"
	case PhaseStarting:
		return "starting"
	case PhaseEccentric:
		return "eccentric"
	case PhasePeak:
		return "peak"
	case PhaseConcentric:
		return "concentric"
	case PhaseEnding:
		return "ending"
	default:
		return "unknown"
	}
}

// ParsePhase is the inverse of String. ok is false for unknown names.
func ParsePhase(s string) (Phase, bool) {
	for _, p := range Phases {
		if p.String() == s {
			return p, true
		}
	}
	return PhaseRest, false
}

// ClassifyPhase maps features to a phase using the scalar velocity sign:
// rest below RestIntensity, eccentric for positive metric velocity,
// concentric otherwise.
func ClassifyPhase(f Features) Phase {
	if f.MovementIntensity < RestIntensity {
		return PhaseRest
	}
	if f.Metric() > 0 {
		return PhaseEccentric
	}
	return PhaseConcentric
}
