package culler

// Phase identifies one of the two culling passes of a frame.
type Phase int

const (
	// PhaseEarly re-tests primitives that were visible last frame, against the frustum only.
	PhaseEarly Phase = iota
	// PhaseLate tests every primitive against the frustum and the freshly rebuilt depth pyramid.
	PhaseLate
)

func (p Phase) String() string {
	switch p {
	case PhaseEarly:
		return "early"
	case PhaseLate:
		return "late"
	default:
		return "unknown"
	}
}

func (p Phase) valid() bool {
	return p == PhaseEarly || p == PhaseLate
}
