package trafficlight

import (
	"fmt"
	"strings"
)

type Phase uint32

const (
	PhaseRed Phase = iota
	PhaseGreen
)

func (p Phase) String() string {
	switch p {
	case PhaseRed:
		return "red"
	case PhaseGreen:
		return "green"
	default:
		return fmt.Sprintf("phase(%d)", uint32(p))
	}
}

// Next returns the phase the light toggles to from p.
func (p Phase) Next() Phase {
	if p == PhaseGreen {
		return PhaseRed
	}
	return PhaseGreen
}

func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return PhaseRed, nil
	case "green":
		return PhaseGreen, nil
	default:
		return PhaseRed, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
}
