package trafficlight

import "time"

type trafficLightKeyType string

const (
	trafficLightKey trafficLightKeyType = "trafficlight"
)

// cycleState is owned by the timing loop. It is stamped once per phase entry.
type cycleState struct {
	Phase     Phase
	EnteredAt time.Time
	Threshold time.Duration
}

func (s *cycleState) enter(p Phase, now time.Time, threshold time.Duration) {
	s.Phase = p
	s.EnteredAt = now
	s.Threshold = threshold
}

func (s *cycleState) expired(now time.Time) bool {
	return now.Sub(s.EnteredAt) >= s.Threshold
}
