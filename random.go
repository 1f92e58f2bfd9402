package trafficlight

import (
	"math/rand"
	"time"
)

// RandomDuration returns a duration uniformly distributed over [min, max].
func RandomDuration(r *rand.Rand, min, max time.Duration) time.Duration {
	if max < min {
		min, max = max, min
	}
	if min == max {
		return min
	}
	return min + time.Duration(r.Int63n(int64(max-min)+1))
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
