package trafficlight_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/fujiwara/trafficlight"
	"github.com/stretchr/testify/assert"
)

func TestRandomDurationBounds(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	min, max := 4*time.Second, 6*time.Second
	var sawLow, sawHigh bool
	for i := 0; i < 10000; i++ {
		d := trafficlight.RandomDuration(r, min, max)
		if d < min || d > max {
			t.Fatalf("duration %s out of range [%s, %s]", d, min, max)
		}
		if d < 4500*time.Millisecond {
			sawLow = true
		}
		if d > 5500*time.Millisecond {
			sawHigh = true
		}
	}
	assert.True(t, sawLow, "no draw in the lower quarter")
	assert.True(t, sawHigh, "no draw in the upper quarter")
}

func TestRandomDurationClosedInterval(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	seen := map[time.Duration]bool{}
	for i := 0; i < 1000; i++ {
		seen[trafficlight.RandomDuration(r, 0, 2)] = true
	}
	assert.Equal(t, map[time.Duration]bool{0: true, 1: true, 2: true}, seen)
}

func TestRandomDurationDegenerate(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	assert.Equal(t, time.Second, trafficlight.RandomDuration(r, time.Second, time.Second))

	d := trafficlight.RandomDuration(r, 6*time.Second, 4*time.Second)
	assert.GreaterOrEqual(t, d, 4*time.Second)
	assert.LessOrEqual(t, d, 6*time.Second)
}

func TestRandomDurationSeeded(t *testing.T) {
	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		assert.Equal(t,
			trafficlight.RandomDuration(a, 4*time.Second, 6*time.Second),
			trafficlight.RandomDuration(b, 4*time.Second, 6*time.Second),
		)
	}
}
