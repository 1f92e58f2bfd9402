package trafficlight

import (
	"context"
	"sync"
)

// SignalChannel is a single-slot blocking handoff shared by one producer and
// any number of consumers.
//
// Publish overwrites any value that has not been consumed yet, so a consumer
// always sees the latest value and never a backlog. Consume blocks until a
// value is available and takes it; each published value is delivered to at
// most one consumer.
type SignalChannel[T any] struct {
	mu   sync.Mutex
	slot T
	full bool

	// wake holds at most one pending wake-up token. A token may be stale
	// (the value was taken by a consumer that never waited); consumers
	// re-check the slot after every wake-up.
	wake chan struct{}
}

func NewSignalChannel[T any]() *SignalChannel[T] {
	return &SignalChannel[T]{
		wake: make(chan struct{}, 1),
	}
}

// Publish replaces the pending value with v and wakes one blocked consumer.
// Publish never blocks.
func (c *SignalChannel[T]) Publish(v T) {
	c.mu.Lock()
	c.slot = v
	c.full = true
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Consume blocks until a value is available, then takes it.
func (c *SignalChannel[T]) Consume() T {
	v, _ := c.ConsumeContext(context.Background())
	return v
}

// ConsumeContext is like Consume but gives up when ctx is done. The slot is
// left untouched in that case.
func (c *SignalChannel[T]) ConsumeContext(ctx context.Context) (T, error) {
	for {
		if v, ok := c.TryConsume(); ok {
			return v, nil
		}
		select {
		case <-c.wake:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryConsume takes the pending value if there is one. It never blocks.
func (c *SignalChannel[T]) TryConsume() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.full {
		var zero T
		return zero, false
	}
	v := c.slot
	var zero T
	c.slot = zero
	c.full = false
	return v, true
}
