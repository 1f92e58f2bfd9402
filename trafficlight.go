package trafficlight

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TrafficLight is a two-phase signal. A background timing loop toggles the
// phase between red and green at randomized intervals and publishes every
// transition into a single-slot SignalChannel.
type TrafficLight struct {
	ID     string
	Config *LightConfig

	phase     atomic.Uint32
	ch        *SignalChannel[Phase]
	rng       *rand.Rand
	state     cycleState
	observers []Observer

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func Run(ctx context.Context, cli *CLI) error {
	if cli.Debug {
		logLevel.Set(slog.LevelDebug)
	}
	cfg, err := LoadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	if cli.Seed != 0 {
		cfg.Light.Seed = cli.Seed
	}
	light, err := NewTrafficLight(cfg.Light)
	if err != nil {
		return err
	}
	if err := light.AddObserver(NewLoggingObserver()); err != nil {
		return err
	}
	hooks := make([]Hook, 0, len(cfg.Hooks))
	for _, c := range cfg.Hooks {
		hook, err := NewHook(c)
		if err != nil {
			return err
		}
		if err := light.AddObserver(hook); err != nil {
			return err
		}
		hooks = append(hooks, hook)
	}

	if err := light.Start(ctx); err != nil {
		return err
	}
	defer func() {
		light.Stop()
		for _, h := range hooks {
			h.Wait()
		}
	}()
	return NewResponder(cfg.Responder, light).Run(ctx)
}

func NewTrafficLight(cfg *LightConfig) (*TrafficLight, error) {
	if cfg == nil {
		cfg = DefaultLightConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &TrafficLight{
		ID:     uuid.New().String(),
		Config: cfg,
		ch:     NewSignalChannel[Phase](),
		rng:    newRand(cfg.Seed),
	}
	t.phase.Store(uint32(PhaseRed))
	return t, nil
}

// AddObserver registers o to be notified of every transition. Observers must
// be added before Start.
func (t *TrafficLight) AddObserver(o Observer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return fmt.Errorf("cannot add observer: %w", ErrAlreadyStarted)
	}
	t.observers = append(t.observers, o)
	return nil
}

// Start launches the timing loop and returns immediately. A light can be
// started only once; later calls return ErrAlreadyStarted.
func (t *TrafficLight) Start(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.cycleThroughPhases(ctx)
	return nil
}

// Stop cancels the timing loop and waits for it to exit.
func (t *TrafficLight) Stop() error {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	cancel()
	<-done
	return nil
}

// CurrentPhase returns the phase without blocking. It may lag the last
// transition by up to one loop iteration.
func (t *TrafficLight) CurrentPhase() Phase {
	return Phase(t.phase.Load())
}

// WaitForGreen blocks until a transition to green is received.
func (t *TrafficLight) WaitForGreen() {
	_ = t.WaitFor(context.Background(), PhaseGreen)
}

func (t *TrafficLight) WaitForGreenContext(ctx context.Context) error {
	return t.WaitFor(ctx, PhaseGreen)
}

// WaitFor consumes transitions until one to p arrives or ctx is done.
// Transitions to other phases are discarded.
func (t *TrafficLight) WaitFor(ctx context.Context, p Phase) error {
	for {
		got, err := t.ch.ConsumeContext(ctx)
		if err != nil {
			return err
		}
		if got == p {
			return nil
		}
	}
}

func (t *TrafficLight) cycleThroughPhases(ctx context.Context) {
	defer close(t.done)
	ctx = context.WithValue(ctx, trafficLightKey, t)

	t.state.enter(t.CurrentPhase(), time.Now(), t.nextThreshold())
	newLoggerFromContext(ctx).Debug("timing loop started", "threshold", t.state.Threshold)

	ticker := time.NewTicker(t.Config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			newLoggerFromContext(ctx).Debug("timing loop stopped")
			return
		case <-ticker.C:
		}
		now := time.Now()
		if t.state.expired(now) {
			t.toggle(ctx, now)
		}
	}
}

func (t *TrafficLight) toggle(ctx context.Context, now time.Time) {
	from := t.state.Phase
	to := from.Next()
	t.phase.Store(uint32(to))
	t.ch.Publish(to)
	t.state.enter(to, now, t.nextThreshold())
	t.notify(ctx, from, to, now)
}

func (t *TrafficLight) nextThreshold() time.Duration {
	return RandomDuration(t.rng, t.Config.MinInterval, t.Config.MaxInterval)
}

func (t *TrafficLight) notify(ctx context.Context, from, to Phase, at time.Time) {
	for _, o := range t.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					newLoggerFromContext(ctx).Error("observer panic", "panic", fmt.Sprint(r))
				}
			}()
			o.OnTransition(ctx, from, to, at)
		}()
	}
}
