package trafficlight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Hook is an Observer with side effects outside the process. Hooks run
// asynchronously; Wait blocks until in-flight runs are finished.
type Hook interface {
	Observer
	Name() string
	Wait()
}

func NewHook(cfg *HookConfig) (Hook, error) {
	var (
		h   Hook
		err error
	)
	switch {
	case cfg.Command != nil:
		h, err = NewCommandHook(cfg)
	case cfg.HTTP != nil:
		h, err = NewHTTPHook(cfg)
	case cfg.TCP != nil:
		h, err = NewTCPHook(cfg)
	default:
		return nil, fmt.Errorf("hook %s: one of command, http or tcp is required", cfg.Name)
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

type hookRunner struct {
	name    string
	timeout time.Duration
	phase   *Phase

	wg sync.WaitGroup
}

func newHookRunner(cfg *HookConfig) (*hookRunner, error) {
	r := &hookRunner{
		name:    cfg.Name,
		timeout: cfg.Timeout,
	}
	if r.timeout == 0 {
		r.timeout = DefaultHookTimeout
	}
	if cfg.Phase != "" {
		p, err := ParsePhase(cfg.Phase)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", cfg.Name, err)
		}
		r.phase = &p
	}
	return r, nil
}

func (r *hookRunner) Name() string {
	return r.name
}

func (r *hookRunner) Wait() {
	r.wg.Wait()
}

// dispatch runs fn in its own goroutine with the hook's timeout unless the
// hook is filtered to another phase.
func (r *hookRunner) dispatch(ctx context.Context, to Phase, fn func(context.Context, *slog.Logger) error) {
	if r.phase != nil && *r.phase != to {
		return
	}
	logger := newLoggerFromContext(ctx).With("name", r.name)
	// runs must survive the timing loop being stopped
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		if err := fn(ctx, logger); err != nil {
			logger.Warn("hook failed", slog.String("error", err.Error()))
		}
	}()
}
