package trafficlight

import (
	"context"
	"log/slog"
	"time"
)

// Observer is notified of each phase transition. OnTransition runs on the
// timing loop goroutine, so it must return quickly.
type Observer interface {
	OnTransition(ctx context.Context, from, to Phase, at time.Time)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, from, to Phase, at time.Time)

func (f ObserverFunc) OnTransition(ctx context.Context, from, to Phase, at time.Time) {
	f(ctx, from, to, at)
}

type LoggingObserver struct{}

func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{}
}

func (o *LoggingObserver) OnTransition(ctx context.Context, from, to Phase, at time.Time) {
	newLoggerFromContext(ctx).With("module", "observer").Info("phase changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Time("at", at),
	)
}
