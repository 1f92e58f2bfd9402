package trafficlight

import (
	"context"
	"log/slog"
	"os"
)

var logLevel = new(slog.LevelVar)
var logger *slog.Logger

func init() {
	opts := slog.HandlerOptions{
		Level: logLevel,
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &opts))
	slog.SetDefault(logger)
}

func newLoggerFromContext(ctx context.Context) *slog.Logger {
	if v := ctx.Value(trafficLightKey); v != nil {
		t := v.(*TrafficLight)
		return logger.With("light", t.ID, "phase", t.CurrentPhase().String())
	}
	return logger
}
