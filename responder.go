package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

type Responder struct {
	addr  string
	light *TrafficLight
}

func NewResponder(cfg *ResponderConfig, light *TrafficLight) *Responder {
	return &Responder{
		addr:  cfg.Addr,
		light: light,
	}
}

func (r *Responder) Run(ctx context.Context) error {
	srv := http.Server{
		Addr:    r.addr,
		Handler: r.handler(),
		// requests (a blocked /wait in particular) end with ctx
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("shutdown failed", "module", "responder", slog.String("error", err.Error()))
			srv.Close()
		}
	}()

	logger.Info("listening", "module", "responder", "addr", r.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdown
	return nil
}

func (r *Responder) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wait", r.waitHandler)
	mux.HandleFunc("/", r.phaseHandler)
	return mux
}

// phaseHandler reports the current phase snapshot. It never blocks.
func (r *Responder) phaseHandler(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	code := http.StatusOK
	p := r.light.CurrentPhase()
	switch p {
	case PhaseGreen:
	case PhaseRed:
		code = http.StatusServiceUnavailable
	default:
		logger.Warn("unknown phase", "module", "responder", "phase", p.String())
		code = http.StatusInternalServerError
	}
	w.WriteHeader(code)
	fmt.Fprintln(w, p)
}

// waitHandler blocks until the light turns green, the client goes away or
// the responder shuts down.
func (r *Responder) waitHandler(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if err := r.light.WaitForGreenContext(req.Context()); err != nil {
		logger.Debug("wait abandoned", "module", "responder", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "Service Unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, PhaseGreen)
}
