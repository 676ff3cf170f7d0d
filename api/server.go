// Package api assembles the HTTP surface of the scheduler.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/hems/api/dispatch"
	"github.com/kilianp07/hems/api/schedules"
	"github.com/kilianp07/hems/auth"
	"github.com/kilianp07/hems/core/dispatch/logging"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/internal/eventbus"
)

const requestTimeout = 30 * time.Second

// Deps groups what the router serves.
type Deps struct {
	Scheduler schedules.Scheduler
	Bus       eventbus.EventBus
	Logs      logging.LogStore
	JWTSecret string
	Interval  time.Duration
	Logger    logger.Logger
}

// NewRouter returns the chi router of the API.
func NewRouter(d Deps) http.Handler {
	mw := auth.NewMiddleware(d.JWTSecret)
	if !mw.Enabled() && d.Logger != nil {
		d.Logger.Warnf("api: no JWT secret configured, control-signal and clear endpoints accept unauthenticated requests")
	}
	sh := schedules.NewHandler(d.Scheduler, d.Bus, mw, d.Interval, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Route("/api", func(r chi.Router) {
		r.Route("/schedules", sh.Routes)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(mw.Require(auth.RoleViewer))
			logs := d.Logs
			if logs == nil {
				logs = logging.NopStore{}
			}
			r.Method(http.MethodGet, "/dispatch/logs", dispatch.NewLogHandler(logs))
		})
	})
	return r
}

// Serve runs an HTTP server on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("api server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
