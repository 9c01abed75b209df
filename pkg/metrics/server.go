// Package metrics serves the Prometheus registry for long-running commands.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/pkg/configuration"
)

const defaultPath = "/debug/prometheus"

// NewRouter exposes the default registry at path and a liveness probe at /healthz.
func NewRouter(path string) *mux.Router {
	if path == "" {
		path = defaultPath
	}
	r := mux.NewRouter()
	r.Handle(path, promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	return r
}

// Serve listens until ctx is done. It returns immediately when metrics are disabled.
func Serve(ctx context.Context, opts configuration.PrometheusOptions, logger *logrus.Entry) error {
	if !opts.Enabled {
		return nil
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(opts.Path),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.WithField("addr", opts.Addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
