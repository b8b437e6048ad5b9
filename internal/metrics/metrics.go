// Package metrics exposes Prometheus instruments for captures and turns.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	capturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nathan",
		Name:      "captures_total",
		Help:      "Utterance captures by outcome.",
	}, []string{"outcome"})

	captureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nathan",
		Name:      "capture_duration_seconds",
		Help:      "Wall time of a capture from open to flush.",
		Buckets:   []float64{1, 2, 4, 6, 8, 12, 20, 30},
	})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nathan",
		Name:      "stage_duration_seconds",
		Help:      "Latency of a turn stage.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"stage"})

	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nathan",
		Name:      "turns_total",
		Help:      "Conversation turns by result.",
	}, []string{"result"})
)

func ObserveCapture(outcome string, d time.Duration) {
	capturesTotal.WithLabelValues(outcome).Inc()
	captureDuration.Observe(d.Seconds())
}

func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func CountTurn(result string) {
	turnsTotal.WithLabelValues(result).Inc()
}

// Serve blocks serving /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown", "err", err)
		}
	}()

	log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
