// Package metrics exposes break and timer activity in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/mode"
)

// Collector holds the metrics updated by the core loop.
type Collector struct {
	breakEvents *prometheus.CounterVec
	breakState  *prometheus.GaugeVec
	elapsed     *prometheus.GaugeVec
	idle        *prometheus.GaugeVec
	limit       *prometheus.GaugeVec
	mode        prometheus.Gauge
	timewarps   prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		breakEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "respite_break_events_total",
			Help: "Break events by break and event",
		}, []string{"break", "event"}),
		breakState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "respite_break_state",
			Help: "Current break state: 0 inactive, 1 prelude, 2 active",
		}, []string{"break"}),
		elapsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "respite_timer_elapsed_seconds",
			Help: "Active time counted towards each break",
		}, []string{"break"}),
		idle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "respite_timer_idle_seconds",
			Help: "Idle time of the current idle stretch",
		}, []string{"break"}),
		limit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "respite_timer_limit_seconds",
			Help: "Configured limit of each break timer",
		}, []string{"break"}),
		mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "respite_operation_mode",
			Help: "Effective operation mode: 0 normal, 1 quiet, 2 suspended",
		}),
		timewarps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "respite_timewarps_total",
			Help: "Clock jumps detected between ticks",
		}),
	}

	reg.MustRegister(
		c.breakEvents,
		c.breakState,
		c.elapsed,
		c.idle,
		c.limit,
		c.mode,
		c.timewarps,
	)

	return c
}

func (c *Collector) BreakEvent(id breaks.ID, ev breaks.Event) {
	c.breakEvents.WithLabelValues(id.String(), ev.String()).Inc()
}

func (c *Collector) BreakStateChanged(id breaks.ID, s breaks.State) {
	c.breakState.WithLabelValues(id.String()).Set(float64(s))
}

// ObserveTimer records the counters of the timer for id.
func (c *Collector) ObserveTimer(id breaks.ID, elapsed, idle, limit time.Duration) {
	c.elapsed.WithLabelValues(id.String()).Set(elapsed.Seconds())
	c.idle.WithLabelValues(id.String()).Set(idle.Seconds())
	c.limit.WithLabelValues(id.String()).Set(limit.Seconds())
}

func (c *Collector) SetMode(m mode.Mode) {
	c.mode.Set(float64(m))
}

func (c *Collector) RecordTimewarp() {
	c.timewarps.Inc()
}

// Serve exposes the metrics gathered by g on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", slog.String("addr", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
