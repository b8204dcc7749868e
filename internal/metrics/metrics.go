// Package metrics exposes the validator's Prometheus instrumentation.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	namespace = "harvester"
	subsystem = "validator"
)

// Metrics holds every instrument the incentive loop reports into. All fields
// are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	tasksDispatched  prometheus.Counter
	responsesByState *prometheus.CounterVec
	itemsAccepted    prometheus.Counter
	itemsRejected    *prometheus.CounterVec
	peerScore        *prometheus.GaugeVec
	registeredPeers  prometheus.Gauge
	dedupEntries     prometheus.Gauge
	roundDuration    prometheus.Histogram
	weightSubmits    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &Metrics{registry: registry}

	m.tasksDispatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "tasks_dispatched_total",
		Help:      "Total number of collection tasks sent to miners",
	})

	m.responsesByState = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "responses_total",
			Help:      "Miner responses by terminal state",
		},
		[]string{"state"},
	)

	m.itemsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "items_accepted_total",
		Help:      "Total items accepted as new and unique",
	})

	m.itemsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_rejected_total",
			Help:      "Items rejected during validation by reason",
		},
		[]string{"reason"},
	)

	m.peerScore = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "peer_score",
			Help:      "Smoothed score per miner uid",
		},
		[]string{"uid"},
	)

	m.registeredPeers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "registered_peers",
		Help:      "Peers on the last metagraph snapshot",
	})

	m.dedupEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "dedup_entries",
		Help:      "Fingerprints currently tracked in the dedup window",
	})

	m.roundDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "round_duration_seconds",
		Help:      "Wall-clock duration of a full validation round",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	m.weightSubmits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "weight_submissions_total",
			Help:      "Weight submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	return m
}

func (m *Metrics) TaskDispatched()            { m.tasksDispatched.Inc() }
func (m *Metrics) ResponseState(state string) { m.responsesByState.WithLabelValues(state).Inc() }
func (m *Metrics) ItemsAccepted(n int)        { m.itemsAccepted.Add(float64(n)) }

func (m *Metrics) ItemsRejected(reason string, n int) {
	m.itemsRejected.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) SetPeerScore(uid int64, score float64) {
	m.peerScore.WithLabelValues(strconv.FormatInt(uid, 10)).Set(score)
}

func (m *Metrics) SetRegisteredPeers(n int)    { m.registeredPeers.Set(float64(n)) }
func (m *Metrics) SetDedupEntries(n int)       { m.dedupEntries.Set(float64(n)) }
func (m *Metrics) RoundDone(d time.Duration)   { m.roundDuration.Observe(d.Seconds()) }
func (m *Metrics) WeightSubmit(outcome string) { m.weightSubmits.WithLabelValues(outcome).Inc() }

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the given port until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	log.Info().Int("port", port).Msg("metrics endpoint listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
