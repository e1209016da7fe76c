// Package metrics exposes Prometheus counters for HTTP traffic and for the
// domain events published on the event bus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sequenceit/proposaldesk/internal/event_bus"
)

const namespace = "proposaldesk"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	draftsSaved       *prometheus.CounterVec
	draftsDeleted     prometheus.Counter
	recomputations    prometheus.Counter
	lastGrandTotal    prometheus.Gauge
	generations       *prometheus.CounterVec
	generationSeconds prometheus.Histogram
	exports           *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		draftsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "drafts_saved_total", Help: "Saved drafts, by whether a new draft was created.",
		}, []string{"created"}),
		draftsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "drafts_deleted_total", Help: "Deleted drafts.",
		}),
		recomputations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "budget_recomputations_total", Help: "Budget recomputations.",
		}),
		lastGrandTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "budget_last_grand_total", Help: "Grand total of the most recent recomputation.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "proposal_generations_total", Help: "Calls to the completions API by reported status.",
		}, []string{"status"}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "proposal_generation_duration_seconds", Help: "Completions API latency.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "exports_total", Help: "Rendered exports by format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration,
		m.draftsSaved, m.draftsDeleted, m.recomputations, m.lastGrandTotal,
		m.generations, m.generationSeconds, m.exports,
	)
	return m
}

// Subscribe updates the domain counters from bus events.
func (m *Metrics) Subscribe(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.DraftSavedEvent, func(e event_bus.EventT[event_bus.DraftSaved]) error {
		m.draftsSaved.WithLabelValues(strconv.FormatBool(e.Data.Created)).Inc()
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.DraftDeletedEvent, func(e event_bus.EventT[event_bus.DraftDeleted]) error {
		m.draftsDeleted.Inc()
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.BudgetRecomputedEvent, func(e event_bus.EventT[event_bus.BudgetRecomputed]) error {
		m.recomputations.Inc()
		m.lastGrandTotal.Set(e.Data.GrandTotal)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.ProposalGeneratedEvent, func(e event_bus.EventT[event_bus.ProposalGenerated]) error {
		m.generations.WithLabelValues(strconv.Itoa(e.Data.Status)).Inc()
		m.generationSeconds.Observe(e.Data.Duration)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.DocumentExportedEvent, func(e event_bus.EventT[event_bus.DocumentExported]) error {
		m.exports.WithLabelValues(e.Data.Format).Inc()
		return nil
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records every request under its route template so that path
// parameters do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
