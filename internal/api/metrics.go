package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	quotaDecisions    *prometheus.CounterVec
	submissions       *prometheus.CounterVec
	badgesAwarded     *prometheus.CounterVec
	feedbackFallbacks prometheus.Counter
}

// NewMetrics registers the collectors with reg. Tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "podium",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "podium",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"route", "method"}),
		quotaDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "podium",
			Name:      "quota_decisions_total",
			Help:      "Usage gate outcomes.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "podium",
			Name:      "submissions_total",
			Help:      "Answer submissions by outcome.",
		}, []string{"outcome"}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "podium",
			Name:      "badges_awarded_total",
			Help:      "Badges granted by badge name.",
		}, []string{"badge"}),
		feedbackFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "podium",
			Name:      "feedback_fallbacks_total",
			Help:      "AI responses replaced with placeholder text.",
		}),
	}
	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.quotaDecisions,
		m.submissions,
		m.badgesAwarded,
		m.feedbackFallbacks,
	)
	return m
}

// Middleware labels by chi route pattern so path parameters do not explode
// label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) quotaDecision(outcome string) {
	if m != nil {
		m.quotaDecisions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) submission(outcome string) {
	if m != nil {
		m.submissions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) badges(names []string) {
	if m == nil {
		return
	}
	for _, name := range names {
		m.badgesAwarded.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) feedbackFallback() {
	if m != nil {
		m.feedbackFallbacks.Inc()
	}
}
