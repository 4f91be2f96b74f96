package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder tracks the video call request lifecycle
type Recorder struct {
	requestsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	purgedTotal      prometheus.Counter
	pendingGauge     prometheus.Gauge
	subscribersGauge prometheus.Gauge
	gatherer         prometheus.Gatherer
}

// NewRecorder registers the telemed collectors on reg
func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telemed",
				Name:      "video_call_requests_total",
				Help:      "Total number of submitted video call requests",
			},
			[]string{"targeted"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telemed",
				Name:      "video_call_transitions_total",
				Help:      "Total number of status transitions out of pending",
			},
			[]string{"status"},
		),
		purgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "telemed",
				Name:      "video_call_requests_purged_total",
				Help:      "Total number of requests removed by the cleanup sweep",
			},
		),
		pendingGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "telemed",
				Name:      "video_call_requests_pending",
				Help:      "Pending requests seen by the last list",
			},
		),
		subscribersGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "telemed",
				Name:      "event_stream_subscribers",
				Help:      "Open event stream connections",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		r.requestsTotal,
		r.transitionsTotal,
		r.purgedTotal,
		r.pendingGauge,
		r.subscribersGauge,
	)
	return r
}

// RequestSubmitted counts a new request
func (r *Recorder) RequestSubmitted(targeted bool) {
	if r == nil {
		return
	}
	label := "any"
	if targeted {
		label = "callee"
	}
	r.requestsTotal.WithLabelValues(label).Inc()
}

// Transition counts a move to status
func (r *Recorder) Transition(status string) {
	if r == nil {
		return
	}
	r.transitionsTotal.WithLabelValues(status).Inc()
}

// Purged counts removed requests
func (r *Recorder) Purged(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.purgedTotal.Add(float64(n))
}

// PendingObserved records the size of the last pending list
func (r *Recorder) PendingObserved(n int) {
	if r == nil {
		return
	}
	r.pendingGauge.Set(float64(n))
}

// SubscriberConnected and SubscriberDisconnected track open event streams
func (r *Recorder) SubscriberConnected() {
	if r == nil {
		return
	}
	r.subscribersGauge.Inc()
}

func (r *Recorder) SubscriberDisconnected() {
	if r == nil {
		return
	}
	r.subscribersGauge.Dec()
}

// Handler exposes the registry in Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
