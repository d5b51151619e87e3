package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesPosted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "messages_posted_total",
		Help:      "Messages appended to room ledgers and direct conversations.",
	}, []string{"kind"})

	ReactionToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "reaction_toggles_total",
		Help:      "Reaction toggles by resulting action.",
	}, []string{"action"})

	OpenStreams = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chat",
		Name:      "live_streams_open",
		Help:      "Live update connections currently open.",
	}, []string{"transport"})

	StreamPollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "live_poll_errors_total",
		Help:      "Failed live-update polls reported to clients as error events.",
	})

	StreamMessagesPushed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "live_messages_pushed_total",
		Help:      "Message events pushed over live update connections.",
	})

	NotificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "notification_failures_total",
		Help:      "Best-effort notifications that could not be stored.",
	}, []string{"kind"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "rate_limited_requests_total",
		Help:      "Write requests rejected by the per-user limiter.",
	})
)

// Registry holds every collector above plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		MessagesPosted,
		ReactionToggles,
		OpenStreams,
		StreamPollErrors,
		StreamMessagesPushed,
		NotificationFailures,
		RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
