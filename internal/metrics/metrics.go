package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hecforward_events_sent_total",
			Help: "Total number of events accepted by the collector.",
		},
	)

	EventsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hecforward_events_failed_total",
			Help: "Total number of events that exhausted all send attempts.",
		},
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hecforward_retries_total",
			Help: "Total number of send retries by reason.",
		},
		[]string{"reason"}, // e.g. http_5xx, timeout, network, other
	)

	ChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hecforward_chunks_total",
			Help: "Total number of payload chunks produced for oversized envelopes.",
		},
	)

	LinesSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hecforward_lines_skipped_total",
			Help: "Total number of malformed input lines skipped.",
		},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(EventsSentTotal, EventsFailedTotal, RetriesTotal, ChunksTotal, LinesSkippedTotal)
}

// RecordSend increments the sent or failed counter for one event.
func RecordSend(ok bool) {
	if ok {
		EventsSentTotal.Inc()
	} else {
		EventsFailedTotal.Inc()
	}
}

// RecordRetry counts one retry by failure reason.
func RecordRetry(reason string) {
	RetriesTotal.WithLabelValues(reason).Inc()
}
