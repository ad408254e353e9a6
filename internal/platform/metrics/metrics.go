package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ExtractionsCreated   prometheus.Counter
	ExtractionsCompleted prometheus.Counter
	QuotesCreated        prometheus.Counter
	TagsCreated          prometheus.Counter
	TagsModerated        *prometheus.CounterVec
	TagsMerged           prometheus.Counter
	PhasesAutoClosed     prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ExtractionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperview_extractions_created_total",
			Help: "Total number of extractions created.",
		}),
		ExtractionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperview_extractions_completed_total",
			Help: "Total number of extractions completed.",
		}),
		QuotesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperview_quotes_created_total",
			Help: "Total number of quotes captured.",
		}),
		TagsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperview_tags_created_total",
			Help: "Total number of tags created.",
		}),
		TagsModerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "paperview_tags_moderated_total",
			Help: "Total number of tag moderation decisions, by action.",
		}, []string{"action"}),
		TagsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperview_tags_merged_total",
			Help: "Total number of tag merges applied.",
		}),
		PhasesAutoClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperview_phases_autoclosed_total",
			Help: "Total number of extraction phases closed by the sweep.",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperview_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
