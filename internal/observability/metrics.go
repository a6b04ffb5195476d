package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leconn"

var (
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redis_errors_total",
		Help:      "Failed Redis commands by command name.",
	}, []string{"operation"})

	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "db_query_duration_seconds",
		Help:      "Repository operation latency.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "table"})

	// ReactionTransitions splits like and repost requests into ones that
	// changed a row and idempotent repeats.
	ReactionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reaction_requests_total",
		Help:      "Like and repost requests by kind, action and whether state changed.",
	}, []string{"kind", "action", "changed"})

	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Open feed websocket connections on this instance.",
	})

	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_events_total",
		Help:      "Realtime events emitted by type.",
	}, []string{"event_type"})

	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_dropped_messages_total",
		Help:      "Messages not queued for a websocket client.",
	}, []string{"hub", "reason"})
)

// TrackQuery starts a latency measurement; call the result when the
// operation ends, usually with defer.
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

func RecordReaction(kind, action string, changed bool) {
	ReactionTransitions.WithLabelValues(kind, action, strconv.FormatBool(changed)).Inc()
}
