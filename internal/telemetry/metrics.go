// Package telemetry exposes the server's Prometheus collectors.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesAppended counts persisted chat messages by sender kind.
	MessagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devroom",
		Name:      "messages_appended_total",
		Help:      "Chat messages persisted, by sender kind.",
	}, []string{"sender"})

	// AITurns counts AI turns by outcome.
	AITurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devroom",
		Name:      "ai_turns_total",
		Help:      "AI turns executed, by outcome.",
	}, []string{"outcome"})

	// ConnectionsOpen gauges currently open websocket connections.
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "devroom",
		Name:      "ws_connections_open",
		Help:      "Currently open websocket connections.",
	})
)

// AI turn outcomes.
const (
	AIOutcomeOK           = "ok"
	AIOutcomePersistError = "persist_error"
	AIOutcomeTreeError    = "tree_error"
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
