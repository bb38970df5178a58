// Package metrics defines the service's own prometheus collectors. HTTP
// metrics come from fiberprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reorder kinds
const (
	KindColumns = "columns"
	KindCards   = "cards"
)

var (
	reorderBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipeboard",
		Name:      "reorder_batches_total",
		Help:      "Reorder batches by kind and result.",
	}, []string{"kind", "result"})

	reorderWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipeboard",
		Name:      "reorder_rows_written_total",
		Help:      "Rows whose order or container changed in committed reorder batches.",
	}, []string{"kind"})

	provisionedBoards = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recipeboard",
		Name:      "provisioned_boards_total",
		Help:      "Default boards created for first-time users.",
	})

	webhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipeboard",
		Name:      "webhook_deliveries_total",
		Help:      "Identity webhook deliveries by outcome.",
	}, []string{"outcome"})
)

// ObserveReorder records one reorder batch. written is ignored on failure.
func ObserveReorder(kind string, written int, err error) {
	if err != nil {
		reorderBatches.WithLabelValues(kind, "error").Inc()
		return
	}
	reorderBatches.WithLabelValues(kind, "ok").Inc()
	reorderWrites.WithLabelValues(kind).Add(float64(written))
}

// ObserveProvisioned records a default board creation
func ObserveProvisioned() {
	provisionedBoards.Inc()
}

// ObserveWebhook records a webhook delivery outcome: applied, duplicate, rejected or failed
func ObserveWebhook(outcome string) {
	webhookDeliveries.WithLabelValues(outcome).Inc()
}
