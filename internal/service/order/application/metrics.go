// internal/service/order/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderflow_workqueue_depth",
		Help: "Number of work items currently buffered in the work queue.",
	})

	queueItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_workqueue_items_total",
		Help: "Work items processed by the queue worker, labelled by result.",
	}, []string{"result"})

	orchestrationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderflow_orchestrations_in_flight",
		Help: "Fulfillment orchestrations currently executing.",
	})

	orchestrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_orchestrations_total",
		Help: "Finished fulfillment orchestrations, labelled by terminal status.",
	}, []string{"status"})
)
