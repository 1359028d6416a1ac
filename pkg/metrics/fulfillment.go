package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics counts inventory side effects of orders, deliveries and sales.
type FulfillmentMetrics struct {
	transitions *prometheus.CounterVec
	shortfalls  *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	restocks    prometheus.Counter
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_unit_transitions_total",
		Help: "Stock unit status changes applied by compare-and-set.",
	}, []string{"from", "to"})
	shortfalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_shortfall_total",
		Help: "Order steps that found fewer units than requested.",
	}, []string{"stage"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_status_changes_total",
		Help: "Delivery status changes by target status and trigger.",
	}, []string{"status", "trigger"})
	restocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auto_restock_deliveries_total",
		Help: "Deliveries created by the low-stock auto restock.",
	})
	reg.MustRegister(transitions, shortfalls, deliveries, restocks)
	return &FulfillmentMetrics{
		transitions: transitions,
		shortfalls:  shortfalls,
		deliveries:  deliveries,
		restocks:    restocks,
	}
}

// ObserveTransition counts one unit moving from one status to another.
func (m *FulfillmentMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveShortfall counts a reserve, mark-ready or finalize step that came up short.
func (m *FulfillmentMetrics) ObserveShortfall(stage string) {
	if m == nil || m.shortfalls == nil {
		return
	}
	m.shortfalls.WithLabelValues(normalizeLabel(stage)).Inc()
}

// ObserveDeliveryStatus counts a delivery status change; trigger is "manual" or "scheduler".
func (m *FulfillmentMetrics) ObserveDeliveryStatus(status, trigger string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(status), normalizeLabel(trigger)).Inc()
}

// IncAutoRestock counts an automatically created restock delivery.
func (m *FulfillmentMetrics) IncAutoRestock() {
	if m == nil || m.restocks == nil {
		return
	}
	m.restocks.Inc()
}
