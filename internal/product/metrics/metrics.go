package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the product custody module. Tracks
// creation volume, transfer throughput, rejected operations by reason, and
// critical path durations.
type Metrics struct {
	ProductsCreated    prometheus.Counter
	TransfersProposed  prometheus.Counter
	TransfersAccepted  prometheus.Counter
	OperationsRejected *prometheus.CounterVec
	CreateDuration     prometheus.Histogram
	TransferDuration   prometheus.Histogram
}

// New creates a Metrics instance with all product module metrics registered
// on the default registry.
func New() *Metrics {
	return &Metrics{
		ProductsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_products_created_total",
			Help: "Total number of product records created",
		}),
		TransfersProposed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_transfers_proposed_total",
			Help: "Total number of delegations proposed by owners",
		}),
		TransfersAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_transfers_accepted_total",
			Help: "Total number of delegations accepted by delegates",
		}),
		OperationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_operations_rejected_total",
			Help: "Custody operations rejected by precondition checks",
		}, []string{"reason"}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_create_duration_seconds",
			Help:    "Duration of product creation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_transfer_duration_seconds",
			Help:    "Duration of delegate/accept operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementProductsCreated records a successful creation.
func (m *Metrics) IncrementProductsCreated() {
	m.ProductsCreated.Inc()
}

// IncrementTransfersProposed records a successful delegation.
func (m *Metrics) IncrementTransfersProposed() {
	m.TransfersProposed.Inc()
}

// IncrementTransfersAccepted records a completed transfer.
func (m *Metrics) IncrementTransfersAccepted() {
	m.TransfersAccepted.Inc()
}

// IncrementRejected records a precondition failure under its reason label.
func (m *Metrics) IncrementRejected(reason string) {
	m.OperationsRejected.WithLabelValues(reason).Inc()
}

// ObserveCreate records the duration of a create operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

// ObserveTransfer records the duration of a delegate or accept operation.
func (m *Metrics) ObserveTransfer(start time.Time) {
	m.TransferDuration.Observe(time.Since(start).Seconds())
}
