// Package metrics exposes Prometheus instruments for warranty transfer
// validation and acceptance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/erazemk/garancija/internal/model"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	// Validation runs by outcome ("valid", "invalid")
	Validations *prometheus.CounterVec

	// Reported issues by code and severity
	Issues *prometheus.CounterVec

	// Accepted transfers by transfer type
	Accepted *prometheus.CounterVec

	// Transfer status changes by target status
	StatusChanges *prometheus.CounterVec

	// Time spent in the validator alone
	ValidateLatency prometheus.Histogram

	// Time spent in the acceptance transaction, re-validation included
	AcceptLatency prometheus.Histogram
}

// New registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garancija_transfer_validations_total",
			Help: "Transfer validations by outcome",
		}, []string{"outcome"}),

		Issues: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garancija_transfer_issues_total",
			Help: "Validation issues reported by code and severity",
		}, []string{"code", "severity"}),

		Accepted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garancija_transfers_accepted_total",
			Help: "Transfers accepted and applied to their warranty",
		}, []string{"type"}),

		StatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garancija_transfer_status_changes_total",
			Help: "Transfer status changes by target status",
		}, []string{"status"}),

		ValidateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "garancija_transfer_validate_duration_seconds",
			Help:    "Duration of one transfer validation",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		}),

		AcceptLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "garancija_transfer_accept_duration_seconds",
			Help:    "Duration of the transaction that accepts a transfer",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// ObserveValidation records the outcome and issues of one validation run.
func (m *Metrics) ObserveValidation(r model.ValidationResult, d time.Duration) {
	if m == nil {
		return
	}
	m.count(r)
	m.ValidateLatency.Observe(d.Seconds())
}

// ObserveAcceptance records the re-validation done while accepting a
// transfer and the duration of the whole acceptance.
func (m *Metrics) ObserveAcceptance(r model.ValidationResult, d time.Duration) {
	if m == nil {
		return
	}
	m.count(r)
	m.AcceptLatency.Observe(d.Seconds())
}

func (m *Metrics) count(r model.ValidationResult) {
	outcome := "invalid"
	if r.IsValid {
		outcome = "valid"
	}
	m.Validations.WithLabelValues(outcome).Inc()
	for _, issue := range r.Issues {
		m.Issues.WithLabelValues(string(issue.Code), string(issue.Severity)).Inc()
	}
}

// IncrementAccepted records an accepted transfer.
func (m *Metrics) IncrementAccepted(t model.TransferType) {
	if m != nil {
		m.Accepted.WithLabelValues(string(t)).Inc()
	}
}

// IncrementStatusChange records a transfer moving to status.
func (m *Metrics) IncrementStatusChange(status model.TransferStatus) {
	if m != nil {
		m.StatusChanges.WithLabelValues(string(status)).Inc()
	}
}
