// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks outbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"service", "method", "status_code"},
	)

	// HTTPRequestDuration tracks outbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method"},
	)

	// CrmFieldPagesFetched tracks field-list pages read from the CRM
	CrmFieldPagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "crm",
			Name:      "field_pages_fetched_total",
			Help:      "Total number of CRM field-list pages fetched",
		},
		[]string{"entity"},
	)

	// MissingFields tracks the number of form fields missing from the CRM at the last comparison.
	// Labelled by entity only, form ids are unbounded.
	MissingFields = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "reconcile",
			Name:      "missing_fields",
			Help:      "Number of mapped form fields missing from the CRM at the last comparison, per entity",
		},
		[]string{"entity"},
	)

	// FieldsProvisioned tracks provisioning outcomes
	FieldsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "provision",
			Name:      "fields_total",
			Help:      "Total number of provisioning requests by outcome",
		},
		[]string{"entity", "outcome"},
	)

	// SubmissionUpdates tracks CRM record updates issued for submissions
	SubmissionUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "submission",
			Name:      "updates_total",
			Help:      "Total number of CRM record updates issued for form submissions",
		},
		[]string{"entity", "status"},
	)
)
