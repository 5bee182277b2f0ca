package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts issued forms and status lookups
type Metrics struct {
	formsIssued   *prometheus.CounterVec
	issueFailures *prometheus.CounterVec
	issueDuration prometheus.Histogram
	statusLookups *prometheus.CounterVec
}

// NewMetrics registers the form upload collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		formsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formupload",
			Name:      "forms_issued_total",
			Help:      "Upload forms signed and returned to clients.",
		}, []string{"endpoint"}),
		issueFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formupload",
			Name:      "form_issue_failures_total",
			Help:      "Upload forms that could not be issued, by reason.",
		}, []string{"reason"}),
		issueDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "formupload",
			Name:      "form_issue_duration_seconds",
			Help:      "Time spent signing an upload form.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		}),
		statusLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formupload",
			Name:      "upload_status_lookups_total",
			Help:      "Upload status lookups, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.formsIssued, m.issueFailures, m.issueDuration, m.statusLookups)
	return m
}

func (m *Metrics) observeIssue(endpoint string, start time.Time, reason string) {
	if m == nil {
		return
	}
	m.issueDuration.Observe(time.Since(start).Seconds())
	if reason != "" {
		m.issueFailures.WithLabelValues(reason).Inc()
		return
	}
	m.formsIssued.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) observeLookup(result string) {
	if m == nil {
		return
	}
	m.statusLookups.WithLabelValues(result).Inc()
}
