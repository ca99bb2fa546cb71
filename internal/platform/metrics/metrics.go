package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the governance engine. A nil
// *Metrics is valid everywhere; recording methods become no-ops so tests can
// skip registration.
type Metrics struct {
	VotesAccepted      prometheus.Counter
	VotesRejected      *prometheus.CounterVec
	DuplicatesDropped  prometheus.Counter
	EnvelopesSent      *prometheus.CounterVec
	EnvelopeSendErrors prometheus.Counter
	EnvelopesReceived  *prometheus.CounterVec
	MalformedEnvelopes prometheus.Counter
	Finalizations      *prometheus.CounterVec
	DispatchDuration   prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		VotesAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crossgov_votes_accepted_total",
			Help: "Votes applied to a proposal tally, local and remote.",
		}),
		VotesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crossgov_votes_rejected_total",
			Help: "Votes rejected, by error code.",
		}, []string{"code"}),
		DuplicatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crossgov_duplicate_votes_dropped_total",
			Help: "Redelivered cross-chain votes discarded by the dedup set.",
		}),
		EnvelopesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crossgov_envelopes_sent_total",
			Help: "Cross-chain envelopes handed to the transport, by kind.",
		}, []string{"kind"}),
		EnvelopeSendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crossgov_envelope_send_errors_total",
			Help: "Transport send failures surfaced as dispatch_failed.",
		}),
		EnvelopesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crossgov_envelopes_received_total",
			Help: "Inbound envelopes dispatched, by kind.",
		}, []string{"kind"}),
		MalformedEnvelopes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crossgov_malformed_envelopes_total",
			Help: "Inbound payloads that failed to decode.",
		}),
		Finalizations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crossgov_finalizations_total",
			Help: "Proposals finalized, by outcome.",
		}, []string{"outcome"}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crossgov_dispatch_duration_seconds",
			Help:    "Time to decode and apply one inbound envelope.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RecordVoteAccepted() {
	if m == nil {
		return
	}
	m.VotesAccepted.Inc()
}

func (m *Metrics) RecordVoteRejected(code string) {
	if m == nil {
		return
	}
	m.VotesRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordDuplicateDropped() {
	if m == nil {
		return
	}
	m.DuplicatesDropped.Inc()
}

func (m *Metrics) RecordEnvelopeSent(kind string) {
	if m == nil {
		return
	}
	m.EnvelopesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordEnvelopeSendError() {
	if m == nil {
		return
	}
	m.EnvelopeSendErrors.Inc()
}

func (m *Metrics) RecordEnvelopeReceived(kind string) {
	if m == nil {
		return
	}
	m.EnvelopesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordMalformedEnvelope() {
	if m == nil {
		return
	}
	m.MalformedEnvelopes.Inc()
}

func (m *Metrics) RecordFinalization(outcome string) {
	if m == nil {
		return
	}
	m.Finalizations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(d.Seconds())
}
