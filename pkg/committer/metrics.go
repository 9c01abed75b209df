package committer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iota-uz/accounts/pkg/audit"
)

var (
	commitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Subsystem: "commit",
		Name:      "total",
		Help:      "Total number of audited commits broken down by strategy and result.",
	}, []string{"strategy", "result"})

	commitAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Subsystem: "commit",
		Name:      "attempts_total",
		Help:      "Total number of commit attempts, including retries.",
	}, []string{"strategy"})

	commitRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Subsystem: "commit",
		Name:      "retries_total",
		Help:      "Total number of commit retries broken down by transient error kind.",
	}, []string{"reason"})

	commitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "accounts",
		Subsystem: "commit",
		Name:      "duration_seconds",
		Help:      "Latency of audited commits, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"strategy"})

	auditRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Subsystem: "audit",
		Name:      "records_total",
		Help:      "Total number of audit records written broken down by entity and operation.",
	}, []string{"entity", "operation"})
)

func recordCommit(strategy Strategy, err error, took time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	commitTotal.WithLabelValues(string(strategy), result).Inc()
	commitDuration.WithLabelValues(string(strategy)).Observe(took.Seconds())
}

func recordAttempt(strategy Strategy) {
	commitAttempts.WithLabelValues(string(strategy)).Inc()
}

func recordRetry(reason string) {
	if reason == "" {
		reason = "other"
	}
	commitRetries.WithLabelValues(reason).Inc()
}

func recordAuditRecords(records []audit.Record) {
	for _, r := range records {
		auditRecords.WithLabelValues(r.EntityType, string(r.Operation)).Inc()
	}
}
