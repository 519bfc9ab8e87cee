// Package metrics exposes prometheus counters for the two error
// categories the protocol distinguishes: recoverable errors (the caller
// may retry with different parameters) and critical errors (two nodes
// disagreeing means a consensus fork; the host MUST halt block production
// and alert an operator). consensus and state stay pure and never import
// this package; only cmd/coinjecture-consensusd observes their errors and
// records them here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"coinjecture.dev/consensus"
)

var (
	errorsByCode = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinjecture",
			Subsystem: "consensus",
			Name:      "errors_total",
			Help:      "Consensus errors observed, partitioned by stable error code.",
		},
		[]string{"code"},
	)

	recoverableErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coinjecture",
			Subsystem: "consensus",
			Name:      "recoverable_errors_total",
			Help:      "Errors the caller may retry with different parameters.",
		},
	)

	criticalErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coinjecture",
			Subsystem: "consensus",
			Name:      "critical_errors_total",
			Help:      "Errors indicating nodes may disagree on chain state; requires operator halt.",
		},
	)

	blocksValidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coinjecture",
			Subsystem: "consensus",
			Name:      "blocks_validated_total",
			Help:      "Blocks that passed ValidateBlock.",
		},
	)

	blocksApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coinjecture",
			Subsystem: "state",
			Name:      "blocks_applied_total",
			Help:      "Blocks successfully applied by the state engine.",
		},
	)

	transactionsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coinjecture",
			Subsystem: "state",
			Name:      "transactions_skipped_total",
			Help:      "Transactions isolated and skipped during block application.",
		},
	)
)

// ObserveError records err against the code/recoverable/critical counters.
// Non-ConsensusError values (e.g. store I/O failures) are counted under the
// "E0002" general-internal code bucket.
func ObserveError(err error) {
	if err == nil {
		return
	}
	ce, ok := consensus.AsConsensusError(err)
	if !ok {
		errorsByCode.WithLabelValues(string(consensus.ErrInternal)).Inc()
		return
	}
	errorsByCode.WithLabelValues(string(ce.Code)).Inc()
	if ce.IsRecoverable() {
		recoverableErrors.Inc()
	}
	if ce.IsCritical() {
		criticalErrors.Inc()
	}
}

// ObserveBlockValidated increments the block-validated counter.
func ObserveBlockValidated() { blocksValidated.Inc() }

// ObserveBlockApplied increments the block-applied counter.
func ObserveBlockApplied() { blocksApplied.Inc() }

// ObserveTransactionsSkipped adds n skipped transactions to the running total.
func ObserveTransactionsSkipped(n int) {
	if n <= 0 {
		return
	}
	transactionsSkipped.Add(float64(n))
}
