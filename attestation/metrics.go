package attestation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatestHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "attestation",
		Name:      "latest_head_block",
		Help:      "Shows the latest confirmed head block for the particular bridge contract.",
	}, []string{"bridge_id", "chain_id", "address"})
	LatestProcessedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "attestation",
		Name:      "latest_processed_block",
		Help:      "Shows the latest block whose swaps are already attested.",
	}, []string{"bridge_id", "chain_id", "address"})
	AttestationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "attestation",
		Name:      "attestations_total",
		Help:      "Shows the number of observed swaps by result, signed or skipped.",
	}, []string{"bridge_id", "chain_id", "status"})
)
