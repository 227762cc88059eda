package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingester metrics
var (
	ChainHead = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingester_chain_head",
		Help: "The latest block number reported by the RPC endpoint",
	})

	LastProcessedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingester_last_processed_block",
		Help: "The last block number fetched and normalized by the ingester",
	})

	LastCheckpointedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingester_last_checkpointed_block",
		Help: "The last block number persisted to the checkpoint store",
	})

	BlocksIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingester_blocks_ingested_total",
		Help: "The total number of blocks fetched and normalized",
	})

	FlushedArtifacts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingester_flushed_artifacts_total",
		Help: "The total number of batch artifacts written to the sink",
	}, []string{"stream"})

	FlushedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingester_flushed_bytes_total",
		Help: "The total number of bytes written to the sink",
	}, []string{"stream"})
)

// RPC client metrics
var (
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpc_rate_limit_waits_total",
		Help: "The total number of rate-limit waits performed by the RPC client",
	})

	TransportRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpc_transport_retries_total",
		Help: "The total number of transport-level retries performed by the RPC client",
	})
)
