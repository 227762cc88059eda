package orchestrator

import (
	"context"
	"fmt"
	"time"

	config "github.com/chainbatch/ingestor/configs"
	"github.com/chainbatch/ingestor/internal/batch"
	"github.com/chainbatch/ingestor/internal/metrics"
	"github.com/chainbatch/ingestor/internal/rpc"
	"github.com/chainbatch/ingestor/internal/storage"
	"github.com/rs/zerolog/log"
)

const DEFAULT_FLUSH_THRESHOLD_BYTES = 20 * 1024 * 1024

const runStampLayout = "2006_01_02__15_04_05"

// Ingester drives one ingestion run: resume from the checkpoint, walk blocks
// up to the chain tip one at a time, normalize, batch, flush on size, and
// advance the checkpoint only after flushed data is durable.
type Ingester struct {
	rpc         rpc.ChainClient
	checkpoints storage.CheckpointStore
	sink        storage.Sink

	flushThreshold int
	runStamp       string

	blockBatch *batch.Accumulator
	txBatch    *batch.Accumulator
	blockSeq   int
	txSeq      int
}

// Report summarizes a run. LastCheckpointed is nil when the run made no
// durable progress; on a failed run it is the resumption point.
type Report struct {
	LatestBlock      uint64
	FinalBlock       uint64
	BlocksProcessed  uint64
	ArtifactsWritten int
	LastCheckpointed *uint64
}

type IngesterOption func(*Ingester)

func WithFlushThreshold(bytes int) IngesterOption {
	return func(i *Ingester) {
		i.flushThreshold = bytes
	}
}

func NewIngester(rpcClient rpc.ChainClient, checkpoints storage.CheckpointStore, sink storage.Sink, opts ...IngesterOption) *Ingester {
	flushThreshold := config.Cfg.Ingester.FlushThresholdBytes
	if flushThreshold == 0 {
		flushThreshold = DEFAULT_FLUSH_THRESHOLD_BYTES
	}

	ingester := &Ingester{
		rpc:            rpcClient,
		checkpoints:    checkpoints,
		sink:           sink,
		flushThreshold: flushThreshold,
		runStamp:       time.Now().UTC().Format(runStampLayout),
		blockBatch:     batch.NewAccumulator(),
		txBatch:        batch.NewAccumulator(),
		blockSeq:       1,
		txSeq:          1,
	}
	for _, opt := range opts {
		opt(ingester)
	}
	return ingester
}

func (i *Ingester) Run(ctx context.Context) (Report, error) {
	report := Report{}

	checkpoint, err := i.checkpoints.LoadCheckpoint(ctx)
	if err != nil {
		return report, err
	}
	report.LastCheckpointed = checkpoint

	latest, err := i.rpc.GetLatestBlockNumber(ctx)
	if err != nil {
		return report, err
	}
	report.LatestBlock = latest
	metrics.ChainHead.Set(float64(latest))

	var start uint64
	if checkpoint == nil || *checkpoint == 0 {
		// no prior progress: skip history and start from the chain tip.
		// zero counts as absent, stores may initialize the value to 0.
		log.Info().Uint64("latest", latest).Msg("No checkpoint found, starting from latest block")
		start = latest
	} else {
		log.Info().Uint64("checkpoint", *checkpoint).Uint64("latest", latest).Msg("Resuming from checkpoint")
		start = *checkpoint + 1
	}

	if start > latest {
		log.Info().Msg("No new blocks to ingest")
		report.FinalBlock = latest
		return report, nil
	}

	for blockNumber := start; blockNumber <= latest; blockNumber++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := i.ingestBlock(ctx, blockNumber, &report); err != nil {
			return report, fmt.Errorf("block %d: %w", blockNumber, err)
		}
		report.FinalBlock = blockNumber
		report.BlocksProcessed++
		metrics.LastProcessedBlock.Set(float64(blockNumber))
		metrics.BlocksIngested.Inc()
	}

	if err := i.finalize(ctx, latest, &report); err != nil {
		return report, err
	}
	report.FinalBlock = latest
	return report, nil
}

func (i *Ingester) ingestBlock(ctx context.Context, blockNumber uint64, report *Report) error {
	log.Debug().Uint64("block", blockNumber).Msg("Fetching block")
	raw, err := i.rpc.GetBlockByNumber(ctx, blockNumber)
	if err != nil {
		return err
	}

	block, err := rpc.SerializeBlock(raw)
	if err != nil {
		return err
	}

	// transactions are stored as their own stream, detached from the block
	transactions := block.Transactions
	block.Transactions = nil

	for idx := range transactions {
		if err := i.txBatch.Append(&transactions[idx]); err != nil {
			return err
		}
	}
	if err := i.blockBatch.Append(&block); err != nil {
		return err
	}

	if i.blockBatch.SizeEstimate() < i.flushThreshold && i.txBatch.SizeEstimate() < i.flushThreshold {
		return nil
	}

	// the checkpoint may only advance once every stream is durable through
	// this block, so a threshold hit on either stream flushes both
	if i.blockBatch.Len() > 0 {
		if err := i.flushBlocks(ctx, report); err != nil {
			return err
		}
	}
	if i.txBatch.Len() > 0 {
		if err := i.flushTransactions(ctx, report); err != nil {
			return err
		}
	}
	return i.saveCheckpoint(ctx, blockNumber, report)
}

func (i *Ingester) finalize(ctx context.Context, latest uint64, report *Report) error {
	if i.blockBatch.Len() > 0 {
		if err := i.flushBlocks(ctx, report); err != nil {
			return err
		}
	}
	if i.txBatch.Len() > 0 {
		if err := i.flushTransactions(ctx, report); err != nil {
			return err
		}
	}
	return i.saveCheckpoint(ctx, latest, report)
}

func (i *Ingester) flushBlocks(ctx context.Context, report *Report) error {
	if err := i.flush(ctx, "blocks", i.blockBatch, &i.blockSeq); err != nil {
		return err
	}
	report.ArtifactsWritten++
	return nil
}

func (i *Ingester) flushTransactions(ctx context.Context, report *Report) error {
	if err := i.flush(ctx, "transactions", i.txBatch, &i.txSeq); err != nil {
		return err
	}
	report.ArtifactsWritten++
	return nil
}

func (i *Ingester) flush(ctx context.Context, stream string, accumulator *batch.Accumulator, seq *int) error {
	size := accumulator.SizeEstimate()
	records := accumulator.Drain()
	name := fmt.Sprintf("%s_%s_%d.json", stream, i.runStamp, *seq)

	if err := i.sink.WriteArtifact(ctx, name, records); err != nil {
		return err
	}
	*seq++

	metrics.FlushedArtifacts.WithLabelValues(stream).Inc()
	metrics.FlushedBytes.WithLabelValues(stream).Add(float64(size))
	log.Info().Str("artifact", name).Int("records", len(records)).Int("bytes", size).Msg("Flushed batch")
	return nil
}

func (i *Ingester) saveCheckpoint(ctx context.Context, blockNumber uint64, report *Report) error {
	if err := i.checkpoints.SaveCheckpoint(ctx, blockNumber); err != nil {
		return err
	}
	checkpointed := blockNumber
	report.LastCheckpointed = &checkpointed
	metrics.LastCheckpointedBlock.Set(float64(blockNumber))
	log.Debug().Uint64("block", blockNumber).Msg("Checkpoint saved")
	return nil
}
