package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/chainbatch/ingestor/configs"
	"github.com/chainbatch/ingestor/internal/orchestrator"
	"github.com/chainbatch/ingestor/internal/rpc"
	"github.com/chainbatch/ingestor/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass from the checkpoint to the chain tip",
		Run:   RunIngest,
	}
)

func RunIngest(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting ingestor")

	rpcClient, err := rpc.Initialize()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize RPC client")
	}

	checkpoints, err := storage.NewCheckpointStore(&config.Cfg.Checkpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create checkpoint store")
	}

	sink, err := storage.NewSink(&config.Cfg.Sink)
	if err != nil {
		checkpoints.Close()
		log.Fatal().Err(err).Msg("Failed to create sink")
	}

	if addr := config.Cfg.Metrics.Addr; addr != "" {
		go func() {
			if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := ingest(ctx, rpcClient, checkpoints, sink)
	if err != nil {
		event := log.Error().Err(err).Str("category", errorCategory(err))
		if report.LastCheckpointed != nil {
			event = event.Uint64("checkpoint", *report.LastCheckpointed)
		}
		if report.BlocksProcessed > 0 {
			event.Msg("Ingestion failed after partial progress")
		} else {
			event.Msg("Ingestion failed before any progress")
		}
		os.Exit(1)
	}

	log.Info().
		Uint64("last_block", report.FinalBlock).
		Uint64("blocks_processed", report.BlocksProcessed).
		Int("artifacts", report.ArtifactsWritten).
		Msg("Ingestion complete")
}

// ingest runs one pass and releases the stores before reporting back; the
// badger checkpoint store gets its clean close even when the caller exits
// on a failed run.
func ingest(ctx context.Context, chainClient rpc.ChainClient, checkpoints storage.CheckpointStore, sink storage.Sink) (orchestrator.Report, error) {
	report, err := orchestrator.NewIngester(chainClient, checkpoints, sink).Run(ctx)
	if cerr := checkpoints.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("Failed to close checkpoint store")
	}
	if cerr := sink.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("Failed to close sink")
	}
	return report, err
}

// errorCategory maps a terminal error to the category reported on exit.
func errorCategory(err error) string {
	var protocolErr *rpc.ProtocolError
	var transportErr *rpc.TransportError
	var malformedErr *rpc.MalformedRecordError
	var storageErr *storage.StorageError
	switch {
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &malformedErr):
		return "malformed-record"
	case errors.As(err, &storageErr):
		return "storage"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unexpected"
	}
}
