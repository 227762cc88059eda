package cmd

import (
	"os"

	configs "github.com/chainbatch/ingestor/configs"
	"github.com/chainbatch/ingestor/internal/env"
	customLogger "github.com/chainbatch/ingestor/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "ingestor",
		Short: "Checkpoint-resumable block ingestion from a JSON-RPC endpoint",
		Long:  "Fetches blocks and transactions from an Ethereum-style JSON-RPC endpoint, normalizes hex fields to decimal form and writes size-bounded JSON batches, resuming from a durable checkpoint.",
		Run: func(cmd *cobra.Command, args []string) {
			RunIngest(cmd, args)
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().String("rpc-url", "", "JSON-RPC endpoint base URL")
	rootCmd.PersistentFlags().String("rpc-api-key", "", "API key appended to the endpoint URL")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().Int("ingester-flush-threshold-bytes", 0, "Batch size in bytes that triggers a flush")
	rootCmd.PersistentFlags().String("checkpoint-badger-path", "", "Directory for the local badger checkpoint store")
	rootCmd.PersistentFlags().String("checkpoint-s3-bucket", "", "Bucket for the S3 checkpoint store")
	rootCmd.PersistentFlags().String("checkpoint-s3-key", "", "Object key for the S3 checkpoint store")
	rootCmd.PersistentFlags().String("sink-local-dir", "", "Directory for the local output sink")
	rootCmd.PersistentFlags().String("sink-s3-bucket", "", "Bucket for the S3 output sink")
	rootCmd.PersistentFlags().String("sink-s3-prefix", "", "Key prefix for the S3 output sink")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Listen address for prometheus metrics (disabled when empty)")
	viper.BindPFlag("rpc.url", rootCmd.PersistentFlags().Lookup("rpc-url"))
	viper.BindPFlag("rpc.apiKey", rootCmd.PersistentFlags().Lookup("rpc-api-key"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("ingester.flushThresholdBytes", rootCmd.PersistentFlags().Lookup("ingester-flush-threshold-bytes"))
	viper.BindPFlag("checkpoint.badger.path", rootCmd.PersistentFlags().Lookup("checkpoint-badger-path"))
	viper.BindPFlag("checkpoint.s3.bucket", rootCmd.PersistentFlags().Lookup("checkpoint-s3-bucket"))
	viper.BindPFlag("checkpoint.s3.key", rootCmd.PersistentFlags().Lookup("checkpoint-s3-key"))
	viper.BindPFlag("sink.local.dir", rootCmd.PersistentFlags().Lookup("sink-local-dir"))
	viper.BindPFlag("sink.s3.bucket", rootCmd.PersistentFlags().Lookup("sink-s3-bucket"))
	viper.BindPFlag("sink.s3.prefix", rootCmd.PersistentFlags().Lookup("sink-s3-prefix"))
	viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
	rootCmd.AddCommand(ingestCmd)
}

func initConfig() {
	env.Load()
	configs.LoadConfig(cfgFile)
	customLogger.InitLogger()
}
