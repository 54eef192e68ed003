package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "spoolamm",
		Short:        "Constant-product pool accounting",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a JSONL scenario against an in-memory ledger",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input scenario JSONL")
	replayCmd.Flags().String("results", "./data/results.jsonl", "applied operations JSONL")
	replayCmd.Flags().String("failures", "./data/failures.jsonl", "rejected operations JSONL")
	replayCmd.Flags().String("pools", "./data/pools.jsonl", "created pools JSONL")
	replayCmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().String("state-name", "replay", "checkpoint name when stored in Postgres")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	replayCmd.Flags().Int("batch-size", 500, "records per journal flush")
	replayCmd.Flags().String("fee-rate", "30/1000", "swap fee as numerator/denominator or basis points")
	replayCmd.Flags().String("program-id", "", "pool program id (base58)")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Size an operation against a live pool without submitting it",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "Solana RPC URL")
	quoteCmd.Flags().String("commitment", "confirmed", "read commitment (processed, confirmed, finalized)")
	quoteCmd.Flags().String("program-id", "", "pool program id (base58)")
	quoteCmd.Flags().String("pool", "", "pool address; derived from the mints when empty")
	quoteCmd.Flags().String("mint-a", "", "first mint of the pair")
	quoteCmd.Flags().String("mint-b", "", "second mint of the pair")
	quoteCmd.Flags().String("kind", "swap", "operation to quote (deposit, swap, withdraw)")
	quoteCmd.Flags().Uint64("amount-a", 0, "deposit amount of mint a")
	quoteCmd.Flags().Uint64("amount-b", 0, "deposit amount of mint b")
	quoteCmd.Flags().Uint64("amount-in", 0, "swap input amount")
	quoteCmd.Flags().String("direction", "a_to_b", "swap direction (a_to_b, b_to_a)")
	quoteCmd.Flags().Uint64("burn", 0, "shares to burn on withdraw")
	quoteCmd.Flags().String("fee-rate", "30/1000", "swap fee as numerator/denominator or basis points")
	quoteCmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
