package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spoolamm/internal/config"
	"spoolamm/internal/engine"
	"spoolamm/internal/replay"
	"spoolamm/internal/storage"
	"spoolamm/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	fee, err := config.ParseFeeRate(cfg.FeeRate)
	if err != nil {
		return err
	}
	programID, err := config.ParseProgramID(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("program id: %w", err)
	}
	processor, err := engine.NewProcessor(fee, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal := storage.Fanout{storage.NewJsonlStorage(cfg.Results, cfg.Failures, cfg.Pools)}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		journal = append(journal, store)
	}

	var checkpoint replay.CheckpointStore
	switch {
	case !cfg.CheckpointEnabled:
	case store != nil:
		checkpoint = &replay.DBCheckpointStore{Store: store, Name: cfg.StateName}
	default:
		checkpoint = &replay.FileCheckpointStore{Path: cfg.Checkpoint}
	}

	in, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	runner := replay.NewRunner(replay.RunConfig{
		ProgramID: programID,
		BatchSize: cfg.BatchSize,
	}, processor, journal, checkpoint, logger)

	logger.Info("replay start",
		zap.String("input", cfg.In),
		zap.String("program_id", programID.String()),
		zap.String("fee_rate", fee.String()),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	if _, err := runner.Run(ctx, in); err != nil {
		return err
	}
	return nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
