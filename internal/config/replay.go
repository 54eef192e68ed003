package config

import (
	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	In                string
	Results           string
	Failures          string
	Pools             string
	Checkpoint        string
	CheckpointEnabled bool
	StateName         string
	PGDSN             string
	BatchSize         int
	FeeRate           string
	ProgramID         string
	LogLevel          string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"results":            "./data/results.jsonl",
		"failures":           "./data/failures.jsonl",
		"pools":              "./data/pools.jsonl",
		"checkpoint":         "./data/replay_checkpoint.json",
		"checkpoint-enabled": true,
		"state-name":         "replay",
		"batch-size":         500,
		"fee-rate":           DefaultFeeRate,
		"log-level":          "info",
	})
	if err != nil {
		return ReplayConfig{}, err
	}

	return ReplayConfig{
		In:                v.GetString("in"),
		Results:           v.GetString("results"),
		Failures:          v.GetString("failures"),
		Pools:             v.GetString("pools"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		StateName:         v.GetString("state-name"),
		PGDSN:             v.GetString("pg-dsn"),
		BatchSize:         v.GetInt("batch-size"),
		FeeRate:           v.GetString("fee-rate"),
		ProgramID:         v.GetString("program-id"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}
