package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"spoolamm/internal/amm"
	"spoolamm/internal/dex"
)

func TestParseFeeRate(t *testing.T) {
	cases := []struct {
		in   string
		want amm.FeeRate
	}{
		{"", amm.DefaultFeeRate},
		{"30/1000", amm.FeeRate{Numerator: 30, Denominator: 1000}},
		{" 3 / 1000 ", amm.FeeRate{Numerator: 3, Denominator: 1000}},
		{"25", amm.FeeRate{Numerator: 25, Denominator: 10_000}},
		{"0/1", amm.FeeRate{Numerator: 0, Denominator: 1}},
	}
	for _, tc := range cases {
		got, err := ParseFeeRate(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}

	for _, in := range []string{"abc", "1/0", "2/1", "-1/100", "1/2/3", "30%"} {
		if _, err := ParseFeeRate(in); !errors.Is(err, amm.ErrInvalidFeeRate) {
			t.Fatalf("%q: expected ErrInvalidFeeRate, got %v", in, err)
		}
	}
}

func TestParseProgramID(t *testing.T) {
	got, err := ParseProgramID("")
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if !got.Equals(dex.DefaultProgramID) {
		t.Fatalf("expected default program id, got %s", got)
	}

	if _, err := ParseProgramID("not-base58-0OIl"); err == nil {
		t.Fatalf("expected error")
	}
}

func replayFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flags.String("in", "", "")
	flags.Int("batch-size", 500, "")
	flags.String("fee-rate", DefaultFeeRate, "")
	return flags
}

func TestLoadReplayPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "spoolamm.yaml")
	content := "in: ./from-file.jsonl\nbatch-size: 50\nstate-name: nightly\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := replayFlags()
	if err := flags.Parse([]string{"--in", "./from-flag.jsonl"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	t.Setenv("SPOOLAMM_FEE_RATE", "1/100")

	cfg, err := LoadReplay(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.In != "./from-flag.jsonl" {
		t.Fatalf("flag should win, got %q", cfg.In)
	}
	if cfg.BatchSize != 50 {
		t.Fatalf("config file should beat flag default, got %d", cfg.BatchSize)
	}
	if cfg.StateName != "nightly" {
		t.Fatalf("unexpected state name %q", cfg.StateName)
	}
	if cfg.FeeRate != "1/100" {
		t.Fatalf("env should beat flag default, got %q", cfg.FeeRate)
	}
	if !cfg.CheckpointEnabled || cfg.Results != "./data/results.jsonl" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadQuoteDefaults(t *testing.T) {
	cfg, err := LoadQuote("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Kind != "swap" || cfg.Direction != "a_to_b" || cfg.Commitment != "confirmed" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RetryBackoff != 500*time.Millisecond || cfg.MaxRetries != 3 {
		t.Fatalf("unexpected retry defaults: %+v", cfg)
	}
	if cfg.FeeRate != DefaultFeeRate {
		t.Fatalf("unexpected fee rate %q", cfg.FeeRate)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := LoadQuote(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}
