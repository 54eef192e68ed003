package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	RPCURL       string
	Commitment   string
	ProgramID    string
	Pool         string
	MintA        string
	MintB        string
	Kind         string
	AmountA      uint64
	AmountB      uint64
	AmountIn     uint64
	Direction    string
	Burn         uint64
	FeeRate      string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"commitment":    "confirmed",
		"kind":          "swap",
		"direction":     "a_to_b",
		"fee-rate":      DefaultFeeRate,
		"max-retries":   3,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		RPCURL:       v.GetString("rpc"),
		Commitment:   v.GetString("commitment"),
		ProgramID:    v.GetString("program-id"),
		Pool:         v.GetString("pool"),
		MintA:        v.GetString("mint-a"),
		MintB:        v.GetString("mint-b"),
		Kind:         v.GetString("kind"),
		AmountA:      v.GetUint64("amount-a"),
		AmountB:      v.GetUint64("amount-b"),
		AmountIn:     v.GetUint64("amount-in"),
		Direction:    v.GetString("direction"),
		Burn:         v.GetUint64("burn"),
		FeeRate:      v.GetString("fee-rate"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
