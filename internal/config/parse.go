package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/amm"
	"spoolamm/internal/dex"
)

// DefaultFeeRate is the swap fee charged when none is configured.
const DefaultFeeRate = "30/1000"

// ParseFeeRate parses "numerator/denominator", or a bare integer taken as
// basis points. Empty input yields amm.DefaultFeeRate.
func ParseFeeRate(input string) (amm.FeeRate, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return amm.DefaultFeeRate, nil
	}

	if isNumeric(input) {
		bps, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return amm.FeeRate{}, fmt.Errorf("%w: %q", amm.ErrInvalidFeeRate, input)
		}
		return amm.NewFeeRate(bps, 10_000)
	}

	num, den, ok := strings.Cut(input, "/")
	num, den = strings.TrimSpace(num), strings.TrimSpace(den)
	if !ok || !isNumeric(num) || !isNumeric(den) {
		return amm.FeeRate{}, fmt.Errorf("%w: %q is not numerator/denominator", amm.ErrInvalidFeeRate, input)
	}
	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return amm.FeeRate{}, fmt.Errorf("%w: numerator %q", amm.ErrInvalidFeeRate, num)
	}
	d, err := strconv.ParseUint(den, 10, 64)
	if err != nil {
		return amm.FeeRate{}, fmt.Errorf("%w: denominator %q", amm.ErrInvalidFeeRate, den)
	}
	return amm.NewFeeRate(n, d)
}

// ParseProgramID parses a base58 program id. Empty input yields
// dex.DefaultProgramID.
func ParseProgramID(input string) (solana.PublicKey, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return dex.DefaultProgramID, nil
	}
	return ParsePublicKey(input)
}

// ParsePublicKey parses a base58 public key.
func ParsePublicKey(input string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(input))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid public key %q: %w", input, err)
	}
	return key, nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
