package main

import (
	"errors"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/amm"
	"spoolamm/internal/config"
	"spoolamm/internal/dex"
	"spoolamm/internal/engine"
)

var (
	usdc = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	wsol = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

func TestFormatTokenAmount(t *testing.T) {
	cases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{nil, 6, "0"},
		{big.NewInt(1234), 0, "1234"},
		{big.NewInt(1_500_000), 6, "1.500000"},
		{big.NewInt(999000), 9, "0.000999000"},
		{new(big.Int).SetUint64(^uint64(0)), 9, "18446744073.709551615"},
	}
	for _, tc := range cases {
		if got := formatTokenAmount(tc.value, tc.decimals); got != tc.want {
			t.Fatalf("formatTokenAmount(%v, %d) = %s, want %s", tc.value, tc.decimals, got, tc.want)
		}
	}
}

func TestQuoteOperation(t *testing.T) {
	pool, err := dex.DerivePool(dex.DefaultProgramID, usdc, wsol)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	op, err := quoteOperation(config.QuoteConfig{Kind: "swap", Direction: "b_to_a", AmountIn: 50}, &pool)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if op.Kind != engine.KindSwap || op.Swap.AmountIn != 50 {
		t.Fatalf("unexpected swap %+v", op.Swap)
	}
	if !op.Swap.InputVault.Equals(pool.VaultB) || !op.Swap.OutputVault.Equals(pool.VaultA) {
		t.Fatalf("b_to_a should draw from vault a")
	}
	if !op.Swap.InputAccount.IsZero() || !op.Swap.OutputAccount.IsZero() {
		t.Fatalf("quote should not carry user accounts")
	}

	op, err = quoteOperation(config.QuoteConfig{Kind: "Deposit", AmountA: 7, AmountB: 9}, &pool)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if op.Kind != engine.KindDeposit || op.Deposit.AmountA != 7 || op.Deposit.AmountB != 9 {
		t.Fatalf("unexpected deposit %+v", op.Deposit)
	}

	op, err = quoteOperation(config.QuoteConfig{Kind: "withdraw", Burn: 11}, &pool)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if op.Kind != engine.KindWithdraw || op.Withdraw.BurnAmount != 11 {
		t.Fatalf("unexpected withdraw %+v", op.Withdraw)
	}

	if _, err := quoteOperation(config.QuoteConfig{Kind: "swap", Direction: "up"}, &pool); !errors.Is(err, amm.ErrInvalidVault) {
		t.Fatalf("expected invalid vault, got %v", err)
	}
	if _, err := quoteOperation(config.QuoteConfig{Kind: "mint"}, &pool); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestPoolAddress(t *testing.T) {
	pool, err := dex.DerivePool(dex.DefaultProgramID, usdc, wsol)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	got, err := poolAddress(config.QuoteConfig{MintA: usdc.String(), MintB: wsol.String()}, dex.DefaultProgramID)
	if err != nil {
		t.Fatalf("from mints: %v", err)
	}
	if !got.Equals(pool.Address) {
		t.Fatalf("derived %s, want %s", got, pool.Address)
	}

	got, err = poolAddress(config.QuoteConfig{Pool: pool.Address.String(), MintA: "ignored"}, dex.DefaultProgramID)
	if err != nil {
		t.Fatalf("explicit pool: %v", err)
	}
	if !got.Equals(pool.Address) {
		t.Fatalf("explicit pool not used")
	}

	if _, err := poolAddress(config.QuoteConfig{MintA: usdc.String()}, dex.DefaultProgramID); err == nil {
		t.Fatalf("expected error without mint-b")
	}
	if _, err := poolAddress(config.QuoteConfig{MintA: usdc.String(), MintB: usdc.String()}, dex.DefaultProgramID); !errors.Is(err, amm.ErrIdenticalMints) {
		t.Fatalf("expected identical mints, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Fatalf("debug: %v", err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
