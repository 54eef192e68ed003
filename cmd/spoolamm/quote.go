package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spoolamm/internal/amm"
	"spoolamm/internal/chain"
	"spoolamm/internal/config"
	"spoolamm/internal/dex"
	"spoolamm/internal/engine"
	"spoolamm/internal/model"
)

// quoteOutput is what quote prints. Raw amounts sit in the payload; the
// post-operation pool state is shown in display units.
type quoteOutput struct {
	Pool        string              `json:"pool"`
	Kind        string              `json:"kind"`
	FeeRate     string              `json:"fee_rate"`
	Deposit     *model.DepositData  `json:"deposit,omitempty"`
	Swap        *model.SwapData     `json:"swap,omitempty"`
	Withdraw    *model.WithdrawData `json:"withdraw,omitempty"`
	ReserveA    string              `json:"reserve_a"`
	ReserveB    string              `json:"reserve_b"`
	ShareSupply string              `json:"share_supply"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	fee, err := config.ParseFeeRate(cfg.FeeRate)
	if err != nil {
		return err
	}
	programID, err := config.ParseProgramID(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("program id: %w", err)
	}
	address, err := poolAddress(cfg, programID)
	if err != nil {
		return err
	}
	processor, err := engine.NewProcessor(fee, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(cfg.RPCURL, chain.Options{
		Commitment:   rpc.CommitmentType(cfg.Commitment),
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	pool, err := client.Pool(ctx, programID, address)
	if err != nil {
		return err
	}
	if err := dex.VerifyAuthority(programID, pool); err != nil {
		return fmt.Errorf("pool %s: %w", address, err)
	}

	op, err := quoteOperation(cfg, &pool)
	if err != nil {
		return err
	}

	logger.Debug("quote",
		zap.String("pool", pool.Address.String()),
		zap.Stringer("kind", op.Kind),
		zap.String("fee_rate", fee.String()),
	)

	res, err := processor.Preview(ctx, client, &pool, op)
	if err != nil {
		return err
	}

	out := quoteOutput{
		Pool:     pool.Address.String(),
		Kind:     res.Kind.String(),
		FeeRate:  fee.String(),
		Deposit:  res.Deposit,
		Swap:     res.Swap,
		Withdraw: res.Withdraw,
	}
	for _, f := range []struct {
		dst    *string
		mint   solana.PublicKey
		amount uint64
	}{
		{&out.ReserveA, pool.MintA, res.ReserveA},
		{&out.ReserveB, pool.MintB, res.ReserveB},
		{&out.ShareSupply, pool.ShareMint, res.ShareSupply},
	} {
		decimals, err := client.Decimals(ctx, f.mint)
		if err != nil {
			return fmt.Errorf("decimals of %s: %w", f.mint, err)
		}
		*f.dst = formatTokenAmount(new(big.Int).SetUint64(f.amount), decimals)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// poolAddress takes --pool when set and otherwise derives the address from
// the mint pair.
func poolAddress(cfg config.QuoteConfig, programID solana.PublicKey) (solana.PublicKey, error) {
	if strings.TrimSpace(cfg.Pool) != "" {
		address, err := config.ParsePublicKey(cfg.Pool)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("pool: %w", err)
		}
		return address, nil
	}
	if cfg.MintA == "" || cfg.MintB == "" {
		return solana.PublicKey{}, fmt.Errorf("pool or mint-a and mint-b are required")
	}
	mintA, err := config.ParsePublicKey(cfg.MintA)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("mint-a: %w", err)
	}
	mintB, err := config.ParsePublicKey(cfg.MintB)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("mint-b: %w", err)
	}
	pool, err := dex.DerivePool(programID, mintA, mintB)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return pool.Address, nil
}

// quoteOperation builds the operation to preview. No user accounts are set,
// so only pool state bounds the result.
func quoteOperation(cfg config.QuoteConfig, pool *model.Pool) (engine.Operation, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "deposit":
		return engine.NewDeposit(engine.Deposit{AmountA: cfg.AmountA, AmountB: cfg.AmountB}), nil
	case "swap":
		direction, err := amm.ParseDirection(cfg.Direction)
		if err != nil {
			return engine.Operation{}, err
		}
		inputVault, outputVault, err := amm.Vaults(pool, direction)
		if err != nil {
			return engine.Operation{}, err
		}
		return engine.NewSwap(engine.Swap{
			InputVault:  inputVault,
			OutputVault: outputVault,
			AmountIn:    cfg.AmountIn,
		}), nil
	case "withdraw":
		return engine.NewWithdraw(engine.Withdraw{BurnAmount: cfg.Burn}), nil
	default:
		return engine.Operation{}, fmt.Errorf("unknown kind %q", cfg.Kind)
	}
}

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(value, denom).FloatString(int(decimals))
}
