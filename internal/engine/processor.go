package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"spoolamm/internal/amm"
	"spoolamm/internal/model"
)

// Result is the sized outcome of an operation plus the pool state it leaves
// behind. Only the payload matching Kind is set.
type Result struct {
	Kind     Kind
	Deposit  *model.DepositData
	Swap     *model.SwapData
	Withdraw *model.WithdrawData

	ReserveA    uint64
	ReserveB    uint64
	ShareSupply uint64
}

// Reserves is the pool state an operation is sized against.
type Reserves struct {
	ReserveA    uint64
	ReserveB    uint64
	ShareSupply uint64
}

// Processor sizes and applies pool operations.
type Processor struct {
	fee    amm.FeeRate
	logger *zap.Logger
}

// NewProcessor builds a Processor charging fee on every swap.
func NewProcessor(fee amm.FeeRate, logger *zap.Logger) (*Processor, error) {
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{fee: fee, logger: logger}, nil
}

// FeeRate returns the configured swap fee.
func (p *Processor) FeeRate() amm.FeeRate {
	return p.fee
}

// Preview sizes op against the balances visible through reader without
// mutating anything.
func (p *Processor) Preview(ctx context.Context, reader BalanceReader, pool *model.Pool, op Operation) (Result, error) {
	pl, err := p.plan(ctx, reader, pool, op)
	if err != nil {
		return Result{}, err
	}
	return pl.result, nil
}

// Apply sizes op and executes the resulting custody movements and share
// mint/burn inside one host transaction. Any failure leaves no effect.
func (p *Processor) Apply(ctx context.Context, host Host, pool *model.Pool, op Operation) (Result, error) {
	if host == nil {
		return Result{}, fmt.Errorf("host is nil")
	}

	var result Result
	err := host.Atomically(ctx, func(s Session) error {
		pl, err := p.plan(ctx, s, pool, op)
		if err != nil {
			return err
		}
		if err := p.execute(ctx, s, pool, pl); err != nil {
			return err
		}
		result = pl.result
		return nil
	})
	if err != nil {
		p.logger.Warn("operation rejected",
			zap.String("kind", op.Kind.String()),
			zap.String("owner", op.Owner().String()),
			zap.String("error_kind", amm.Kind(err)),
			zap.Error(err),
		)
		return Result{}, err
	}

	p.logger.Debug("operation applied",
		zap.String("kind", op.Kind.String()),
		zap.String("pool", pool.Address.String()),
		zap.Uint64("reserve_a", result.ReserveA),
		zap.Uint64("reserve_b", result.ReserveB),
		zap.Uint64("share_supply", result.ShareSupply),
	)
	return result, nil
}

// ReadReserves reads both vault balances and the share supply of pool.
func ReadReserves(ctx context.Context, reader BalanceReader, pool *model.Pool) (Reserves, error) {
	reserveA, err := reader.Balance(ctx, pool.VaultA)
	if err != nil {
		return Reserves{}, fmt.Errorf("read vault a: %w", err)
	}
	reserveB, err := reader.Balance(ctx, pool.VaultB)
	if err != nil {
		return Reserves{}, fmt.Errorf("read vault b: %w", err)
	}
	supply, err := reader.Supply(ctx, pool.ShareMint)
	if err != nil {
		return Reserves{}, fmt.Errorf("read share supply: %w", err)
	}
	return Reserves{ReserveA: reserveA, ReserveB: reserveB, ShareSupply: supply}, nil
}

// plan is the fully sized operation, ready to execute.
type plan struct {
	op     Operation
	result Result

	direction amm.Direction
	locked    uint64
}

func (p *Processor) plan(ctx context.Context, reader BalanceReader, pool *model.Pool, op Operation) (plan, error) {
	if pool == nil {
		return plan{}, fmt.Errorf("pool is nil")
	}
	if reader == nil {
		return plan{}, fmt.Errorf("balance reader is nil")
	}
	if err := op.Validate(); err != nil {
		return plan{}, err
	}

	switch op.Kind {
	case KindDeposit:
		return p.planDeposit(ctx, reader, pool, op)
	case KindSwap:
		return p.planSwap(ctx, reader, pool, op)
	default:
		return p.planWithdraw(ctx, reader, pool, op)
	}
}

func (p *Processor) planDeposit(ctx context.Context, reader BalanceReader, pool *model.Pool, op Operation) (plan, error) {
	d := op.Deposit
	if err := requireBalance(ctx, reader, d.AccountA, d.AmountA); err != nil {
		return plan{}, fmt.Errorf("deposit asset a: %w", err)
	}
	if err := requireBalance(ctx, reader, d.AccountB, d.AmountB); err != nil {
		return plan{}, fmt.Errorf("deposit asset b: %w", err)
	}

	state, err := ReadReserves(ctx, reader, pool)
	if err != nil {
		return plan{}, err
	}

	shares, err := amm.SizeDeposit(d.AmountA, d.AmountB, state.ReserveA, state.ReserveB, state.ShareSupply)
	if err != nil {
		return plan{}, fmt.Errorf("size deposit: %w", err)
	}
	locked := amm.LockedShares(state.ShareSupply)

	reserveA, err := amm.CheckedAdd(state.ReserveA, d.AmountA)
	if err != nil {
		return plan{}, fmt.Errorf("reserve a: %w", err)
	}
	reserveB, err := amm.CheckedAdd(state.ReserveB, d.AmountB)
	if err != nil {
		return plan{}, fmt.Errorf("reserve b: %w", err)
	}
	supply, err := amm.CheckedAdd(state.ShareSupply, shares)
	if err != nil {
		return plan{}, fmt.Errorf("share supply: %w", err)
	}
	if supply, err = amm.CheckedAdd(supply, locked); err != nil {
		return plan{}, fmt.Errorf("share supply: %w", err)
	}

	return plan{
		op:     op,
		locked: locked,
		result: Result{
			Kind: KindDeposit,
			Deposit: &model.DepositData{
				AmountA:      d.AmountA,
				AmountB:      d.AmountB,
				SharesMinted: shares,
				SharesLocked: locked,
			},
			ReserveA:    reserveA,
			ReserveB:    reserveB,
			ShareSupply: supply,
		},
	}, nil
}

func (p *Processor) planSwap(ctx context.Context, reader BalanceReader, pool *model.Pool, op Operation) (plan, error) {
	s := op.Swap
	direction, err := amm.ResolveDirection(pool, s.InputVault, s.OutputVault)
	if err != nil {
		return plan{}, err
	}
	if err := requireBalance(ctx, reader, s.InputAccount, s.AmountIn); err != nil {
		return plan{}, fmt.Errorf("swap input: %w", err)
	}

	state, err := ReadReserves(ctx, reader, pool)
	if err != nil {
		return plan{}, err
	}
	inputReserve, outputReserve := state.ReserveA, state.ReserveB
	if direction == amm.BToA {
		inputReserve, outputReserve = state.ReserveB, state.ReserveA
	}

	fee := p.fee.Fee(s.AmountIn)
	net := s.AmountIn - fee
	amountOut, err := amm.PriceSwap(inputReserve, outputReserve, net)
	if err != nil {
		return plan{}, fmt.Errorf("price swap: %w", err)
	}
	if amountOut == 0 {
		return plan{}, fmt.Errorf("%w: %d in prices to zero out", amm.ErrInsufficientOutput, s.AmountIn)
	}
	// The vault keeps the fee, so the product is checked against the full input.
	if err := amm.CheckInvariant(inputReserve, outputReserve, s.AmountIn, amountOut); err != nil {
		return plan{}, err
	}

	inputAfter, err := amm.CheckedAdd(inputReserve, s.AmountIn)
	if err != nil {
		return plan{}, fmt.Errorf("input reserve: %w", err)
	}
	outputAfter := outputReserve - amountOut

	result := Result{
		Kind: KindSwap,
		Swap: &model.SwapData{
			Direction: direction.String(),
			AmountIn:  s.AmountIn,
			Fee:       fee,
			NetIn:     net,
			AmountOut: amountOut,
		},
		ShareSupply: state.ShareSupply,
	}
	if direction == amm.AToB {
		result.ReserveA, result.ReserveB = inputAfter, outputAfter
	} else {
		result.ReserveA, result.ReserveB = outputAfter, inputAfter
	}
	return plan{op: op, result: result, direction: direction}, nil
}

func (p *Processor) planWithdraw(ctx context.Context, reader BalanceReader, pool *model.Pool, op Operation) (plan, error) {
	w := op.Withdraw
	if err := requireBalance(ctx, reader, w.ShareAccount, w.BurnAmount); err != nil {
		return plan{}, fmt.Errorf("burn shares: %w", err)
	}

	state, err := ReadReserves(ctx, reader, pool)
	if err != nil {
		return plan{}, err
	}

	returnA, returnB, err := amm.SizeWithdrawal(w.BurnAmount, state.ReserveA, state.ReserveB, state.ShareSupply)
	if err != nil {
		return plan{}, fmt.Errorf("size withdrawal: %w", err)
	}

	return plan{
		op: op,
		result: Result{
			Kind: KindWithdraw,
			Withdraw: &model.WithdrawData{
				SharesBurned: w.BurnAmount,
				AmountA:      returnA,
				AmountB:      returnB,
			},
			ReserveA:    state.ReserveA - returnA,
			ReserveB:    state.ReserveB - returnB,
			ShareSupply: state.ShareSupply - w.BurnAmount,
		},
	}, nil
}

// execute performs the custody movements of a sized plan. Deposits move
// custody before minting; withdrawals burn before releasing custody.
func (p *Processor) execute(ctx context.Context, s Session, pool *model.Pool, pl plan) error {
	authority := pool.Address

	switch pl.op.Kind {
	case KindDeposit:
		d := pl.op.Deposit
		if err := s.Transfer(ctx, pool.MintA, d.AccountA, pool.VaultA, d.AmountA, d.Owner); err != nil {
			return fmt.Errorf("transfer asset a: %w", err)
		}
		if err := s.Transfer(ctx, pool.MintB, d.AccountB, pool.VaultB, d.AmountB, d.Owner); err != nil {
			return fmt.Errorf("transfer asset b: %w", err)
		}
		if err := s.Mint(ctx, pool.ShareMint, d.ShareAccount, pl.result.Deposit.SharesMinted, authority); err != nil {
			return fmt.Errorf("mint shares: %w", err)
		}
		if pl.locked > 0 {
			if err := s.Mint(ctx, pool.ShareMint, pool.LockedShares, pl.locked, authority); err != nil {
				return fmt.Errorf("mint locked shares: %w", err)
			}
		}

	case KindSwap:
		sw := pl.op.Swap
		mintIn, mintOut := amm.Mints(pool, pl.direction)
		if err := s.Transfer(ctx, mintIn, sw.InputAccount, sw.InputVault, sw.AmountIn, sw.Owner); err != nil {
			return fmt.Errorf("transfer input: %w", err)
		}
		if err := s.Transfer(ctx, mintOut, sw.OutputVault, sw.OutputAccount, pl.result.Swap.AmountOut, authority); err != nil {
			return fmt.Errorf("release output: %w", err)
		}

	case KindWithdraw:
		w := pl.op.Withdraw
		if err := s.Burn(ctx, pool.ShareMint, w.ShareAccount, w.BurnAmount, w.Owner); err != nil {
			return fmt.Errorf("burn shares: %w", err)
		}
		if err := s.Transfer(ctx, pool.MintA, pool.VaultA, w.AccountA, pl.result.Withdraw.AmountA, authority); err != nil {
			return fmt.Errorf("release asset a: %w", err)
		}
		if err := s.Transfer(ctx, pool.MintB, pool.VaultB, w.AccountB, pl.result.Withdraw.AmountB, authority); err != nil {
			return fmt.Errorf("release asset b: %w", err)
		}

	default:
		return fmt.Errorf("unknown operation kind %d", uint8(pl.op.Kind))
	}
	return nil
}

// requireBalance fails with ErrAmountExceedsBalance when account holds less
// than amount. A zero account is not checked; quotes size without one.
func requireBalance(ctx context.Context, reader BalanceReader, account solana.PublicKey, amount uint64) error {
	if account.IsZero() {
		return nil
	}
	balance, err := reader.Balance(ctx, account)
	if err != nil {
		return fmt.Errorf("read balance %s: %w", account, err)
	}
	if amount > balance {
		return fmt.Errorf("%w: %d > %d", amm.ErrAmountExceedsBalance, amount, balance)
	}
	return nil
}

// IsRejection reports whether err is one of the domain rejections rather than
// a host failure.
func IsRejection(err error) bool {
	return err != nil && amm.Kind(err) != "internal"
}
