package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/amm"
	"spoolamm/internal/model"
)

// session is the engine view of a locked Ledger. Its methods assume l.mu is
// held by Atomically.
type session struct {
	l *Ledger
}

func (s session) Balance(_ context.Context, account solana.PublicKey) (uint64, error) {
	acc, ok := s.l.accounts[account]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return acc.Amount, nil
}

func (s session) Supply(_ context.Context, mint solana.PublicKey) (uint64, error) {
	m, ok := s.l.mints[mint]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	return m.Supply, nil
}

func (s session) Transfer(_ context.Context, mint, from, to solana.PublicKey, amount uint64, authorizer solana.PublicKey) error {
	src, err := s.l.accountOf(from, mint)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	dst, err := s.l.accountOf(to, mint)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if !src.Owner.Equals(authorizer) {
		return fmt.Errorf("%w: %s does not own %s", ErrUnauthorized, authorizer, from)
	}
	if from.Equals(to) {
		if amount > src.Amount {
			return fmt.Errorf("%w: %d > %d", amm.ErrAmountExceedsBalance, amount, src.Amount)
		}
		return nil
	}

	remaining, underflow := math.SafeSub(src.Amount, amount)
	if underflow {
		return fmt.Errorf("%w: %d > %d", amm.ErrAmountExceedsBalance, amount, src.Amount)
	}
	credited, overflow := math.SafeAdd(dst.Amount, amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s", amm.ErrArithmeticOverflow, to)
	}

	src.Amount = remaining
	dst.Amount = credited
	s.l.accounts[from] = src
	s.l.accounts[to] = dst
	return nil
}

func (s session) Mint(_ context.Context, shareMint, to solana.PublicKey, amount uint64, authority solana.PublicKey) error {
	m, ok := s.l.mints[shareMint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMintNotFound, shareMint)
	}
	if !m.Authority.Equals(authority) {
		return fmt.Errorf("%w: %s is not the authority of %s", ErrUnauthorized, authority, shareMint)
	}
	return s.l.issue(shareMint, to, amount)
}

func (s session) Burn(_ context.Context, shareMint, from solana.PublicKey, amount uint64, authorizer solana.PublicKey) error {
	m, ok := s.l.mints[shareMint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMintNotFound, shareMint)
	}
	acc, err := s.l.accountOf(from, shareMint)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(authorizer) {
		return fmt.Errorf("%w: %s does not own %s", ErrUnauthorized, authorizer, from)
	}

	remaining, underflow := math.SafeSub(acc.Amount, amount)
	if underflow {
		return fmt.Errorf("%w: burn %d > %d", amm.ErrAmountExceedsBalance, amount, acc.Amount)
	}
	supply, underflow := math.SafeSub(m.Supply, amount)
	if underflow {
		return fmt.Errorf("%w: burn %d > supply %d", amm.ErrArithmeticOverflow, amount, m.Supply)
	}

	acc.Amount = remaining
	m.Supply = supply
	s.l.accounts[from] = acc
	s.l.mints[shareMint] = m
	return nil
}

// issue credits amount new units of mint to account and grows the supply.
func (l *Ledger) issue(mint, account solana.PublicKey, amount uint64) error {
	m, ok := l.mints[mint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	acc, err := l.accountOf(account, mint)
	if err != nil {
		return err
	}

	supply, overflow := math.SafeAdd(m.Supply, amount)
	if overflow {
		return fmt.Errorf("%w: supply of %s", amm.ErrArithmeticOverflow, mint)
	}
	balance, overflow := math.SafeAdd(acc.Amount, amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s", amm.ErrArithmeticOverflow, account)
	}

	m.Supply = supply
	acc.Amount = balance
	l.mints[mint] = m
	l.accounts[account] = acc
	return nil
}

func (l *Ledger) accountOf(address, mint solana.PublicKey) (model.TokenAccount, error) {
	acc, ok := l.accounts[address]
	if !ok {
		return model.TokenAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if !acc.Mint.Equals(mint) {
		return model.TokenAccount{}, fmt.Errorf("%w: %s holds %s, not %s", ErrMintMismatch, address, acc.Mint, mint)
	}
	return acc, nil
}
