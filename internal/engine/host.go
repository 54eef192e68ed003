package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// BalanceReader reads the current quantity held in a token account and the
// outstanding supply of a mint.
type BalanceReader interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	Supply(ctx context.Context, mint solana.PublicKey) (uint64, error)
}

// CustodyTransferer moves amount of mint from one token account to another.
// The authorizer must own the source account.
type CustodyTransferer interface {
	Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64, authorizer solana.PublicKey) error
}

// ShareMinter issues and retires share tokens.
type ShareMinter interface {
	Mint(ctx context.Context, shareMint, to solana.PublicKey, amount uint64, authority solana.PublicKey) error
	Burn(ctx context.Context, shareMint, from solana.PublicKey, amount uint64, authorizer solana.PublicKey) error
}

// Session is the view of the host an operation runs against. Everything done
// through a Session inside one Atomically call commits or rolls back together.
type Session interface {
	BalanceReader
	CustodyTransferer
	ShareMinter
}

// Host provides the per-operation atomic execution context.
type Host interface {
	Atomically(ctx context.Context, fn func(Session) error) error
}
