package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"spoolamm/internal/amm"
	"spoolamm/internal/dex"
	"spoolamm/internal/engine"
	"spoolamm/internal/model"
)

func key(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[31] = b
	return k
}

var (
	mintA  = key(1)
	mintB  = key(2)
	alice  = key(10)
	aliceA = key(11)
	aliceB = key(12)
	aliceS = key(13)
)

// seeded returns a ledger with one pool and alice funded with 10M of each asset.
func seeded(t *testing.T) (*Ledger, model.Pool) {
	t.Helper()
	require := require.New(t)

	l := New()
	require.NoError(l.CreateMint(mintA, key(100), 6))
	require.NoError(l.CreateMint(mintB, key(100), 9))

	pool, err := dex.DerivePool(dex.DefaultProgramID, mintA, mintB)
	require.NoError(err)
	require.NoError(l.CreatePool(pool))

	require.NoError(l.CreateAccount(aliceA, mintA, alice))
	require.NoError(l.CreateAccount(aliceB, mintB, alice))
	require.NoError(l.CreateAccount(aliceS, pool.ShareMint, alice))
	require.NoError(l.Fund(aliceA, 10_000_000))
	require.NoError(l.Fund(aliceB, 10_000_000))
	return l, pool
}

func balance(t *testing.T, l *Ledger, address solana.PublicKey) uint64 {
	t.Helper()
	acc, ok := l.Account(address)
	require.True(t, ok, "account %s", address)
	return acc.Amount
}

func TestCreatePool(t *testing.T) {
	require := require.New(t)
	l, pool := seeded(t)

	vault, ok := l.Account(pool.VaultA)
	require.True(ok)
	require.Equal(pool.Address, vault.Owner)
	require.Equal(mintA, vault.Mint)

	share, ok := l.TokenMint(pool.ShareMint)
	require.True(ok)
	require.Equal(pool.Address, share.Authority)
	require.Equal(ShareDecimals, share.Decimals)

	err := l.CreatePool(pool)
	require.ErrorIs(err, ErrAlreadyExists)

	other, err := dex.DerivePool(dex.DefaultProgramID, mintA, key(50))
	require.NoError(err)
	err = l.CreatePool(other)
	require.ErrorIs(err, ErrMintNotFound)
	_, ok = l.Account(other.VaultA)
	require.False(ok)
}

func TestCreatePoolRegistersNewMints(t *testing.T) {
	require := require.New(t)
	l := New()

	pool, err := dex.DerivePool(dex.DefaultProgramID, mintA, mintB)
	require.NoError(err)
	require.NoError(l.CreatePool(pool,
		model.TokenMint{Address: mintA, Authority: key(100), Decimals: 6},
		model.TokenMint{Address: mintB, Authority: key(100), Decimals: 9},
	))
	m, ok := l.TokenMint(mintB)
	require.True(ok)
	require.Equal(uint8(9), m.Decimals)

	share, ok := l.TokenMint(pool.ShareMint)
	require.True(ok)
	require.True(share.IsShareMint())
	require.Equal(pool.Address, share.ShareOf)
	reserve, _ := l.TokenMint(mintA)
	require.False(reserve.IsShareMint())
}

func TestCreatePoolLeavesNothingBehindOnFailure(t *testing.T) {
	require := require.New(t)
	l := New()

	pool, err := dex.DerivePool(dex.DefaultProgramID, mintA, mintB)
	require.NoError(err)
	// The vault address is taken by a mint, so opening vault a fails.
	require.NoError(l.CreateMint(pool.VaultA, key(100), 0))

	err = l.CreatePool(pool,
		model.TokenMint{Address: mintA, Authority: key(100), Decimals: 6},
		model.TokenMint{Address: mintB, Authority: key(100), Decimals: 9},
	)
	require.ErrorIs(err, ErrAlreadyExists)

	_, ok := l.TokenMint(mintA)
	require.False(ok)
	_, ok = l.TokenMint(mintB)
	require.False(ok)
	_, ok = l.TokenMint(pool.ShareMint)
	require.False(ok)
	require.Len(l.Snapshot().Mints, 1)
}

func TestFundRefusesShareMint(t *testing.T) {
	require := require.New(t)
	l, pool := seeded(t)

	err := l.Fund(aliceS, 9_000_000)
	require.ErrorIs(err, ErrShareMint)
	require.Equal(uint64(0), balance(t, l, aliceS))
	share, _ := l.TokenMint(pool.ShareMint)
	require.Equal(uint64(0), share.Supply)

	require.ErrorIs(l.Fund(pool.LockedShares, 1), ErrShareMint)
}

func TestProcessorAgainstLedger(t *testing.T) {
	require := require.New(t)
	l, pool := seeded(t)
	ctx := context.Background()

	p, err := engine.NewProcessor(amm.DefaultFeeRate, nil)
	require.NoError(err)

	res, err := p.Apply(ctx, l, &pool, engine.NewDeposit(engine.Deposit{
		Owner: alice, AccountA: aliceA, AccountB: aliceB, ShareAccount: aliceS,
		AmountA: 1_000_000, AmountB: 1_000_000,
	}))
	require.NoError(err)
	require.Equal(uint64(999_000), res.Deposit.SharesMinted)
	require.Equal(uint64(999_000), balance(t, l, aliceS))
	require.Equal(uint64(1000), balance(t, l, pool.LockedShares))
	require.Equal(uint64(9_000_000), balance(t, l, aliceA))

	before := amm.Product(balance(t, l, pool.VaultA), balance(t, l, pool.VaultB))
	res, err = p.Apply(ctx, l, &pool, engine.NewSwap(engine.Swap{
		Owner: alice, InputAccount: aliceA, OutputAccount: aliceB,
		InputVault: pool.VaultA, OutputVault: pool.VaultB, AmountIn: 10_000,
	}))
	require.NoError(err)
	require.Equal(res.ReserveA, balance(t, l, pool.VaultA))
	require.Equal(res.ReserveB, balance(t, l, pool.VaultB))
	require.Equal(uint64(1_010_000), res.ReserveA)
	after := amm.Product(res.ReserveA, res.ReserveB)
	require.NoError(amm.CheckInvariant(1_000_000, 1_000_000, 10_000, res.Swap.AmountOut))
	require.NotEqual(before, after)

	res, err = p.Apply(ctx, l, &pool, engine.NewWithdraw(engine.Withdraw{
		Owner: alice, AccountA: aliceA, AccountB: aliceB, ShareAccount: aliceS,
		BurnAmount: 999_000,
	}))
	require.NoError(err)
	require.Zero(balance(t, l, aliceS))
	supply, ok := l.TokenMint(pool.ShareMint)
	require.True(ok)
	require.Equal(uint64(1000), supply.Supply)
	require.Equal(res.ReserveA, balance(t, l, pool.VaultA))
	require.Equal(res.ReserveB, balance(t, l, pool.VaultB))
}

func TestAtomicallyRollsBack(t *testing.T) {
	require := require.New(t)
	l, pool := seeded(t)
	before := l.Snapshot()

	boom := errors.New("boom")
	err := l.Atomically(context.Background(), func(s engine.Session) error {
		if err := s.Transfer(context.Background(), mintA, aliceA, pool.VaultA, 500, alice); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(err, boom)
	require.Equal(before, l.Snapshot())
}

func TestAtomicallyHonoursCancelledContext(t *testing.T) {
	l, _ := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.Atomically(ctx, func(engine.Session) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestSessionChecks(t *testing.T) {
	l, pool := seeded(t)
	ctx := context.Background()

	cases := []struct {
		name string
		fn   func(engine.Session) error
		want error
	}{
		{"vault release needs pool authority", func(s engine.Session) error {
			return s.Transfer(ctx, mintA, pool.VaultA, aliceA, 0, alice)
		}, ErrUnauthorized},
		{"mint mismatch", func(s engine.Session) error {
			return s.Transfer(ctx, mintA, aliceB, pool.VaultB, 1, alice)
		}, ErrMintMismatch},
		{"overdraw", func(s engine.Session) error {
			return s.Transfer(ctx, mintA, aliceA, pool.VaultA, 10_000_001, alice)
		}, amm.ErrAmountExceedsBalance},
		{"self overdraw", func(s engine.Session) error {
			return s.Transfer(ctx, mintA, aliceA, aliceA, 10_000_001, alice)
		}, amm.ErrAmountExceedsBalance},
		{"unknown account", func(s engine.Session) error {
			_, err := s.Balance(ctx, key(77))
			return err
		}, ErrAccountNotFound},
		{"unknown mint", func(s engine.Session) error {
			_, err := s.Supply(ctx, key(77))
			return err
		}, ErrMintNotFound},
		{"mint needs authority", func(s engine.Session) error {
			return s.Mint(ctx, pool.ShareMint, aliceS, 1, alice)
		}, ErrUnauthorized},
		{"burn needs owner", func(s engine.Session) error {
			return s.Burn(ctx, pool.ShareMint, aliceS, 0, pool.Address)
		}, ErrUnauthorized},
		{"burn over balance", func(s engine.Session) error {
			return s.Burn(ctx, pool.ShareMint, aliceS, 1, alice)
		}, amm.ErrAmountExceedsBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := l.Atomically(ctx, tc.fn)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFundOverflow(t *testing.T) {
	l, _ := seeded(t)
	err := l.Fund(aliceA, math.MaxUint64)
	require.ErrorIs(t, err, amm.ErrArithmeticOverflow)
	require.Equal(t, uint64(10_000_000), balance(t, l, aliceA))

	require.ErrorIs(t, l.Fund(key(77), 1), ErrAccountNotFound)
}

func TestSnapshotRestore(t *testing.T) {
	require := require.New(t)
	l, _ := seeded(t)

	data, err := json.Marshal(l.Snapshot())
	require.NoError(err)

	var snap Snapshot
	require.NoError(json.Unmarshal(data, &snap))

	restored := New()
	require.NoError(restored.Restore(snap))
	require.Equal(l.Snapshot(), restored.Snapshot())
	require.Equal(uint64(10_000_000), balance(t, restored, aliceB))

	snap.Mints = nil
	require.ErrorIs(restored.Restore(snap), ErrMintNotFound)
}
