package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/engine"
	"spoolamm/internal/model"
)

var (
	ErrAccountNotFound = errors.New("token account not found")
	ErrMintNotFound    = errors.New("mint not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrMintMismatch    = errors.New("mint mismatch")
	ErrShareMint       = errors.New("pool shares are only issued by deposits")
)

// ShareDecimals is the precision of every pool share mint.
const ShareDecimals uint8 = 9

// Ledger is an in-process token host. It keeps token accounts and mints in
// memory and runs each engine operation all-or-nothing.
type Ledger struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]model.TokenAccount
	mints    map[solana.PublicKey]model.TokenMint
}

// Snapshot is the serialisable content of a Ledger, sorted by address.
type Snapshot struct {
	Mints    []model.TokenMint    `json:"mints"`
	Accounts []model.TokenAccount `json:"accounts"`
}

func New() *Ledger {
	return &Ledger{
		accounts: make(map[solana.PublicKey]model.TokenAccount),
		mints:    make(map[solana.PublicKey]model.TokenMint),
	}
}

// CreateMint registers a new mint with zero supply.
func (l *Ledger) CreateMint(address, authority solana.PublicKey, decimals uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createMint(address, authority, decimals)
}

// CreateAccount opens an empty token account of mint held by owner.
func (l *Ledger) CreateAccount(address, mint, owner solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createAccount(address, mint, owner)
}

// Fund issues amount new units of the account's mint into account. It stands
// in for an external faucet and bypasses the mint authority of reserve
// mints. Share mints are refused with ErrShareMint.
func (l *Ledger) Fund(account solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	if m, ok := l.mints[acc.Mint]; ok && m.IsShareMint() {
		return fmt.Errorf("%w: %s is the share mint of %s", ErrShareMint, m.Address, m.ShareOf)
	}
	return l.issue(acc.Mint, account, amount)
}

// CreatePool opens the two vaults, the share mint and the locked share account
// of pool, all controlled by the pool address. newMints are registered first,
// in the same all-or-nothing step; the reserve mints must exist afterwards.
func (l *Ledger) CreatePool(pool model.Pool, newMints ...model.TokenMint) error {
	return l.Atomically(context.Background(), func(engine.Session) error {
		for _, m := range newMints {
			if err := l.createMint(m.Address, m.Authority, m.Decimals); err != nil {
				return err
			}
		}
		for _, mint := range []solana.PublicKey{pool.MintA, pool.MintB} {
			if _, ok := l.mints[mint]; !ok {
				return fmt.Errorf("%w: %s", ErrMintNotFound, mint)
			}
		}
		if err := l.createAccount(pool.VaultA, pool.MintA, pool.Address); err != nil {
			return fmt.Errorf("vault a: %w", err)
		}
		if err := l.createAccount(pool.VaultB, pool.MintB, pool.Address); err != nil {
			return fmt.Errorf("vault b: %w", err)
		}
		if err := l.createMint(pool.ShareMint, pool.Address, ShareDecimals); err != nil {
			return fmt.Errorf("share mint: %w", err)
		}
		share := l.mints[pool.ShareMint]
		share.ShareOf = pool.Address
		l.mints[pool.ShareMint] = share
		if err := l.createAccount(pool.LockedShares, pool.ShareMint, pool.Address); err != nil {
			return fmt.Errorf("locked shares: %w", err)
		}
		return nil
	})
}

// Account returns a copy of the token account at address.
func (l *Ledger) Account(address solana.PublicKey) (model.TokenAccount, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[address]
	return acc, ok
}

// TokenMint returns a copy of the mint at address.
func (l *Ledger) TokenMint(address solana.PublicKey) (model.TokenMint, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.mints[address]
	return m, ok
}

// Atomically runs fn against the ledger under its lock. If fn fails every
// change it made is discarded.
func (l *Ledger) Atomically(ctx context.Context, fn func(engine.Session) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	saved := l.snapshot()
	if err := fn(session{l: l}); err != nil {
		l.restore(saved)
		return err
	}
	return nil
}

// Snapshot copies the ledger content.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Restore replaces the ledger content with snap.
func (l *Ledger) Restore(snap Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, acc := range snap.Accounts {
		if !containsMint(snap.Mints, acc.Mint) {
			return fmt.Errorf("account %s: %w: %s", acc.Address, ErrMintNotFound, acc.Mint)
		}
	}
	l.restore(snap)
	return nil
}

func (l *Ledger) snapshot() Snapshot {
	snap := Snapshot{
		Mints:    make([]model.TokenMint, 0, len(l.mints)),
		Accounts: make([]model.TokenAccount, 0, len(l.accounts)),
	}
	for _, m := range l.mints {
		snap.Mints = append(snap.Mints, m)
	}
	for _, acc := range l.accounts {
		snap.Accounts = append(snap.Accounts, acc)
	}
	sort.Slice(snap.Mints, func(i, j int) bool {
		return snap.Mints[i].Address.String() < snap.Mints[j].Address.String()
	})
	sort.Slice(snap.Accounts, func(i, j int) bool {
		return snap.Accounts[i].Address.String() < snap.Accounts[j].Address.String()
	})
	return snap
}

func (l *Ledger) restore(snap Snapshot) {
	l.mints = make(map[solana.PublicKey]model.TokenMint, len(snap.Mints))
	for _, m := range snap.Mints {
		l.mints[m.Address] = m
	}
	l.accounts = make(map[solana.PublicKey]model.TokenAccount, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		l.accounts[acc.Address] = acc
	}
}

func (l *Ledger) createMint(address, authority solana.PublicKey, decimals uint8) error {
	if _, ok := l.mints[address]; ok {
		return fmt.Errorf("mint %s: %w", address, ErrAlreadyExists)
	}
	if _, ok := l.accounts[address]; ok {
		return fmt.Errorf("address %s is a token account: %w", address, ErrAlreadyExists)
	}
	l.mints[address] = model.TokenMint{Address: address, Authority: authority, Decimals: decimals}
	return nil
}

func (l *Ledger) createAccount(address, mint, owner solana.PublicKey) error {
	if _, ok := l.mints[mint]; !ok {
		return fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	if _, ok := l.accounts[address]; ok {
		return fmt.Errorf("account %s: %w", address, ErrAlreadyExists)
	}
	if _, ok := l.mints[address]; ok {
		return fmt.Errorf("address %s is a mint: %w", address, ErrAlreadyExists)
	}
	l.accounts[address] = model.TokenAccount{Address: address, Mint: mint, Owner: owner}
	return nil
}

func containsMint(mints []model.TokenMint, address solana.PublicKey) bool {
	for _, m := range mints {
		if m.Address.Equals(address) {
			return true
		}
	}
	return false
}
