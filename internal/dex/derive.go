package dex

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/amm"
	"spoolamm/internal/model"
)

// DefaultProgramID is the deployed pool program.
var DefaultProgramID = solana.MustPublicKeyFromBase58("EFuEiBtmr5tPy3iYnQVhMPRVW64R5E1GonrCit8hXa66")

// Seed prefixes of the pool program addresses.
const (
	SeedPool         = "pool_state"
	SeedVault        = "vault"
	SeedShareMint    = "share_mint"
	SeedLockedShares = "locked_shares"
)

// DerivePool computes every address of the pool trading mintA against mintB
// under programID. The pool address and its bump come from
// ["pool_state", mintA, mintB]; the order of the mints matters.
func DerivePool(programID, mintA, mintB solana.PublicKey) (model.Pool, error) {
	if mintA.Equals(mintB) {
		return model.Pool{}, fmt.Errorf("%w: %s", amm.ErrIdenticalMints, mintA)
	}

	address, bump, err := solana.FindProgramAddress([][]byte{[]byte(SeedPool), mintA[:], mintB[:]}, programID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("derive pool address: %w", err)
	}
	vaultA, _, err := solana.FindProgramAddress([][]byte{[]byte(SeedVault), address[:], mintA[:]}, programID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("derive vault a: %w", err)
	}
	vaultB, _, err := solana.FindProgramAddress([][]byte{[]byte(SeedVault), address[:], mintB[:]}, programID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("derive vault b: %w", err)
	}
	shareMint, _, err := solana.FindProgramAddress([][]byte{[]byte(SeedShareMint), address[:]}, programID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("derive share mint: %w", err)
	}
	locked, _, err := solana.FindProgramAddress([][]byte{[]byte(SeedLockedShares), address[:]}, programID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("derive locked shares: %w", err)
	}

	return model.Pool{
		Address:       address,
		MintA:         mintA,
		MintB:         mintB,
		VaultA:        vaultA,
		VaultB:        vaultB,
		ShareMint:     shareMint,
		LockedShares:  locked,
		AuthorityBump: bump,
	}, nil
}

// VerifyAuthority checks that pool.Address is the program address signed for
// by pool.AuthorityBump.
func VerifyAuthority(programID solana.PublicKey, pool model.Pool) error {
	address, err := solana.CreateProgramAddress([][]byte{
		[]byte(SeedPool), pool.MintA[:], pool.MintB[:], {pool.AuthorityBump},
	}, programID)
	if err != nil {
		return fmt.Errorf("create program address: %w", err)
	}
	if !address.Equals(pool.Address) {
		return fmt.Errorf("bump %d derives %s, pool is %s", pool.AuthorityBump, address, pool.Address)
	}
	return nil
}

// UserAccount returns the associated token account of owner for mint.
func UserAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("associated account of %s for %s: %w", owner, mint, err)
	}
	return address, nil
}
