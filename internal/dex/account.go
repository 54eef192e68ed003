package dex

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/model"
)

// PoolAccountDiscriminator is sha256("account:LpPoolAccountShape")[:8].
var PoolAccountDiscriminator = [8]byte{234, 130, 184, 89, 251, 169, 71, 199}

// PoolAccountSize is the discriminator plus five keys and the bump.
const PoolAccountSize = 8 + 5*32 + 1

// PoolAccount is the on-chain layout of a pool record.
type PoolAccount struct {
	MintA     solana.PublicKey
	MintB     solana.PublicKey
	VaultA    solana.PublicKey
	VaultB    solana.PublicKey
	ShareMint solana.PublicKey
	Bump      uint8
}

// DecodePoolAccount parses raw account data. Trailing bytes are ignored.
func DecodePoolAccount(data []byte) (PoolAccount, error) {
	if len(data) < PoolAccountSize {
		return PoolAccount{}, fmt.Errorf("pool account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], PoolAccountDiscriminator[:]) {
		return PoolAccount{}, fmt.Errorf("unexpected discriminator %x", data[:8])
	}

	var acc PoolAccount
	if err := bin.NewBorshDecoder(data[8:]).Decode(&acc); err != nil {
		return PoolAccount{}, fmt.Errorf("decode pool account: %w", err)
	}
	return acc, nil
}

// EncodePoolAccount serialises acc with its discriminator.
func EncodePoolAccount(acc PoolAccount) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, PoolAccountSize))
	buf.Write(PoolAccountDiscriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(acc); err != nil {
		return nil, fmt.Errorf("encode pool account: %w", err)
	}
	return buf.Bytes(), nil
}

// Pool builds the pool record of the account stored at address. The locked
// share account is not stored on chain and is derived under programID.
func (a PoolAccount) Pool(programID, address solana.PublicKey) (model.Pool, error) {
	locked, _, err := solana.FindProgramAddress([][]byte{[]byte(SeedLockedShares), address[:]}, programID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("derive locked shares: %w", err)
	}
	return model.Pool{
		Address:       address,
		MintA:         a.MintA,
		MintB:         a.MintB,
		VaultA:        a.VaultA,
		VaultB:        a.VaultB,
		ShareMint:     a.ShareMint,
		LockedShares:  locked,
		AuthorityBump: a.Bump,
	}, nil
}

// AccountOf is the inverse of PoolAccount.Pool.
func AccountOf(pool model.Pool) PoolAccount {
	return PoolAccount{
		MintA:     pool.MintA,
		MintB:     pool.MintB,
		VaultA:    pool.VaultA,
		VaultB:    pool.VaultB,
		ShareMint: pool.ShareMint,
		Bump:      pool.AuthorityBump,
	}
}
