package model

import "github.com/gagliardetto/solana-go"

// TokenAccount is a custody balance of a single mint.
type TokenAccount struct {
	Address solana.PublicKey `json:"address"`
	Mint    solana.PublicKey `json:"mint"`
	Owner   solana.PublicKey `json:"owner"`
	Amount  uint64           `json:"amount,string"`
}

// TokenMint is a fungible token type with its issuing authority. ShareOf is
// set on the share mint of a pool and names that pool.
type TokenMint struct {
	Address   solana.PublicKey `json:"address"`
	Authority solana.PublicKey `json:"authority"`
	Decimals  uint8            `json:"decimals"`
	Supply    uint64           `json:"supply,string"`
	ShareOf   solana.PublicKey `json:"share_of"`
}

// IsShareMint reports whether m issues the shares of a pool.
func (m TokenMint) IsShareMint() bool {
	return !m.ShareOf.IsZero()
}
