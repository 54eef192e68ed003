package model

import "github.com/gagliardetto/solana-go"

// Pool is the persistent AMM record. Every field is fixed at creation; the
// reserve balances and share supply it refers to live in collaborator-owned
// accounts.
type Pool struct {
	Address       solana.PublicKey `json:"address"`
	MintA         solana.PublicKey `json:"mint_a"`
	MintB         solana.PublicKey `json:"mint_b"`
	VaultA        solana.PublicKey `json:"vault_a"`
	VaultB        solana.PublicKey `json:"vault_b"`
	ShareMint     solana.PublicKey `json:"share_mint"`
	LockedShares  solana.PublicKey `json:"locked_shares"`
	AuthorityBump uint8            `json:"authority_bump"`
}

// HasMints reports whether the pool trades exactly the given pair, in either order.
func (p *Pool) HasMints(mintA, mintB solana.PublicKey) bool {
	if p == nil {
		return false
	}
	return (p.MintA.Equals(mintA) && p.MintB.Equals(mintB)) ||
		(p.MintA.Equals(mintB) && p.MintB.Equals(mintA))
}
