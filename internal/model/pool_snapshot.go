package model

import "time"

// PoolSnapshot captures the reserves and share supply of a pool right after
// an operation was applied.
type PoolSnapshot struct {
	Seq         uint64    `json:"seq"`
	PoolAddress string    `json:"pool_address"`
	ReserveA    uint64    `json:"reserve_a,string"`
	ReserveB    uint64    `json:"reserve_b,string"`
	ShareSupply uint64    `json:"share_supply,string"`
	K           string    `json:"k"`
	TakenAt     time.Time `json:"taken_at"`
}
