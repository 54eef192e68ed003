package model

// OperationResult is the journal entry of an applied operation.
type OperationResult struct {
	Seq         uint64        `json:"seq"`
	Kind        string        `json:"kind"`
	PoolAddress string        `json:"pool_address,omitempty"`
	Owner       string        `json:"owner,omitempty"`
	Deposit     *DepositData  `json:"deposit,omitempty"`
	Swap        *SwapData     `json:"swap,omitempty"`
	Withdraw    *WithdrawData `json:"withdraw,omitempty"`
	Snapshot    *PoolSnapshot `json:"snapshot,omitempty"`
	AppliedAt   string        `json:"applied_at"`
}

// DepositData is the sized outcome of a liquidity deposit.
type DepositData struct {
	AmountA      uint64 `json:"amount_a,string"`
	AmountB      uint64 `json:"amount_b,string"`
	SharesMinted uint64 `json:"shares_minted,string"`
	SharesLocked uint64 `json:"shares_locked,string"`
}

// SwapData is the priced outcome of a swap.
type SwapData struct {
	Direction string `json:"direction"`
	AmountIn  uint64 `json:"amount_in,string"`
	Fee       uint64 `json:"fee,string"`
	NetIn     uint64 `json:"net_in,string"`
	AmountOut uint64 `json:"amount_out,string"`
}

// WithdrawData is the sized outcome of a liquidity withdrawal.
type WithdrawData struct {
	SharesBurned uint64 `json:"shares_burned,string"`
	AmountA      uint64 `json:"amount_a,string"`
	AmountB      uint64 `json:"amount_b,string"`
}
