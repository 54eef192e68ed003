package model

import (
	"encoding/json"
)

// Operation kinds accepted in a scenario file.
const (
	KindCreatePool = "create_pool"
	KindFund       = "fund"
	KindDeposit    = "deposit"
	KindSwap       = "swap"
	KindWithdraw   = "withdraw"
)

// OperationRecord is one line of a scenario file. Keys are base58 public keys,
// amounts are base-10 strings.
type OperationRecord struct {
	Seq        uint64 `json:"seq"`
	Kind       string `json:"kind"`
	Owner      string `json:"owner,omitempty"`
	MintA      string `json:"mint_a,omitempty"`
	MintB      string `json:"mint_b,omitempty"`
	Mint       string `json:"mint,omitempty"`
	Decimals   uint8  `json:"decimals,omitempty"`
	Amount     uint64 `json:"amount,string,omitempty"`
	AmountA    uint64 `json:"amount_a,string,omitempty"`
	AmountB    uint64 `json:"amount_b,string,omitempty"`
	AmountIn   uint64 `json:"amount_in,string,omitempty"`
	BurnAmount uint64 `json:"burn_amount,string,omitempty"`
	Direction  string `json:"direction,omitempty"`
	// Optional explicit vault pairing for swaps; overrides Direction.
	InputVault  string `json:"input_vault,omitempty"`
	OutputVault string `json:"output_vault,omitempty"`
}

// MarshalJSON ensures OperationRecord is encoded with stable field names.
func (r OperationRecord) MarshalJSON() ([]byte, error) {
	type Alias OperationRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an OperationRecord from JSON.
func (r *OperationRecord) UnmarshalJSON(data []byte) error {
	type Alias OperationRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = OperationRecord(a)
	return nil
}
