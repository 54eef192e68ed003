package amm

import "errors"

var (
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
	ErrLiquidityTooLow      = errors.New("liquidity too low")
	ErrInvalidVault         = errors.New("invalid vault")
	ErrAmountExceedsBalance = errors.New("amount exceeds balance")
	ErrInvariantViolation   = errors.New("constant product invariant violated")
	ErrEmptyPool            = errors.New("pool is empty")

	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	ErrInsufficientOutput          = errors.New("insufficient output amount")
	ErrIdenticalMints              = errors.New("mint a and mint b are identical")
	ErrInvalidFeeRate              = errors.New("invalid fee rate")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrArithmeticOverflow, "arithmetic_overflow"},
	{ErrLiquidityTooLow, "liquidity_too_low"},
	{ErrInvalidVault, "invalid_vault"},
	{ErrAmountExceedsBalance, "amount_exceeds_balance"},
	{ErrInvariantViolation, "invariant_violation"},
	{ErrEmptyPool, "empty_pool"},
	{ErrInsufficientLiquidityMinted, "insufficient_liquidity_minted"},
	{ErrInsufficientOutput, "insufficient_output"},
	{ErrIdenticalMints, "identical_mints"},
	{ErrInvalidFeeRate, "invalid_fee_rate"},
}

// Kind returns the stable taxonomy name of err, or "internal" when err does
// not wrap one of the package errors.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
