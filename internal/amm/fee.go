package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// FeeRate is a proportional swap fee expressed as numerator/denominator.
type FeeRate struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

// DefaultFeeRate charges 30/1000 (3%) of every swap input.
var DefaultFeeRate = FeeRate{Numerator: 30, Denominator: 1000}

// NewFeeRate builds a validated FeeRate.
func NewFeeRate(numerator, denominator uint64) (FeeRate, error) {
	r := FeeRate{Numerator: numerator, Denominator: denominator}
	if err := r.Validate(); err != nil {
		return FeeRate{}, err
	}
	return r, nil
}

// Validate rejects a zero denominator and rates above 100%.
func (r FeeRate) Validate() error {
	if r.Denominator == 0 {
		return fmt.Errorf("%w: zero denominator", ErrInvalidFeeRate)
	}
	if r.Numerator > r.Denominator {
		return fmt.Errorf("%w: %d/%d exceeds 100%%", ErrInvalidFeeRate, r.Numerator, r.Denominator)
	}
	return nil
}

func (r FeeRate) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Fee returns floor(amount * numerator / denominator). An invalid rate
// charges nothing.
func (r FeeRate) Fee(amount uint64) uint64 {
	if r.Validate() != nil {
		return 0
	}
	fee := new(uint256.Int).Mul(wide(amount), wide(r.Numerator))
	fee.Div(fee, wide(r.Denominator))
	return fee.Uint64()
}

// DeductFee returns the part of amount left to price after the fee. The fee
// itself stays in the input vault; it is never transferred on its own.
func (r FeeRate) DeductFee(amount uint64) uint64 {
	return amount - r.Fee(amount)
}

// DeductFee applies DefaultFeeRate.
func DeductFee(amount uint64) uint64 {
	return DefaultFeeRate.DeductFee(amount)
}
