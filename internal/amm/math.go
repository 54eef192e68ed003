package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// All reserve and supply scaled arithmetic is lifted to 256 bits and checked,
// then narrowed back to uint64 on the way out.

func wide(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s", ErrArithmeticOverflow, x.Dec(), y.Dec())
	}
	return z, nil
}

func add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: %s + %s", ErrArithmeticOverflow, x.Dec(), y.Dec())
	}
	return z, nil
}

func sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, fmt.Errorf("%w: %s - %s", ErrArithmeticOverflow, x.Dec(), y.Dec())
	}
	return z, nil
}

// div is floor division; uint256 silently yields zero on a zero divisor so
// the check has to happen here.
func div(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, fmt.Errorf("%w: %s / 0", ErrArithmeticOverflow, x.Dec())
	}
	return new(uint256.Int).Div(x, y), nil
}

func ceilDiv(x, y *uint256.Int) (*uint256.Int, error) {
	q, err := div(x, y)
	if err != nil {
		return nil, err
	}
	if !new(uint256.Int).Mod(x, y).IsZero() {
		return add(q, uint256.NewInt(1))
	}
	return q, nil
}

func narrow(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrArithmeticOverflow, v.Dec())
	}
	return v.Uint64(), nil
}

func minInt(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x
	}
	return y
}

// CheckedAdd adds two token amounts, failing with ErrArithmeticOverflow when
// the sum leaves the uint64 range.
func CheckedAdd(x, y uint64) (uint64, error) {
	z, err := add(wide(x), wide(y))
	if err != nil {
		return 0, err
	}
	return narrow(z)
}

// CheckedSub subtracts two token amounts, failing on underflow.
func CheckedSub(x, y uint64) (uint64, error) {
	z, err := sub(wide(x), wide(y))
	if err != nil {
		return 0, err
	}
	return narrow(z)
}

// Product returns x*y as a decimal string. It is used to report k.
func Product(x, y uint64) string {
	return new(uint256.Int).Mul(wide(x), wide(y)).Dec()
}
