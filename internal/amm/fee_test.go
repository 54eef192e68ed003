package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeductFeeDefaultRate(t *testing.T) {
	require := require.New(t)

	require.Equal(uint64(0), DeductFee(0))
	require.Equal(uint64(97), DeductFee(100))
	require.Equal(uint64(970), DeductFee(1_000))
	// floor(33 * 30 / 1000) = 0
	require.Equal(uint64(33), DeductFee(33))
	require.Equal(uint64(34), DeductFee(35))
}

func TestFeeBoundsAndLinearity(t *testing.T) {
	require := require.New(t)

	rate := DefaultFeeRate
	for _, amount := range []uint64{1, 7, 100, 999, 123_456_789, math.MaxUint64} {
		fee := rate.Fee(amount)
		require.LessOrEqual(fee, amount)
		require.Equal(amount-fee, rate.DeductFee(amount))
	}

	// Multiples of the denominator scale exactly.
	require.Equal(uint64(30), rate.Fee(1_000))
	require.Equal(uint64(300), rate.Fee(10_000))
	require.Equal(uint64(3_000), rate.Fee(100_000))
}

func TestFeeNoOverflowAtMaxInput(t *testing.T) {
	rate, err := NewFeeRate(999, 1000)
	require.NoError(t, err)

	// MaxUint64 * 999 overflows 64 bits; the fee must still be exact.
	want := uint64(18_428_297_329_635_842_063) // floor((2^64-1) * 999 / 1000)
	require.Equal(t, want, rate.Fee(math.MaxUint64))
}

func TestNewFeeRateValidation(t *testing.T) {
	require := require.New(t)

	_, err := NewFeeRate(1, 0)
	require.ErrorIs(err, ErrInvalidFeeRate)

	_, err = NewFeeRate(11, 10)
	require.ErrorIs(err, ErrInvalidFeeRate)

	full, err := NewFeeRate(1, 1)
	require.NoError(err)
	require.Equal(uint64(0), full.DeductFee(500))

	require.Equal("30/1000", DefaultFeeRate.String())
	require.Equal(uint64(0), FeeRate{Numerator: 1}.Fee(100))
}
