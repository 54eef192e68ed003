package amm

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"spoolamm/internal/model"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[0] = b
	k[31] = b
	return k
}

func testPool() *model.Pool {
	return &model.Pool{
		Address:   testKey(1),
		MintA:     testKey(2),
		MintB:     testKey(3),
		VaultA:    testKey(4),
		VaultB:    testKey(5),
		ShareMint: testKey(6),
	}
}

func TestPriceSwapBalancedPool(t *testing.T) {
	require := require.New(t)

	reserve, err := CurveOutputReserve(1000, 1000, 100)
	require.NoError(err)
	require.Equal(uint64(909), reserve)

	out, err := PriceSwap(1000, 1000, 100)
	require.NoError(err)
	require.Equal(uint64(90), out)
	require.Equal(uint64(1000)-uint64(910), out)
}

func TestPriceSwapClosedForm(t *testing.T) {
	require := require.New(t)

	for _, inputReserve := range []uint64{1, 7, 1000, 123_457, 5_000_000} {
		for _, outputReserve := range []uint64{1, 13, 1000, 999_904, 8_000_000} {
			for _, net := range []uint64{0, 1, 97, 10_000, 3_000_000} {
				out, err := PriceSwap(inputReserve, outputReserve, net)
				require.NoError(err)
				want := outputReserve * net / (inputReserve + net)
				require.Equal(want, out, "in=%d out=%d net=%d", inputReserve, outputReserve, net)
			}
		}
	}
}

// The curve reserve is not an output amount: releasing it would leave
// 1100 * 91 behind and break the product.
func TestCurveReserveAsOutputViolatesInvariant(t *testing.T) {
	require := require.New(t)

	err := CheckInvariant(1000, 1000, 100, 909)
	require.ErrorIs(err, ErrInvariantViolation)
}

// k only grows with rounding, so a strict k_after == k_before comparison
// would reject this otherwise valid swap.
func TestInvariantIsMonotonicNotStrict(t *testing.T) {
	require := require.New(t)

	out, err := PriceSwap(1000, 1000, 100)
	require.NoError(err)
	require.NoError(CheckInvariant(1000, 1000, 100, out))
	require.NotEqual(Product(1000, 1000), Product(1100, 1000-out))
	require.Equal("1001000", Product(1100, 1000-out))
}

func TestSwapPreservesProductWithFee(t *testing.T) {
	reserves := [][2]uint64{
		{1000, 1000},
		{1_000_000, 2_000_000},
		{7, 1_000_000_000},
		{1_000_000_000_000, 3},
		{1 << 40, 1 << 50},
		{math.MaxUint32, math.MaxUint64},
	}
	inputs := []uint64{1, 2, 33, 100, 999, 1_000_000, 1 << 31}

	for _, r := range reserves {
		for _, amountIn := range inputs {
			net := DeductFee(amountIn)
			out, err := PriceSwap(r[0], r[1], net)
			require.NoError(t, err, "reserves %v in %d", r, amountIn)
			require.Less(t, out, r[1])
			// The whole pre-fee input lands in the vault.
			require.NoError(t, CheckInvariant(r[0], r[1], amountIn, out))
		}
	}
}

func TestPriceSwapErrors(t *testing.T) {
	require := require.New(t)

	_, err := PriceSwap(0, 1000, 10)
	require.ErrorIs(err, ErrArithmeticOverflow)

	_, err = PriceSwap(1000, 0, 10)
	require.ErrorIs(err, ErrArithmeticOverflow)

	_, err = PriceSwap(math.MaxUint64, 1000, 1)
	require.ErrorIs(err, ErrArithmeticOverflow)

	_, err = CurveOutputReserve(0, 0, 0)
	require.ErrorIs(err, ErrArithmeticOverflow)

	err = CheckInvariant(1000, 1000, 100, 1001)
	require.ErrorIs(err, ErrInvariantViolation)
}

func TestPriceSwapZeroInput(t *testing.T) {
	out, err := PriceSwap(1000, 1000, 0)
	require.NoError(t, err)
	require.Zero(t, out)
}

func TestResolveDirection(t *testing.T) {
	require := require.New(t)
	pool := testPool()

	dir, err := ResolveDirection(pool, pool.VaultA, pool.VaultB)
	require.NoError(err)
	require.Equal(AToB, dir)

	dir, err = ResolveDirection(pool, pool.VaultB, pool.VaultA)
	require.NoError(err)
	require.Equal(BToA, dir)

	_, err = ResolveDirection(pool, pool.VaultA, pool.VaultA)
	require.ErrorIs(err, ErrInvalidVault)

	_, err = ResolveDirection(pool, pool.VaultB, pool.VaultB)
	require.ErrorIs(err, ErrInvalidVault)

	_, err = ResolveDirection(pool, testKey(9), pool.VaultB)
	require.ErrorIs(err, ErrInvalidVault)

	_, err = ResolveDirection(nil, pool.VaultA, pool.VaultB)
	require.ErrorIs(err, ErrInvalidVault)
}

func TestVaultsAndMints(t *testing.T) {
	require := require.New(t)
	pool := testPool()

	in, out, err := Vaults(pool, BToA)
	require.NoError(err)
	require.Equal(pool.VaultB, in)
	require.Equal(pool.VaultA, out)

	mintIn, mintOut := Mints(pool, BToA)
	require.Equal(pool.MintB, mintIn)
	require.Equal(pool.MintA, mintOut)

	_, _, err = Vaults(pool, Direction(7))
	require.ErrorIs(err, ErrInvalidVault)
}

func TestParseDirection(t *testing.T) {
	require := require.New(t)

	dir, err := ParseDirection("A_TO_B")
	require.NoError(err)
	require.Equal(AToB, dir)
	require.Equal("a_to_b", dir.String())

	dir, err = ParseDirection(" ba ")
	require.NoError(err)
	require.Equal(BToA, dir)

	_, err = ParseDirection("sideways")
	require.Error(err)
}
