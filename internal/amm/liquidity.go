package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MinimumLiquidity is withheld from the first deposit and never redeemable,
// which puts a floor under the share price.
const MinimumLiquidity uint64 = 1000

// SizeDeposit returns the shares to issue for depositing amountA and amountB.
//
// Into an empty pool (totalShareSupply == 0) the deposit is worth
// floor(sqrt(amountA*amountB)) shares less MinimumLiquidity. Into a seeded
// pool each asset is priced independently against its reserve and the smaller
// share count wins, so an imbalanced deposit is valued at its weaker side.
func SizeDeposit(amountA, amountB, reserveA, reserveB, totalShareSupply uint64) (uint64, error) {
	if totalShareSupply == 0 {
		return sizeFirstDeposit(amountA, amountB)
	}

	supply := wide(totalShareSupply)
	shareFromA, err := proportion(wide(amountA), supply, wide(reserveA))
	if err != nil {
		return 0, fmt.Errorf("size asset a: %w", err)
	}
	shareFromB, err := proportion(wide(amountB), supply, wide(reserveB))
	if err != nil {
		return 0, fmt.Errorf("size asset b: %w", err)
	}
	shares, err := narrow(minInt(shareFromA, shareFromB))
	if err != nil {
		return 0, err
	}
	if shares == 0 {
		return 0, ErrInsufficientLiquidityMinted
	}
	return shares, nil
}

func sizeFirstDeposit(amountA, amountB uint64) (uint64, error) {
	product, err := mul(wide(amountA), wide(amountB))
	if err != nil {
		return 0, err
	}
	liquidity := new(uint256.Int).Sqrt(product)
	floor := wide(MinimumLiquidity)
	if !liquidity.Gt(floor) {
		return 0, fmt.Errorf("%w: sqrt(%d*%d) = %s <= %d", ErrLiquidityTooLow, amountA, amountB, liquidity.Dec(), MinimumLiquidity)
	}
	shares, err := sub(liquidity, floor)
	if err != nil {
		return 0, err
	}
	return narrow(shares)
}

// LockedShares is the share amount withheld by a deposit into a pool with the
// given supply: MinimumLiquidity for the first deposit, zero afterwards.
func LockedShares(totalShareSupply uint64) uint64 {
	if totalShareSupply == 0 {
		return MinimumLiquidity
	}
	return 0
}

// SizeWithdrawal returns the reserves released for burning burnShareAmount
// shares: floor(burn * reserveX / totalShareSupply) for each asset, no fee.
func SizeWithdrawal(burnShareAmount, reserveA, reserveB, totalShareSupply uint64) (uint64, uint64, error) {
	if totalShareSupply == 0 {
		return 0, 0, ErrEmptyPool
	}
	if burnShareAmount > totalShareSupply {
		return 0, 0, fmt.Errorf("%w: burn %d > supply %d", ErrAmountExceedsBalance, burnShareAmount, totalShareSupply)
	}

	burn := wide(burnShareAmount)
	supply := wide(totalShareSupply)
	returnA, err := proportion(burn, wide(reserveA), supply)
	if err != nil {
		return 0, 0, fmt.Errorf("size asset a: %w", err)
	}
	returnB, err := proportion(burn, wide(reserveB), supply)
	if err != nil {
		return 0, 0, fmt.Errorf("size asset b: %w", err)
	}

	outA, err := narrow(returnA)
	if err != nil {
		return 0, 0, err
	}
	outB, err := narrow(returnB)
	if err != nil {
		return 0, 0, err
	}
	return outA, outB, nil
}

// proportion computes floor(x * y / z).
func proportion(x, y, z *uint256.Int) (*uint256.Int, error) {
	product, err := mul(x, y)
	if err != nil {
		return nil, err
	}
	return div(product, z)
}
