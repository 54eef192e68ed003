package amm

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/model"
)

// Direction selects which reserve a swap draws from.
type Direction uint8

const (
	AToB Direction = iota + 1
	BToA
)

func (d Direction) String() string {
	switch d {
	case AToB:
		return "a_to_b"
	case BToA:
		return "b_to_a"
	default:
		return "unknown"
	}
}

// ParseDirection accepts "a_to_b" / "b_to_a" and the short forms "ab" / "ba".
func ParseDirection(input string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "a_to_b", "atob", "ab":
		return AToB, nil
	case "b_to_a", "btoa", "ba":
		return BToA, nil
	default:
		return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidVault, input)
	}
}

// Vaults returns the input and output vault of pool for d.
func Vaults(pool *model.Pool, d Direction) (input, output solana.PublicKey, err error) {
	switch d {
	case AToB:
		return pool.VaultA, pool.VaultB, nil
	case BToA:
		return pool.VaultB, pool.VaultA, nil
	default:
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: direction %d", ErrInvalidVault, d)
	}
}

// Mints returns the input and output mint of pool for d.
func Mints(pool *model.Pool, d Direction) (input, output solana.PublicKey) {
	if d == BToA {
		return pool.MintB, pool.MintA
	}
	return pool.MintA, pool.MintB
}

// ResolveDirection maps a vault pairing onto one of the two legal swap
// directions. Anything else, including input == output, is ErrInvalidVault.
func ResolveDirection(pool *model.Pool, inputVault, outputVault solana.PublicKey) (Direction, error) {
	if pool == nil {
		return 0, fmt.Errorf("%w: pool is nil", ErrInvalidVault)
	}
	switch {
	case inputVault.Equals(pool.VaultA):
		if !outputVault.Equals(pool.VaultB) {
			return 0, fmt.Errorf("%w: output vault %s", ErrInvalidVault, outputVault)
		}
		return AToB, nil
	case inputVault.Equals(pool.VaultB):
		if !outputVault.Equals(pool.VaultA) {
			return 0, fmt.Errorf("%w: output vault %s", ErrInvalidVault, outputVault)
		}
		return BToA, nil
	default:
		return 0, fmt.Errorf("%w: input vault %s", ErrInvalidVault, inputVault)
	}
}

// PriceSwap returns how much of the output reserve a net (post-fee) input
// buys on the curve inputReserve * outputReserve = k.
//
// The output reserve left behind is ceil(k / (inputReserve + netInput)), so
// rounding always favours the pool, and the result is re-checked with
// CheckInvariant before it is returned. Equivalently the result is
// floor(outputReserve * netInput / (inputReserve + netInput)).
func PriceSwap(inputReserve, outputReserve, netInput uint64) (uint64, error) {
	if inputReserve == 0 || outputReserve == 0 {
		return 0, fmt.Errorf("%w: empty reserve (%d, %d)", ErrArithmeticOverflow, inputReserve, outputReserve)
	}

	k, err := mul(wide(inputReserve), wide(outputReserve))
	if err != nil {
		return 0, err
	}
	inputAfter, err := add(wide(inputReserve), wide(netInput))
	if err != nil {
		return 0, err
	}
	if _, err := narrow(inputAfter); err != nil {
		return 0, err
	}
	outputAfter, err := ceilDiv(k, inputAfter)
	if err != nil {
		return 0, err
	}
	out, err := sub(wide(outputReserve), outputAfter)
	if err != nil {
		return 0, err
	}
	amountOut, err := narrow(out)
	if err != nil {
		return 0, err
	}

	if err := CheckInvariant(inputReserve, outputReserve, netInput, amountOut); err != nil {
		return 0, err
	}
	return amountOut, nil
}

// CurveOutputReserve is floor(inputReserve * outputReserve / (inputReserve + netInput)),
// the output reserve the exact curve implies after the swap. It is not an
// amount that may leave the pool.
func CurveOutputReserve(inputReserve, outputReserve, netInput uint64) (uint64, error) {
	k, err := mul(wide(inputReserve), wide(outputReserve))
	if err != nil {
		return 0, err
	}
	inputAfter, err := add(wide(inputReserve), wide(netInput))
	if err != nil {
		return 0, err
	}
	reserve, err := div(k, inputAfter)
	if err != nil {
		return 0, err
	}
	return narrow(reserve)
}

// CheckInvariant fails with ErrInvariantViolation unless
// (inputReserve + netInput) * (outputReserve - outputAmount) >= inputReserve * outputReserve.
func CheckInvariant(inputReserve, outputReserve, netInput, outputAmount uint64) error {
	kBefore, err := mul(wide(inputReserve), wide(outputReserve))
	if err != nil {
		return err
	}
	inputAfter, err := add(wide(inputReserve), wide(netInput))
	if err != nil {
		return err
	}
	outputAfter, err := sub(wide(outputReserve), wide(outputAmount))
	if err != nil {
		return fmt.Errorf("%w: output %d exceeds reserve %d", ErrInvariantViolation, outputAmount, outputReserve)
	}
	kAfter, err := mul(inputAfter, outputAfter)
	if err != nil {
		return err
	}
	if kAfter.Lt(kBefore) {
		return fmt.Errorf("%w: k after %s < k before %s", ErrInvariantViolation, kAfter.Dec(), kBefore.Dec())
	}
	return nil
}
