// Package numeric provides overflow-checked 256-bit integer arithmetic and
// fixed-point precision conversion for ledger amounts.
//
// Amounts are non-negative big integers bounded to 256 bits, matching the
// value range of the custody contracts the ledger fronts. Any operation whose
// result would leave that range fails instead of wrapping.
package numeric

import (
	"math/big"

	"custody-ledger/pkg/apperror"
)

const (
	// InternalDecimals is the ledger's fixed accounting precision.
	InternalDecimals uint8 = 6
	// NativeDecimals is the precision of the chain-native currency.
	NativeDecimals uint8 = 18
)

// maxBits bounds every amount and intermediate result.
const maxBits = 256

var ten = big.NewInt(10)

// Pow10 returns 10^n as a big integer.
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}

// InRange reports whether v is a valid ledger amount: non-negative and
// representable in 256 bits.
func InRange(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.BitLen() <= maxBits
}

// CheckedAdd returns a+b, failing if the sum exceeds 256 bits.
func CheckedAdd(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if !InRange(sum) {
		return nil, apperror.ErrArithmeticOverflow()
	}
	return sum, nil
}

// CheckedMul returns a*b, failing if the product exceeds 256 bits.
func CheckedMul(a, b *big.Int) (*big.Int, error) {
	prod := new(big.Int).Mul(a, b)
	if !InRange(prod) {
		return nil, apperror.ErrArithmeticOverflow()
	}
	return prod, nil
}

// CheckedSub returns a-b, failing if the difference is negative.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, apperror.ErrArithmeticOverflow()
	}
	return new(big.Int).Sub(a, b), nil
}

// SubClamped returns a-b, clamped at zero. Used for the advisory internal
// balance and global counter decrements, which tolerate rounding drift.
func SubClamped(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(a, b)
}

// ToInternal converts an amount from sourceDecimals precision to the ledger's
// internal precision. Scaling down floor-divides (precision loss favors the
// ledger); scaling up multiplies exactly and is overflow-checked.
func ToInternal(amount *big.Int, sourceDecimals uint8) (*big.Int, error) {
	if !InRange(amount) {
		return nil, apperror.ErrArithmeticOverflow()
	}
	switch {
	case sourceDecimals == InternalDecimals:
		return new(big.Int).Set(amount), nil
	case sourceDecimals > InternalDecimals:
		return new(big.Int).Quo(amount, Pow10(sourceDecimals-InternalDecimals)), nil
	default:
		return CheckedMul(amount, Pow10(InternalDecimals-sourceDecimals))
	}
}

// MustParse converts a base-10 string to a big integer. It panics on invalid
// input and is intended for constants and tests.
func MustParse(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("numeric: invalid integer literal " + s)
	}
	return v
}
