package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMajor is the scale used to persist and compare amounts
const MinorUnitsPerMajor = 100

// MaxThreshold is the largest rule threshold whose minor-unit value fits in int64
const MaxThreshold = math.MaxInt64 / MinorUnitsPerMajor

const minorExponent = 2

// ToMinorUnits converts an exact decimal amount to integer minor units,
// rounding half away from zero at the second decimal place. The result is
// only meaningful when FitsMinorUnits(amount) holds.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(minorExponent).Round(0).IntPart()
}

// FitsMinorUnits reports whether amount, in minor units, is representable as int64
func FitsMinorUnits(amount decimal.Decimal) bool {
	return amount.Shift(minorExponent).Round(0).BigInt().IsInt64()
}

// FromMinorUnits converts integer minor units back to a decimal amount
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorExponent)
}
