// Package currency converts between human readable token amounts and the
// fixed point integer representation the DermaCoin contract stores on chain.
package currency

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits the DermaCoin contract
// declares. One token is 10^Decimals ledger units.
const Decimals = 2

// ErrInvalidAmount is returned when an amount can't be converted into
// ledger units.
var ErrInvalidAmount = errors.New("invalid amount")

// ToLedgerUnits converts a decimal amount such as "12.50" into the integer
// number of ledger units the contracts operate on. Digits past the second
// fractional place are truncated toward zero, matching the precision the
// contract itself keeps.
func ToLedgerUnits(amount string) (*big.Int, error) {
	if amount == "" {
		return nil, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	if d.IsNegative() {
		return nil, ErrInvalidAmount
	}

	return d.Truncate(Decimals).Shift(Decimals).BigInt(), nil
}

// FromLedgerUnits converts an integer number of ledger units back into a
// decimal amount string. Trailing fractional zeros are kept so "12.50"
// round trips unchanged.
func FromLedgerUnits(units *big.Int) string {
	if units == nil {
		return decimal.Zero.StringFixed(Decimals)
	}

	return decimal.NewFromBigInt(units, -Decimals).StringFixed(Decimals)
}
