package finance

import "github.com/shopspring/decimal"

const (
	// MoneyScale is the number of fractional digits stored for monetary columns
	MoneyScale = 2
	// MoneyPrecision is the total number of digits of a NUMERIC(15,2) column
	MoneyPrecision = 15
)

// maxAmount is the smallest value a NUMERIC(MoneyPrecision, MoneyScale) column cannot hold
var maxAmount = decimal.New(1, MoneyPrecision-MoneyScale)

// ValidateAmount checks that amount is strictly positive and fits the
// ledger's money columns without rounding or overflow.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return ErrInvalidAmount
	}
	return nil
}
