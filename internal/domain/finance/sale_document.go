package finance

import (
	"time"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// SaleDocument is a sale recorded against a customer account.
// PaidAmount only ever grows and never exceeds TotalAmount.
type SaleDocument struct {
	shared.BaseAggregateRoot
	CustomerID     int64
	DocumentNumber string
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
}

// Balance returns the amount still owed on the document
func (s *SaleDocument) Balance() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// IsOutstanding reports whether anything is still owed
func (s *SaleDocument) IsOutstanding() bool {
	return s.Balance().IsPositive()
}

// ApplyPayment settles part of the balance
func (s *SaleDocument) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(s.Balance()) {
		return ErrOverpayment
	}
	s.PaidAmount = s.PaidAmount.Add(amount)
	s.UpdatedAt = time.Now()
	return nil
}

// ToStrategyDocument converts the document for an allocation strategy
func (s *SaleDocument) ToStrategyDocument() strategy.Document {
	return strategy.Document{
		ID:             s.ID,
		DocumentNumber: s.DocumentNumber,
		TotalAmount:    s.TotalAmount,
		PaidAmount:     s.PaidAmount,
		Balance:        s.Balance(),
	}
}
