package strategy

import (
	"context"

	"github.com/shopspring/decimal"
)

// Document is an outstanding sale document offered to an allocation strategy
type Document struct {
	ID             int64
	DocumentNumber string
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	Balance        decimal.Decimal
}

// Allocation represents a portion of a payment applied to one document
type Allocation struct {
	DocumentID      int64
	DocumentNumber  string
	AllocatedAmount decimal.Decimal
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
}

// AllocationContext provides context for payment allocation
type AllocationContext struct {
	CustomerID    int64
	PaymentAmount decimal.Decimal
}

// AllocationResult contains the result of payment allocation
type AllocationResult struct {
	Allocations    []Allocation
	TotalAllocated decimal.Decimal
	Remaining      decimal.Decimal
}

// PaymentAllocationStrategy decides how a payment is spread over documents.
// Implementations are pure: they never touch storage and never allocate more
// than a document's balance.
type PaymentAllocationStrategy interface {
	Strategy
	Allocate(ctx context.Context, allocCtx AllocationContext, documents []Document) (AllocationResult, error)
}
