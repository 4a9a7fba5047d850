package finance

import (
	"time"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentAllocation links a portion of a payment to one sale document
type PaymentAllocation struct {
	ID        int64           `json:"id"`
	PaymentID int64           `json:"payment_id"`
	SaleID    int64           `json:"sale_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Payment is money received from a customer. It is immutable once stored;
// its allocations are written in the same transaction as the payment.
type Payment struct {
	shared.BaseEntity
	CustomerID    int64               `json:"customer_id"`
	Amount        decimal.Decimal     `json:"amount"`
	PaymentMethod PaymentMethod       `json:"payment_method"`
	CreatedBy     int64               `json:"created_by"`
	Allocations   []PaymentAllocation `json:"allocations"`
}

// NewPayment validates the input and creates an unsaved payment
func NewPayment(customerID int64, amount decimal.Decimal, method PaymentMethod, actorID int64) (*Payment, error) {
	if customerID <= 0 {
		return nil, ErrInvalidCustomer
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if !method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if actorID <= 0 {
		return nil, ErrInvalidActor
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		Amount:        amount,
		PaymentMethod: method,
		CreatedBy:     actorID,
		Allocations:   make([]PaymentAllocation, 0),
	}, nil
}

// AddAllocation records a portion of this payment applied to a sale
func (p *Payment) AddAllocation(saleID int64, amount decimal.Decimal) error {
	if saleID <= 0 {
		return shared.NewDomainError("INVALID_SALE", "Sale id must be a positive integer")
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.AllocatedAmount().Add(amount).GreaterThan(p.Amount) {
		return ErrOverAllocation
	}

	p.Allocations = append(p.Allocations, PaymentAllocation{
		PaymentID: p.ID,
		SaleID:    saleID,
		Amount:    amount,
		CreatedAt: time.Now(),
	})
	return nil
}

// AllocatedAmount returns the sum of all allocations
func (p *Payment) AllocatedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// UnallocatedAmount returns what is left of the payment after allocations
func (p *Payment) UnallocatedAmount() decimal.Decimal {
	return p.Amount.Sub(p.AllocatedAmount())
}
