package finance

import (
	"time"

	"github.com/pos/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// ProcessPaymentRequest is the input of PaymentService.ProcessPayment.
// ActorID comes from the authenticated caller, never from the request body.
type ProcessPaymentRequest struct {
	CustomerID     int64           `validate:"gt=0"`
	Amount         decimal.Decimal `validate:"-"`
	PaymentMethod  string          `validate:"required"`
	AutoDistribute bool
	ActorID        int64 `validate:"gt=0"`
}

// AllocationResponse describes one allocation in API responses
type AllocationResponse struct {
	ID             int64           `json:"id,omitempty"`
	SaleID         int64           `json:"sale_id"`
	DocumentNumber string          `json:"document_number,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
}

// ProcessPaymentResult is the outcome of a committed payment
type ProcessPaymentResult struct {
	PaymentID      int64                `json:"payment_id"`
	CustomerID     int64                `json:"customer_id"`
	Amount         decimal.Decimal      `json:"amount"`
	PaymentMethod  string               `json:"payment_method"`
	AutoDistribute bool                 `json:"auto_distribute"`
	Allocations    []AllocationResponse `json:"allocations"`
	TotalAllocated decimal.Decimal      `json:"total_allocated"`
	Unallocated    decimal.Decimal      `json:"unallocated"`
}

// PaymentAllocationResponse is a stored allocation in API responses
type PaymentAllocationResponse struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// PaymentResponse represents a stored payment in API responses
type PaymentResponse struct {
	ID             int64                       `json:"id"`
	CustomerID     int64                       `json:"customer_id"`
	Amount         decimal.Decimal             `json:"amount"`
	PaymentMethod  string                      `json:"payment_method"`
	CreatedBy      int64                       `json:"created_by"`
	CreatedAt      time.Time                   `json:"created_at"`
	TotalAllocated decimal.Decimal             `json:"total_allocated"`
	Unallocated    decimal.Decimal             `json:"unallocated"`
	Allocations    []PaymentAllocationResponse `json:"allocations"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	CustomerID *int64 `form:"customer_id" binding:"omitempty,gt=0"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutstandingDocumentResponse is an unpaid sale document
type OutstandingDocumentResponse struct {
	ID             int64           `json:"id"`
	DocumentNumber string          `json:"document_number,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CustomerOutstandingResponse lists a customer's open documents oldest first
type CustomerOutstandingResponse struct {
	CustomerID       int64                         `json:"customer_id"`
	Documents        []OutstandingDocumentResponse `json:"documents"`
	TotalOutstanding decimal.Decimal               `json:"total_outstanding"`
}

// ToPaymentResponse converts a domain payment to its response form
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	allocations := make([]PaymentAllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = PaymentAllocationResponse{
			ID:        a.ID,
			SaleID:    a.SaleID,
			Amount:    a.Amount,
			CreatedAt: a.CreatedAt,
		}
	}
	return PaymentResponse{
		ID:             p.ID,
		CustomerID:     p.CustomerID,
		Amount:         p.Amount,
		PaymentMethod:  p.PaymentMethod.String(),
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		TotalAllocated: p.AllocatedAmount(),
		Unallocated:    p.UnallocatedAmount(),
		Allocations:    allocations,
	}
}

// ToOutstandingResponse summarizes a customer's open documents
func ToOutstandingResponse(customerID int64, docs []finance.SaleDocument) CustomerOutstandingResponse {
	resp := CustomerOutstandingResponse{
		CustomerID:       customerID,
		Documents:        make([]OutstandingDocumentResponse, 0, len(docs)),
		TotalOutstanding: decimal.Zero,
	}
	for i := range docs {
		d := &docs[i]
		resp.Documents = append(resp.Documents, OutstandingDocumentResponse{
			ID:             d.ID,
			DocumentNumber: d.DocumentNumber,
			TotalAmount:    d.TotalAmount,
			PaidAmount:     d.PaidAmount,
			Balance:        d.Balance(),
			CreatedAt:      d.CreatedAt,
		})
		resp.TotalOutstanding = resp.TotalOutstanding.Add(d.Balance())
	}
	return resp
}
