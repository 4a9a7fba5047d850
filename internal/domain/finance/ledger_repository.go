package finance

import (
	"context"

	"github.com/pos/backend/internal/domain/shared"
)

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	CustomerID *int64 // Filter by customer
}

// CustomerRepository reads customers referenced by the ledger
type CustomerRepository interface {
	// FindByID finds a customer by ID, returning nil when absent
	FindByID(ctx context.Context, id int64) (*Customer, error)

	// Exists checks whether a customer with the ID exists
	Exists(ctx context.Context, id int64) (bool, error)
}

// SaleDocumentRepository defines persistence for sale documents
type SaleDocumentRepository interface {
	// FindByID finds a sale document by ID, returning nil when absent
	FindByID(ctx context.Context, id int64) (*SaleDocument, error)

	// FindOutstanding lists a customer's documents with a positive balance,
	// ordered by ascending ID
	FindOutstanding(ctx context.Context, customerID int64) ([]SaleDocument, error)

	// FindOutstandingForUpdate is FindOutstanding with row locks held until
	// the surrounding transaction ends
	FindOutstandingForUpdate(ctx context.Context, customerID int64) ([]SaleDocument, error)

	// UpdatePaidAmount persists PaidAmount guarded by the document version.
	// On success the in-memory Version is bumped; a stale version yields
	// shared.ErrConcurrencyConflict.
	UpdatePaidAmount(ctx context.Context, doc *SaleDocument) error
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	// Create inserts the payment and assigns its ID
	Create(ctx context.Context, payment *Payment) error

	// FindByID finds a payment with its allocations, returning nil when absent
	FindByID(ctx context.Context, id int64) (*Payment, error)

	// FindAll lists payments newest first
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	// Count counts payments matching the filter
	Count(ctx context.Context, filter PaymentFilter) (int64, error)
}

// PaymentAllocationRepository defines persistence for payment allocations
type PaymentAllocationRepository interface {
	// CreateBatch inserts allocations and assigns their IDs
	CreateBatch(ctx context.Context, allocations []PaymentAllocation) error

	// FindByPayment lists the allocations of a payment in insertion order
	FindByPayment(ctx context.Context, paymentID int64) ([]PaymentAllocation, error)
}
