package finance

import (
	"context"

	"github.com/pos/backend/internal/domain/finance"
)

// TransactionScope provides transactional access to the ledger repositories.
// All repository operations made inside Execute belong to one database
// transaction and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the ledger repositories bound to the
// current transaction.
type TransactionalRepositories interface {
	// CustomerRepo returns the customer repository scoped to the current transaction
	CustomerRepo() finance.CustomerRepository
	// SaleRepo returns the sale document repository scoped to the current transaction
	SaleRepo() finance.SaleDocumentRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() finance.PaymentRepository
	// AllocationRepo returns the allocation repository scoped to the current transaction
	AllocationRepo() finance.PaymentAllocationRepository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. It is intended for unit tests with mocked repositories.
type NoOpTransactionScope struct {
	customerRepo   finance.CustomerRepository
	saleRepo       finance.SaleDocumentRepository
	paymentRepo    finance.PaymentRepository
	allocationRepo finance.PaymentAllocationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	customerRepo finance.CustomerRepository,
	saleRepo finance.SaleDocumentRepository,
	paymentRepo finance.PaymentRepository,
	allocationRepo finance.PaymentAllocationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		customerRepo:   customerRepo,
		saleRepo:       saleRepo,
		paymentRepo:    paymentRepo,
		allocationRepo: allocationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// CustomerRepo returns the customer repository.
func (s *NoOpTransactionScope) CustomerRepo() finance.CustomerRepository {
	return s.customerRepo
}

// SaleRepo returns the sale document repository.
func (s *NoOpTransactionScope) SaleRepo() finance.SaleDocumentRepository {
	return s.saleRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() finance.PaymentRepository {
	return s.paymentRepo
}

// AllocationRepo returns the allocation repository.
func (s *NoOpTransactionScope) AllocationRepo() finance.PaymentAllocationRepository {
	return s.allocationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
