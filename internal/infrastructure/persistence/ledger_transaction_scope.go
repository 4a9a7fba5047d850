package persistence

import (
	"context"

	appfinance "github.com/pos/backend/internal/application/finance"
	"github.com/pos/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// GormTransactionScope implements appfinance.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error (or a
// panic) rolls the transaction back; otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CustomerRepo() finance.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// SaleRepo returns the sale document repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleRepo() finance.SaleDocumentRepository {
	return NewGormSaleDocumentRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// AllocationRepo returns the allocation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AllocationRepo() finance.PaymentAllocationRepository {
	return NewGormPaymentAllocationRepository(r.tx)
}

var _ appfinance.TransactionScope = (*GormTransactionScope)(nil)
var _ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
