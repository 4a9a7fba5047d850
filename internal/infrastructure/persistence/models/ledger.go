package models

import (
	"time"

	"github.com/pos/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for customers.
type CustomerModel struct {
	BaseModel
	Name      string    `gorm:"type:varchar(200);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *finance.Customer {
	return &finance.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
	}
}

// SaleModel is the persistence model for sale documents.
type SaleModel struct {
	AggregateModel
	CustomerID     int64           `gorm:"not null;index:idx_sales_customer_id"`
	DocumentNumber string          `gorm:"type:varchar(50)"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	PaidAmount     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0;check:chk_sales_paid_amount,paid_amount >= 0 AND paid_amount <= total_amount"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain SaleDocument.
func (m *SaleModel) ToDomain() *finance.SaleDocument {
	return &finance.SaleDocument{
		BaseAggregateRoot: m.AggregateModel.ToDomain(),
		CustomerID:        m.CustomerID,
		DocumentNumber:    m.DocumentNumber,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
	}
}

// SaleModelFromDomain converts a domain SaleDocument to its persistence model.
func SaleModelFromDomain(s *finance.SaleDocument) *SaleModel {
	m := &SaleModel{
		CustomerID:     s.CustomerID,
		DocumentNumber: s.DocumentNumber,
		TotalAmount:    s.TotalAmount,
		PaidAmount:     s.PaidAmount,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for payments.
type PaymentModel struct {
	BaseModel
	CustomerID    int64                    `gorm:"not null;index:idx_payments_customer_id"`
	Amount        decimal.Decimal          `gorm:"type:numeric(15,2);not null;check:chk_payments_amount,amount > 0"`
	PaymentMethod string                   `gorm:"type:varchar(30);not null"`
	CreatedBy     int64                    `gorm:"not null"`
	Allocations   []PaymentAllocationModel `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *finance.Payment {
	allocations := make([]finance.PaymentAllocation, len(m.Allocations))
	for i := range m.Allocations {
		allocations[i] = *m.Allocations[i].ToDomain()
	}
	return &finance.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		CustomerID:    m.CustomerID,
		Amount:        m.Amount,
		PaymentMethod: finance.PaymentMethod(m.PaymentMethod),
		CreatedBy:     m.CreatedBy,
		Allocations:   allocations,
	}
}

// PaymentModelFromDomain converts a domain Payment to its persistence model.
// Allocations are stored separately.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		CustomerID:    p.CustomerID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod.String(),
		CreatedBy:     p.CreatedBy,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// PaymentAllocationModel is the persistence model for payment allocations.
type PaymentAllocationModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	PaymentID int64           `gorm:"not null;index:idx_payment_allocations_payment_id"`
	SaleID    int64           `gorm:"not null;index:idx_payment_allocations_sale_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(15,2);not null;check:chk_payment_allocations_amount,amount > 0"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain PaymentAllocation.
func (m *PaymentAllocationModel) ToDomain() *finance.PaymentAllocation {
	return &finance.PaymentAllocation{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		SaleID:    m.SaleID,
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt,
	}
}

// PaymentAllocationModelFromDomain converts a domain allocation to its persistence model.
func PaymentAllocationModelFromDomain(a *finance.PaymentAllocation) *PaymentAllocationModel {
	return &PaymentAllocationModel{
		ID:        a.ID,
		PaymentID: a.PaymentID,
		SaleID:    a.SaleID,
		Amount:    a.Amount,
		CreatedAt: a.CreatedAt,
	}
}

// LedgerModels lists every ledger model, in dependency order, for AutoMigrate in tests.
func LedgerModels() []any {
	return []any{
		&CustomerModel{},
		&SaleModel{},
		&PaymentModel{},
		&PaymentAllocationModel{},
	}
}
