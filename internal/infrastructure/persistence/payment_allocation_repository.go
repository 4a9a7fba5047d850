package persistence

import (
	"context"

	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentAllocationRepository implements finance.PaymentAllocationRepository using GORM
type GormPaymentAllocationRepository struct {
	db *gorm.DB
}

// NewGormPaymentAllocationRepository creates a new GormPaymentAllocationRepository
func NewGormPaymentAllocationRepository(db *gorm.DB) *GormPaymentAllocationRepository {
	return &GormPaymentAllocationRepository{db: db}
}

// CreateBatch inserts the allocations in one statement and writes the
// generated IDs back into the slice.
func (r *GormPaymentAllocationRepository) CreateBatch(ctx context.Context, allocations []finance.PaymentAllocation) error {
	if len(allocations) == 0 {
		return nil
	}

	rows := make([]models.PaymentAllocationModel, len(allocations))
	for i := range allocations {
		rows[i] = *models.PaymentAllocationModelFromDomain(&allocations[i])
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}
	for i := range rows {
		allocations[i].ID = rows[i].ID
		allocations[i].CreatedAt = rows[i].CreatedAt
	}
	return nil
}

// FindByPayment lists the allocations of a payment in insertion order
func (r *GormPaymentAllocationRepository) FindByPayment(ctx context.Context, paymentID int64) ([]finance.PaymentAllocation, error) {
	var rows []models.PaymentAllocationModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	allocations := make([]finance.PaymentAllocation, len(rows))
	for i := range rows {
		allocations[i] = *rows[i].ToDomain()
	}
	return allocations, nil
}

var _ finance.PaymentAllocationRepository = (*GormPaymentAllocationRepository)(nil)
