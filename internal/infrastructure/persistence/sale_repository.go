package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleDocumentRepository implements finance.SaleDocumentRepository using GORM
type GormSaleDocumentRepository struct {
	db *gorm.DB
}

// NewGormSaleDocumentRepository creates a new GormSaleDocumentRepository
func NewGormSaleDocumentRepository(db *gorm.DB) *GormSaleDocumentRepository {
	return &GormSaleDocumentRepository{db: db}
}

// FindByID finds a sale document by ID, returning nil when absent
func (r *GormSaleDocumentRepository) FindByID(ctx context.Context, id int64) (*finance.SaleDocument, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOutstanding lists the customer's documents with a positive balance, oldest first
func (r *GormSaleDocumentRepository) FindOutstanding(ctx context.Context, customerID int64) ([]finance.SaleDocument, error) {
	return r.findOutstanding(r.db.WithContext(ctx), customerID)
}

// FindOutstandingForUpdate is FindOutstanding with SELECT ... FOR UPDATE.
// The locks are held until the surrounding transaction ends. Dialects
// without row locking (SQLite) ignore the clause.
func (r *GormSaleDocumentRepository) FindOutstandingForUpdate(ctx context.Context, customerID int64) ([]finance.SaleDocument, error) {
	return r.findOutstanding(
		r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}),
		customerID,
	)
}

func (r *GormSaleDocumentRepository) findOutstanding(db *gorm.DB, customerID int64) ([]finance.SaleDocument, error) {
	var rows []models.SaleModel
	if err := db.
		Where("customer_id = ? AND total_amount > paid_amount", customerID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]finance.SaleDocument, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, nil
}

// UpdatePaidAmount writes doc.PaidAmount if the stored version still equals
// doc.Version. It refuses amounts outside [0, total] before touching the
// database; a version mismatch yields shared.ErrConcurrencyConflict.
func (r *GormSaleDocumentRepository) UpdatePaidAmount(ctx context.Context, doc *finance.SaleDocument) error {
	if doc.PaidAmount.IsNegative() || doc.PaidAmount.GreaterThan(doc.TotalAmount) {
		return finance.ErrOverpayment
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version).
		Updates(map[string]any{
			"paid_amount": doc.PaidAmount,
			"updated_at":  now,
			"version":     doc.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	doc.Version++
	doc.UpdatedAt = now
	return nil
}

var _ finance.SaleDocumentRepository = (*GormSaleDocumentRepository)(nil)
