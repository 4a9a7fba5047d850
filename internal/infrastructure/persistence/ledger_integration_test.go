//go:build integration

package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	appfinance "github.com/pos/backend/internal/application/finance"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// newPostgresLedger starts PostgreSQL, applies the SQL migrations and returns a GORM handle.
func newPostgresLedger(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrationsDir(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
	assert.False(t, dirty)

	return db
}

func TestIntegration_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	db := newPostgresLedger(t)
	ctx := context.Background()

	customer := &models.CustomerModel{Name: "Acme"}
	require.NoError(t, db.Create(customer).Error)
	for i, total := range []string{"30.00", "50.00", "20.00"} {
		s := &models.SaleModel{
			CustomerID:     customer.ID,
			DocumentNumber: []string{"S-1", "S-2", "S-3"}[i],
			TotalAmount:    decimal.RequireFromString(total),
			PaidAmount:     decimal.Zero,
		}
		s.Version = 1
		require.NoError(t, db.Create(s).Error)
	}

	svc := appfinance.NewPaymentService(
		NewGormTransactionScope(db),
		NewGormPaymentRepository(db),
		NewGormSaleDocumentRepository(db),
	)

	const workers = 10
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		unallocated = decimal.Zero
		succeeded   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.ProcessPayment(ctx, appfinance.ProcessPaymentRequest{
				CustomerID:     customer.ID,
				Amount:         decimal.RequireFromString("15.00"),
				PaymentMethod:  "CASH",
				AutoDistribute: true,
				ActorID:        1,
			})
			if err != nil {
				assert.False(t, errors.Is(err, shared.ErrConcurrencyConflict), "row locks should serialise writers")
				assert.NoError(t, err)
				return
			}
			mu.Lock()
			unallocated = unallocated.Add(result.Unallocated)
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	var sales []models.SaleModel
	require.NoError(t, db.Where("customer_id = ?", customer.ID).Find(&sales).Error)
	paid := decimal.Zero
	for _, s := range sales {
		assert.True(t, s.PaidAmount.LessThanOrEqual(s.TotalAmount), "sale %d overpaid", s.ID)
		paid = paid.Add(s.PaidAmount)
	}

	var allocations []models.PaymentAllocationModel
	require.NoError(t, db.Find(&allocations).Error)
	allocated := decimal.Zero
	for _, a := range allocations {
		allocated = allocated.Add(a.Amount)
	}

	received := decimal.RequireFromString("15.00").Mul(decimal.NewFromInt(int64(succeeded)))
	assert.True(t, paid.Equal(allocated), "paid %s allocated %s", paid, allocated)
	assert.True(t, received.Equal(allocated.Add(unallocated)))
	assert.True(t, paid.LessThanOrEqual(decimal.RequireFromString("100.00")))
	assert.Equal(t, workers, succeeded, "FOR UPDATE serialises all writers")
	assert.True(t, decimal.RequireFromString("100.00").Equal(paid))
}

func TestIntegration_CheckConstraintRejectsOverpayment(t *testing.T) {
	db := newPostgresLedger(t)

	customer := &models.CustomerModel{Name: "Acme"}
	require.NoError(t, db.Create(customer).Error)
	s := &models.SaleModel{CustomerID: customer.ID, TotalAmount: decimal.RequireFromString("10"), PaidAmount: decimal.Zero}
	s.Version = 1
	require.NoError(t, db.Create(s).Error)

	err := db.Exec("UPDATE sales SET paid_amount = 10.01 WHERE id = ?", s.ID).Error
	assert.Error(t, err)
}
