package allocation

import (
	"context"
	"sort"

	"github.com/pos/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// FIFOAllocationStrategy settles the oldest document (lowest id) first
type FIFOAllocationStrategy struct {
	strategy.Descriptor
}

// NewFIFOAllocationStrategy creates a new FIFO allocation strategy
func NewFIFOAllocationStrategy() *FIFOAllocationStrategy {
	return &FIFOAllocationStrategy{
		Descriptor: strategy.Describe("fifo", "Allocate payments to the oldest outstanding documents first"),
	}
}

// Allocate allocates payment to documents in ascending id order
func (s *FIFOAllocationStrategy) Allocate(
	ctx context.Context,
	allocCtx strategy.AllocationContext,
	documents []strategy.Document,
) (strategy.AllocationResult, error) {
	if err := ctx.Err(); err != nil {
		return strategy.AllocationResult{}, err
	}

	sorted := make([]strategy.Document, len(documents))
	copy(sorted, documents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	remainingAmount := allocCtx.PaymentAmount
	allocations := make([]strategy.Allocation, 0)
	totalAllocated := decimal.Zero

	for _, doc := range sorted {
		if !remainingAmount.IsPositive() {
			break
		}

		balance := doc.Balance
		if !balance.IsPositive() {
			continue
		}

		allocatedAmount := decimal.Min(remainingAmount, balance)

		allocations = append(allocations, strategy.Allocation{
			DocumentID:      doc.ID,
			DocumentNumber:  doc.DocumentNumber,
			AllocatedAmount: allocatedAmount,
			BalanceBefore:   balance,
			BalanceAfter:    balance.Sub(allocatedAmount),
		})

		remainingAmount = remainingAmount.Sub(allocatedAmount)
		totalAllocated = totalAllocated.Add(allocatedAmount)
	}

	if remainingAmount.IsNegative() {
		remainingAmount = decimal.Zero
	}

	return strategy.AllocationResult{
		Allocations:    allocations,
		TotalAllocated: totalAllocated,
		Remaining:      remainingAmount,
	}, nil
}
