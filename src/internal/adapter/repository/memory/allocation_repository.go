package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// AllocationRepository keeps allocations alongside references to the
// movement and receivable stores so Apply can update all three under one
// lock, mirroring the transactional write of the Postgres implementation.
type AllocationRepository struct {
	mu          sync.Mutex
	allocations map[string]domain.Allocation
	movements   *MovementRepository
	receivables *ReceivableRepository
}

func NewAllocationRepository(movements *MovementRepository, receivables *ReceivableRepository) *AllocationRepository {
	return &AllocationRepository{
		allocations: make(map[string]domain.Allocation),
		movements:   movements,
		receivables: receivables,
	}
}

func (r *AllocationRepository) Apply(ctx context.Context, set domain.AllocationSet, movement domain.BankMovement, receivables []domain.Receivable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.movements.Update(ctx, movement); err != nil {
		return err
	}
	for _, receivable := range receivables {
		if _, err := r.receivables.Update(ctx, receivable); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	for _, allocation := range set.Allocations {
		if allocation.CreatedAt.IsZero() {
			allocation.CreatedAt = now
		}
		r.allocations[allocation.ID] = allocation
	}
	return nil
}

func (r *AllocationRepository) ListForMovement(_ context.Context, tenantID, movementID string) ([]domain.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Allocation
	for _, allocation := range r.allocations {
		if allocation.TenantID == tenantID && allocation.MovementID == movementID {
			out = append(out, allocation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AllocationRepository) SumForReceivable(_ context.Context, tenantID, receivableID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := decimal.Zero
	for _, allocation := range r.allocations {
		if allocation.TenantID == tenantID && allocation.ReceivableID == receivableID {
			total = total.Add(allocation.Amount)
		}
	}
	return total, nil
}
