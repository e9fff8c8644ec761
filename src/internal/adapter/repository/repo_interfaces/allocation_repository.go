package repo_interfaces

import (
	"context"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AllocationRepository interface {
	// Apply persists the allocation set together with the updated movement
	// and receivable rows in one transaction. The movement and each
	// receivable row are locked for the duration so concurrent resolves
	// against the same entities serialize.
	Apply(ctx context.Context, set domain.AllocationSet, movement domain.BankMovement, receivables []domain.Receivable) error
	ListForMovement(ctx context.Context, tenantID, movementID string) ([]domain.Allocation, error)
	SumForReceivable(ctx context.Context, tenantID, receivableID string) (decimal.Decimal, error)
}
