package service_interfaces

import (
	"context"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// Selection is one operator-confirmed (receivable, amount) pair inside a
// split request.
type Selection struct {
	ReceivableID string
	Amount       decimal.Decimal
}

type SplitService interface {
	// Resolve validates the selections against the movement and, if every
	// rule passes, applies the allocation set atomically. No partial
	// application: a single violated rule rejects the whole request.
	Resolve(ctx context.Context, tenantID, movementID string, selections []Selection) (domain.AllocationSet, error)
	// ResolveSettlementDay applies many movement splits that share one
	// settlement date. Each movement's selections may only reference
	// receivables due on that date.
	ResolveSettlementDay(ctx context.Context, tenantID string, day time.Time, selections map[string][]Selection) ([]domain.AllocationSet, error)
}
