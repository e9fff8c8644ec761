package repo_interfaces

import (
	"context"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type ReceivableRepository interface {
	Create(ctx context.Context, receivable domain.Receivable) (domain.Receivable, error)
	GetByID(ctx context.Context, tenantID, receivableID string) (domain.Receivable, error)
	Update(ctx context.Context, receivable domain.Receivable) (domain.Receivable, error)
	// ListOpen returns receivables still carrying an outstanding balance
	// (pending or partial), the candidate pool for matching.
	ListOpen(ctx context.Context, tenantID string) ([]domain.Receivable, error)
	ListOpenByDueDate(ctx context.Context, tenantID string, day time.Time) ([]domain.Receivable, error)
}
