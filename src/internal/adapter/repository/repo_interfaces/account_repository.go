package repo_interfaces

import (
	"context"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByCode(ctx context.Context, tenantID, code string) (domain.Account, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Account, error)
}
