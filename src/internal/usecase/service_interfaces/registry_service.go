package service_interfaces

import (
	"context"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

// RegistryService is the chart-of-accounts read dependency shared by the
// matching, posting, and aggregation components.
type RegistryService interface {
	Resolve(ctx context.Context, tenantID, code string) (domain.Account, error)
	IsAnalytical(ctx context.Context, tenantID, code string) (bool, error)
	Ancestors(ctx context.Context, tenantID, code string) ([]domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	Invalidate(tenantID string)
}
