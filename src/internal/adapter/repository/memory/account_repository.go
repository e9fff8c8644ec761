package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]map[string]domain.Account // tenant -> code -> account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]map[string]domain.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tenant := r.accounts[account.TenantID]
	if tenant == nil {
		tenant = make(map[string]domain.Account)
		r.accounts[account.TenantID] = tenant
	}
	tenant[account.Code] = account
	return account, nil
}

func (r *AccountRepository) GetByCode(_ context.Context, tenantID, code string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[tenantID][code]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return account, nil
}

func (r *AccountRepository) ListByTenant(_ context.Context, tenantID string) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Account, 0, len(r.accounts[tenantID]))
	for _, account := range r.accounts[tenantID] {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
