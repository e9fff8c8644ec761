package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
)

// RegistryService serves the chart of accounts with a per-tenant cache.
// The cache is an explicit injected object: one registry instance per
// deployment, one cache entry per tenant, never process-wide account state
// keyed by anything other than the tenant.
type RegistryService struct {
	accountRepo repo_interfaces.AccountRepository

	mu    sync.RWMutex
	cache map[string]map[string]domain.Account // tenant -> code -> account
}

func NewRegistryService(accountRepo repo_interfaces.AccountRepository) *RegistryService {
	return &RegistryService{
		accountRepo: accountRepo,
		cache:       make(map[string]map[string]domain.Account),
	}
}

func (s *RegistryService) Resolve(ctx context.Context, tenantID, code string) (domain.Account, error) {
	accounts, err := s.tenantAccounts(ctx, tenantID)
	if err != nil {
		return domain.Account{}, err
	}

	account, ok := accounts[code]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return account, nil
}

func (s *RegistryService) IsAnalytical(ctx context.Context, tenantID, code string) (bool, error) {
	account, err := s.Resolve(ctx, tenantID, code)
	if err != nil {
		return false, err
	}
	return account.IsAnalytical, nil
}

// Ancestors returns the account's path prefixes, root first. Unknown
// intermediate codes are skipped: the tree may be sparse while accounts are
// still being created.
func (s *RegistryService) Ancestors(ctx context.Context, tenantID, code string) ([]domain.Account, error) {
	accounts, err := s.tenantAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if _, ok := accounts[code]; !ok {
		return nil, domain.ErrRecordNotFound
	}

	var out []domain.Account
	for _, ancestorCode := range domain.AncestorCodes(code) {
		if ancestor, ok := accounts[ancestorCode]; ok {
			out = append(out, ancestor)
		}
	}
	return out, nil
}

func (s *RegistryService) ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	return s.accountRepo.ListByTenant(ctx, tenantID)
}

func (s *RegistryService) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("registry service create account", logger.Fields{
		"tenantId": account.TenantID,
		"code":     account.Code,
	})

	account.Code = strings.TrimSpace(account.Code)
	if account.Code == "" {
		return domain.Account{}, domain.InvalidAccountError{Code: account.Code, Reason: "empty account code"}
	}
	if account.Nature == "" {
		account.Nature = domain.NatureForType(account.Type)
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account %q: %w", account.Code, err)
	}

	s.Invalidate(account.TenantID)
	return created, nil
}

// Invalidate drops the cached tree for one tenant. Called after any account
// mutation for that tenant.
func (s *RegistryService) Invalidate(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, tenantID)
}

func (s *RegistryService) tenantAccounts(ctx context.Context, tenantID string) (map[string]domain.Account, error) {
	s.mu.RLock()
	cached, ok := s.cache[tenantID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	accounts, err := s.accountRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load accounts for tenant %q: %w", tenantID, err)
	}

	byCode := make(map[string]domain.Account, len(accounts))
	for _, account := range accounts {
		byCode[account.Code] = account
	}

	s.mu.Lock()
	s.cache[tenantID] = byCode
	s.mu.Unlock()

	return byCode, nil
}

// DefaultChart is the seed chart of accounts. Synthetic levels aggregate,
// the two-segment leaves receive postings.
var DefaultChart = []domain.Account{
	{Code: "1", Name: "Ativo", Type: domain.AccountTypeAsset},
	{Code: "1.1", Name: "Ativo Circulante", Type: domain.AccountTypeAsset},
	{Code: "1.1.1", Name: "Caixa e Bancos", Type: domain.AccountTypeAsset},
	{Code: "1.1.1.01", Name: "Banco Conta Movimento", Type: domain.AccountTypeAsset, IsAnalytical: true},
	{Code: "1.1.2", Name: "Clientes a Receber", Type: domain.AccountTypeAsset},
	{Code: "1.1.2.01", Name: "Clientes Diversos", Type: domain.AccountTypeAsset, IsAnalytical: true},
	{Code: "2", Name: "Passivo", Type: domain.AccountTypeLiability},
	{Code: "2.1", Name: "Passivo Circulante", Type: domain.AccountTypeLiability},
	{Code: "2.1.1", Name: "Fornecedores", Type: domain.AccountTypeLiability},
	{Code: "2.1.1.01", Name: "Fornecedores a Pagar", Type: domain.AccountTypeLiability, IsAnalytical: true},
	{Code: "2.3", Name: "Patrimônio Líquido", Type: domain.AccountTypeEquity},
	{Code: "2.3.1", Name: "Capital e Reservas", Type: domain.AccountTypeEquity},
	{Code: "2.3.1.01", Name: "Saldos de Abertura", Type: domain.AccountTypeEquity, IsAnalytical: true},
	{Code: "3", Name: "Receitas", Type: domain.AccountTypeRevenue},
	{Code: "3.1", Name: "Receita Operacional", Type: domain.AccountTypeRevenue},
	{Code: "3.1.1", Name: "Receita de Serviços", Type: domain.AccountTypeRevenue},
	{Code: "3.1.1.01", Name: "Receita de Honorários", Type: domain.AccountTypeRevenue, IsAnalytical: true},
	{Code: "4", Name: "Despesas", Type: domain.AccountTypeExpense},
	{Code: "4.1", Name: "Despesas Operacionais", Type: domain.AccountTypeExpense},
	{Code: "4.1.1", Name: "Despesas com Pessoal", Type: domain.AccountTypeExpense},
	{Code: "4.1.1.01", Name: "Salários e Ordenados", Type: domain.AccountTypeExpense, IsAnalytical: true},
	{Code: "4.1.2", Name: "Despesas Administrativas", Type: domain.AccountTypeExpense},
	{Code: "4.1.2.01", Name: "Aluguel", Type: domain.AccountTypeExpense, IsAnalytical: true},
	{Code: "4.1.2.99", Name: "Outras Despesas Administrativas", Type: domain.AccountTypeExpense, IsAnalytical: true},
	{Code: "4.1.3", Name: "Despesas Financeiras", Type: domain.AccountTypeExpense},
	{Code: "4.1.3.02", Name: "Tarifas Bancárias", Type: domain.AccountTypeExpense, IsAnalytical: true},
}

// Seed creates the default chart for a tenant, skipping codes that already
// exist.
func (s *RegistryService) Seed(ctx context.Context, tenantID string) (int, error) {
	existing, err := s.tenantAccounts(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, template := range DefaultChart {
		if _, ok := existing[template.Code]; ok {
			continue
		}
		account := template
		account.TenantID = tenantID
		account.Nature = domain.NatureForType(account.Type)
		if _, err := s.accountRepo.Create(ctx, account); err != nil {
			return created, fmt.Errorf("seed account %q: %w", account.Code, err)
		}
		created++
	}

	s.Invalidate(tenantID)
	return created, nil
}
