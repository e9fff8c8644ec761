package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"tenantId": account.TenantID,
		"code":     account.Code,
		"name":     account.Name,
	})

	const query = `
INSERT INTO chart_of_accounts (tenant_id, code, name, account_type, nature, is_analytical)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		account.TenantID,
		account.Code,
		account.Name,
		account.Type,
		account.Nature,
		account.IsAnalytical,
	); err != nil {
		logger.Error("account repository create failed", err, logger.Fields{"code": account.Code})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByCode(ctx context.Context, tenantID, code string) (domain.Account, error) {
	const query = `
SELECT tenant_id, code, name, account_type, nature, is_analytical
FROM chart_of_accounts
WHERE tenant_id = $1 AND code = $2`

	var account domain.Account
	err := r.db.QueryRowContext(ctx, query, tenantID, code).Scan(
		&account.TenantID,
		&account.Code,
		&account.Name,
		&account.Type,
		&account.Nature,
		&account.IsAnalytical,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account by code: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Account, error) {
	const query = `
SELECT tenant_id, code, name, account_type, nature, is_analytical
FROM chart_of_accounts
WHERE tenant_id = $1
ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.TenantID,
			&account.Code,
			&account.Name,
			&account.Type,
			&account.Nature,
			&account.IsAnalytical,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
