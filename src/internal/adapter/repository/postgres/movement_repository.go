package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

type MovementRepository struct {
	db *sql.DB
}

func NewMovementRepository(db *sql.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

const movementColumns = `id, tenant_id, value_date, amount, description, external_ref, bank_account_code, status, matched, multi_match, reviewed, category`

func (r *MovementRepository) Create(ctx context.Context, movement domain.BankMovement) (domain.BankMovement, error) {
	logger.Info("movement repository create", logger.Fields{
		"movementId":  movement.ID,
		"tenantId":    movement.TenantID,
		"externalRef": movement.ExternalRef,
	})

	if movement.Status == "" {
		movement.Status = domain.MovementStatusUnmatched
	}

	const query = `
INSERT INTO bank_movements (` + movementColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		movement.ID,
		movement.TenantID,
		movement.ValueDate,
		movement.Amount.StringFixed(2),
		movement.Description,
		movement.ExternalRef,
		movement.BankAccountCode,
		movement.Status,
		movement.Matched,
		movement.MultiMatch,
		movement.Reviewed,
		movement.Category,
	); err != nil {
		logger.Error("movement repository create failed", err, logger.Fields{"movementId": movement.ID})
		return domain.BankMovement{}, fmt.Errorf("create bank movement: %w", err)
	}

	return movement, nil
}

func (r *MovementRepository) GetByID(ctx context.Context, tenantID, movementID string) (domain.BankMovement, error) {
	const query = `
SELECT ` + movementColumns + `
FROM bank_movements
WHERE tenant_id = $1 AND id = $2`

	return r.scanMovement(r.db.QueryRowContext(ctx, query, tenantID, movementID))
}

func (r *MovementRepository) Update(ctx context.Context, movement domain.BankMovement) (domain.BankMovement, error) {
	const query = `
UPDATE bank_movements
SET status = $3,
    matched = $4,
    multi_match = $5,
    reviewed = $6,
    category = $7
WHERE tenant_id = $1 AND id = $2`

	result, err := r.db.ExecContext(
		ctx,
		query,
		movement.TenantID,
		movement.ID,
		movement.Status,
		movement.Matched,
		movement.MultiMatch,
		movement.Reviewed,
		movement.Category,
	)
	if err != nil {
		logger.Error("movement repository update failed", err, logger.Fields{"movementId": movement.ID})
		return domain.BankMovement{}, fmt.Errorf("update bank movement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.BankMovement{}, fmt.Errorf("update bank movement rows affected: %w", err)
	}
	if affected == 0 {
		return domain.BankMovement{}, domain.ErrRecordNotFound
	}

	return movement, nil
}

func (r *MovementRepository) ListByStatus(ctx context.Context, tenantID string, status domain.MovementStatus) ([]domain.BankMovement, error) {
	const query = `
SELECT ` + movementColumns + `
FROM bank_movements
WHERE tenant_id = $1 AND status = $2
ORDER BY value_date, id`

	return r.listQuery(ctx, query, tenantID, status)
}

func (r *MovementRepository) ListByValueDate(ctx context.Context, tenantID string, day time.Time) ([]domain.BankMovement, error) {
	const query = `
SELECT ` + movementColumns + `
FROM bank_movements
WHERE tenant_id = $1 AND value_date::date = $2::date
ORDER BY id`

	return r.listQuery(ctx, query, tenantID, day)
}

func (r *MovementRepository) ListBetween(ctx context.Context, tenantID string, from, to time.Time) ([]domain.BankMovement, error) {
	const query = `
SELECT ` + movementColumns + `
FROM bank_movements
WHERE tenant_id = $1 AND value_date >= $2 AND value_date <= $3
ORDER BY value_date, id`

	return r.listQuery(ctx, query, tenantID, from, to)
}

func (r *MovementRepository) listQuery(ctx context.Context, query string, args ...any) ([]domain.BankMovement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bank movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.BankMovement
	for rows.Next() {
		movement, err := r.scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}

	return movements, rows.Err()
}

func (r *MovementRepository) scanMovement(row rowScanner) (domain.BankMovement, error) {
	var (
		movement  domain.BankMovement
		rawAmount string
	)
	err := row.Scan(
		&movement.ID,
		&movement.TenantID,
		&movement.ValueDate,
		&rawAmount,
		&movement.Description,
		&movement.ExternalRef,
		&movement.BankAccountCode,
		&movement.Status,
		&movement.Matched,
		&movement.MultiMatch,
		&movement.Reviewed,
		&movement.Category,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BankMovement{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.BankMovement{}, fmt.Errorf("scan bank movement: %w", err)
	}

	if movement.Amount, err = decimal.NewFromString(rawAmount); err != nil {
		return domain.BankMovement{}, fmt.Errorf("parse movement amount: %w", err)
	}
	return movement, nil
}
