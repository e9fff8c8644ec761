package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

type AllocationRepository struct {
	db *sql.DB
}

func NewAllocationRepository(db *sql.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Apply persists the allocation set and the updated movement/receivable rows
// in one transaction. The SELECT ... FOR UPDATE locks serialize concurrent
// resolves that touch the same movement or receivable.
func (r *AllocationRepository) Apply(ctx context.Context, set domain.AllocationSet, movement domain.BankMovement, receivables []domain.Receivable) error {
	logger.Info("allocation repository apply", logger.Fields{
		"movementId":  set.MovementID,
		"tenantId":    set.TenantID,
		"allocations": len(set.Allocations),
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocation tx: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`SELECT id FROM bank_movements WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		set.TenantID, set.MovementID,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("lock bank movement: %w", err)
	}

	for _, receivable := range receivables {
		if _, err := tx.ExecContext(
			ctx,
			`SELECT id FROM receivables WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
			receivable.TenantID, receivable.ID,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("lock receivable: %w", err)
		}
	}

	const allocationQuery = `
INSERT INTO allocations (id, tenant_id, movement_id, receivable_id, amount)
VALUES ($1, $2, $3, $4, $5)`

	for _, allocation := range set.Allocations {
		if _, err := tx.ExecContext(
			ctx,
			allocationQuery,
			allocation.ID,
			allocation.TenantID,
			allocation.MovementID,
			allocation.ReceivableID,
			allocation.Amount.StringFixed(2),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert allocation: %w", err)
		}
	}

	const movementQuery = `
UPDATE bank_movements
SET status = $3, matched = $4, multi_match = $5, reviewed = $6
WHERE tenant_id = $1 AND id = $2`

	if _, err := tx.ExecContext(
		ctx,
		movementQuery,
		movement.TenantID,
		movement.ID,
		movement.Status,
		movement.Matched,
		movement.MultiMatch,
		movement.Reviewed,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update movement in allocation tx: %w", err)
	}

	const receivableQuery = `
UPDATE receivables
SET paid_amount = $3, payment_date = $4, status = $5
WHERE tenant_id = $1 AND id = $2`

	for _, receivable := range receivables {
		if _, err := tx.ExecContext(
			ctx,
			receivableQuery,
			receivable.TenantID,
			receivable.ID,
			receivable.PaidAmount.StringFixed(2),
			receivable.PaymentDate,
			receivable.Status,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update receivable in allocation tx: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation tx: %w", err)
	}
	return nil
}

func (r *AllocationRepository) ListForMovement(ctx context.Context, tenantID, movementID string) ([]domain.Allocation, error) {
	const query = `
SELECT id, tenant_id, movement_id, receivable_id, amount, created_at
FROM allocations
WHERE tenant_id = $1 AND movement_id = $2
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tenantID, movementID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []domain.Allocation
	for rows.Next() {
		var (
			allocation domain.Allocation
			rawAmount  string
		)
		if err := rows.Scan(
			&allocation.ID,
			&allocation.TenantID,
			&allocation.MovementID,
			&allocation.ReceivableID,
			&rawAmount,
			&allocation.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		if allocation.Amount, err = decimal.NewFromString(rawAmount); err != nil {
			return nil, fmt.Errorf("parse allocation amount: %w", err)
		}
		allocations = append(allocations, allocation)
	}

	return allocations, rows.Err()
}

func (r *AllocationRepository) SumForReceivable(ctx context.Context, tenantID, receivableID string) (decimal.Decimal, error) {
	const query = `
SELECT COALESCE(SUM(amount), 0)
FROM allocations
WHERE tenant_id = $1 AND receivable_id = $2`

	var raw string
	if err := r.db.QueryRowContext(ctx, query, tenantID, receivableID).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("sum allocations for receivable: %w", err)
	}

	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse allocation sum: %w", err)
	}
	return total, nil
}
