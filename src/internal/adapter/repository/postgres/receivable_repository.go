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

type ReceivableRepository struct {
	db *sql.DB
}

func NewReceivableRepository(db *sql.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

const receivableColumns = `id, tenant_id, payer_id, payer_name, payer_document, payer_account_code, amount, paid_amount, due_date, payment_date, competence, status`

func (r *ReceivableRepository) Create(ctx context.Context, receivable domain.Receivable) (domain.Receivable, error) {
	logger.Info("receivable repository create", logger.Fields{
		"receivableId": receivable.ID,
		"tenantId":     receivable.TenantID,
		"payerId":      receivable.PayerID,
	})

	if receivable.Status == "" {
		receivable.Status = domain.ReceivableStatusPending
	}

	const query = `
INSERT INTO receivables (` + receivableColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		receivable.ID,
		receivable.TenantID,
		receivable.PayerID,
		receivable.PayerName,
		receivable.PayerDocument,
		receivable.PayerAccountCode,
		receivable.Amount.StringFixed(2),
		receivable.PaidAmount.StringFixed(2),
		receivable.DueDate,
		receivable.PaymentDate,
		receivable.Competence,
		receivable.Status,
	); err != nil {
		logger.Error("receivable repository create failed", err, logger.Fields{"receivableId": receivable.ID})
		return domain.Receivable{}, fmt.Errorf("create receivable: %w", err)
	}

	return receivable, nil
}

func (r *ReceivableRepository) GetByID(ctx context.Context, tenantID, receivableID string) (domain.Receivable, error) {
	const query = `
SELECT ` + receivableColumns + `
FROM receivables
WHERE tenant_id = $1 AND id = $2`

	return r.scanReceivable(r.db.QueryRowContext(ctx, query, tenantID, receivableID))
}

func (r *ReceivableRepository) Update(ctx context.Context, receivable domain.Receivable) (domain.Receivable, error) {
	const query = `
UPDATE receivables
SET paid_amount = $3,
    payment_date = $4,
    status = $5
WHERE tenant_id = $1 AND id = $2`

	result, err := r.db.ExecContext(
		ctx,
		query,
		receivable.TenantID,
		receivable.ID,
		receivable.PaidAmount.StringFixed(2),
		receivable.PaymentDate,
		receivable.Status,
	)
	if err != nil {
		logger.Error("receivable repository update failed", err, logger.Fields{"receivableId": receivable.ID})
		return domain.Receivable{}, fmt.Errorf("update receivable: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Receivable{}, fmt.Errorf("update receivable rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Receivable{}, domain.ErrRecordNotFound
	}

	return receivable, nil
}

func (r *ReceivableRepository) ListOpen(ctx context.Context, tenantID string) ([]domain.Receivable, error) {
	const query = `
SELECT ` + receivableColumns + `
FROM receivables
WHERE tenant_id = $1 AND status IN ('PENDING', 'PARTIAL')
ORDER BY due_date, id`

	return r.listQuery(ctx, query, tenantID)
}

func (r *ReceivableRepository) ListOpenByDueDate(ctx context.Context, tenantID string, day time.Time) ([]domain.Receivable, error) {
	const query = `
SELECT ` + receivableColumns + `
FROM receivables
WHERE tenant_id = $1 AND status IN ('PENDING', 'PARTIAL') AND due_date::date = $2::date
ORDER BY id`

	return r.listQuery(ctx, query, tenantID, day)
}

func (r *ReceivableRepository) listQuery(ctx context.Context, query string, args ...any) ([]domain.Receivable, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list receivables: %w", err)
	}
	defer rows.Close()

	var receivables []domain.Receivable
	for rows.Next() {
		receivable, err := r.scanReceivable(rows)
		if err != nil {
			return nil, err
		}
		receivables = append(receivables, receivable)
	}

	return receivables, rows.Err()
}

func (r *ReceivableRepository) scanReceivable(row rowScanner) (domain.Receivable, error) {
	var (
		receivable  domain.Receivable
		rawAmount   string
		rawPaid     string
		paymentDate sql.NullTime
	)
	err := row.Scan(
		&receivable.ID,
		&receivable.TenantID,
		&receivable.PayerID,
		&receivable.PayerName,
		&receivable.PayerDocument,
		&receivable.PayerAccountCode,
		&rawAmount,
		&rawPaid,
		&receivable.DueDate,
		&paymentDate,
		&receivable.Competence,
		&receivable.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Receivable{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Receivable{}, fmt.Errorf("scan receivable: %w", err)
	}

	if receivable.Amount, err = decimal.NewFromString(rawAmount); err != nil {
		return domain.Receivable{}, fmt.Errorf("parse receivable amount: %w", err)
	}
	if receivable.PaidAmount, err = decimal.NewFromString(rawPaid); err != nil {
		return domain.Receivable{}, fmt.Errorf("parse receivable paid amount: %w", err)
	}
	if paymentDate.Valid {
		value := paymentDate.Time
		receivable.PaymentDate = &value
	}
	return receivable, nil
}
