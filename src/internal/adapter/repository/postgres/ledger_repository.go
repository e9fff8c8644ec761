package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateEntry writes the entry and its lines inside one transaction so a
// reader can never observe the entry without its lines.
func (r *LedgerRepository) CreateEntry(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	logger.Info("ledger repository create entry", logger.Fields{
		"entryId":       entry.ID,
		"tenantId":      entry.TenantID,
		"entryType":     entry.EntryType,
		"referenceType": entry.ReferenceType,
		"referenceId":   entry.ReferenceID,
		"lines":         len(entry.Lines),
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("begin entry tx: %w", err)
	}

	const entryQuery = `
INSERT INTO ledger_entries (id, tenant_id, entry_date, description, entry_type, reference_type, reference_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`

	var createdAt time.Time
	if err := tx.QueryRowContext(
		ctx,
		entryQuery,
		entry.ID,
		entry.TenantID,
		entry.EntryDate,
		entry.Description,
		entry.EntryType,
		entry.ReferenceType,
		entry.ReferenceID,
	).Scan(&createdAt); err != nil {
		_ = tx.Rollback()
		logger.Error("ledger repository create entry failed", err, logger.Fields{"entryId": entry.ID})
		return domain.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}

	const lineQuery = `
INSERT INTO ledger_lines (entry_id, account_code, debit, credit, description)
VALUES ($1, $2, $3, $4, $5)`

	for _, line := range entry.Lines {
		if _, err := tx.ExecContext(
			ctx,
			lineQuery,
			entry.ID,
			line.AccountCode,
			line.Debit.StringFixed(2),
			line.Credit.StringFixed(2),
			line.Description,
		); err != nil {
			_ = tx.Rollback()
			logger.Error("ledger repository create line failed", err, logger.Fields{
				"entryId":     entry.ID,
				"accountCode": line.AccountCode,
			})
			return domain.LedgerEntry{}, fmt.Errorf("insert ledger line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("commit entry tx: %w", err)
	}

	entry.CreatedAt = createdAt
	return entry, nil
}

func (r *LedgerRepository) GetEntry(ctx context.Context, tenantID, entryID string) (domain.LedgerEntry, error) {
	const query = `
SELECT id, tenant_id, entry_date, description, entry_type, reference_type, reference_id, created_at
FROM ledger_entries
WHERE tenant_id = $1 AND id = $2`

	entry, err := r.scanEntry(r.db.QueryRowContext(ctx, query, tenantID, entryID))
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	lines, err := r.loadLines(ctx, entry.ID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *LedgerRepository) FindByReference(ctx context.Context, tenantID, referenceType, referenceID string) (domain.LedgerEntry, error) {
	const query = `
SELECT id, tenant_id, entry_date, description, entry_type, reference_type, reference_id, created_at
FROM ledger_entries
WHERE tenant_id = $1 AND reference_type = $2 AND reference_id = $3`

	entry, err := r.scanEntry(r.db.QueryRowContext(ctx, query, tenantID, referenceType, referenceID))
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	lines, err := r.loadLines(ctx, entry.ID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

// DeleteEntry removes the entry and cascades to its lines in one
// transaction. The caller records the audit event with the deleted payload.
func (r *LedgerRepository) DeleteEntry(ctx context.Context, tenantID, entryID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_lines WHERE entry_id = $1`, entryID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete ledger lines: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE tenant_id = $1 AND id = $2`, tenantID, entryID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete ledger entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete ledger entry rows affected: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return domain.ErrRecordNotFound
	}

	return tx.Commit()
}

func (r *LedgerRepository) SumBefore(ctx context.Context, tenantID, codePrefix string, before time.Time) (map[string]repo_interfaces.AccountTotals, error) {
	const query = `
SELECT l.account_code, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM ledger_lines l
JOIN ledger_entries e ON e.id = l.entry_id
WHERE e.tenant_id = $1
  AND e.entry_date < $2
  AND ($3 = '' OR l.account_code = $3 OR l.account_code LIKE $3 || '.%')
GROUP BY l.account_code`

	return r.sumQuery(ctx, query, tenantID, before, codePrefix)
}

func (r *LedgerRepository) SumBetween(ctx context.Context, tenantID, codePrefix string, from, to time.Time) (map[string]repo_interfaces.AccountTotals, error) {
	const query = `
SELECT l.account_code, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM ledger_lines l
JOIN ledger_entries e ON e.id = l.entry_id
WHERE e.tenant_id = $1
  AND e.entry_date >= $2
  AND e.entry_date <= $3
  AND ($4 = '' OR l.account_code = $4 OR l.account_code LIKE $4 || '.%')
GROUP BY l.account_code`

	return r.sumQuery(ctx, query, tenantID, from, to, codePrefix)
}

func (r *LedgerRepository) ListOrphanEntries(ctx context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error) {
	const query = `
SELECT e.id, e.tenant_id, e.entry_date, e.description, e.entry_type, e.reference_type, e.reference_id, e.created_at
FROM ledger_entries e
WHERE e.tenant_id = $1
  AND NOT EXISTS (SELECT 1 FROM ledger_lines l WHERE l.entry_id = e.id)
ORDER BY e.id
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orphan entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LedgerRepository) scanEntry(row rowScanner) (domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.EntryDate,
		&entry.Description,
		&entry.EntryType,
		&entry.ReferenceType,
		&entry.ReferenceID,
		&entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LedgerEntry{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	return entry, nil
}

func (r *LedgerRepository) loadLines(ctx context.Context, entryID string) ([]domain.LedgerLine, error) {
	const query = `
SELECT entry_id, account_code, debit, credit, description
FROM ledger_lines
WHERE entry_id = $1
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("load ledger lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.LedgerLine
	for rows.Next() {
		var (
			line      domain.LedgerLine
			rawDebit  string
			rawCredit string
		)
		if err := rows.Scan(&line.EntryID, &line.AccountCode, &rawDebit, &rawCredit, &line.Description); err != nil {
			return nil, fmt.Errorf("scan ledger line: %w", err)
		}
		if line.Debit, err = decimal.NewFromString(rawDebit); err != nil {
			return nil, fmt.Errorf("parse line debit: %w", err)
		}
		if line.Credit, err = decimal.NewFromString(rawCredit); err != nil {
			return nil, fmt.Errorf("parse line credit: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (r *LedgerRepository) sumQuery(ctx context.Context, query string, args ...any) (map[string]repo_interfaces.AccountTotals, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum ledger lines: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]repo_interfaces.AccountTotals)
	for rows.Next() {
		var (
			code      string
			rawDebit  string
			rawCredit string
		)
		if err := rows.Scan(&code, &rawDebit, &rawCredit); err != nil {
			return nil, fmt.Errorf("scan line totals: %w", err)
		}

		debit, err := decimal.NewFromString(rawDebit)
		if err != nil {
			return nil, fmt.Errorf("parse debit total: %w", err)
		}
		credit, err := decimal.NewFromString(rawCredit)
		if err != nil {
			return nil, fmt.Errorf("parse credit total: %w", err)
		}
		totals[code] = repo_interfaces.AccountTotals{Debit: debit, Credit: credit}
	}

	return totals, rows.Err()
}
