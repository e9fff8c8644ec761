package repo_interfaces

import (
	"context"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountTotals carries the raw debit/credit sums of an account's lines over
// some window. Nature adjustment is the aggregator's job, not the store's.
type AccountTotals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

type LedgerRepository interface {
	// CreateEntry persists the entry and all of its lines as one atomic
	// unit. Partial visibility (entry without lines) must be impossible on
	// this path.
	CreateEntry(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error)
	GetEntry(ctx context.Context, tenantID, entryID string) (domain.LedgerEntry, error)
	// FindByReference is the idempotency lookup: at most one entry exists
	// per (referenceType, referenceID) pair.
	FindByReference(ctx context.Context, tenantID, referenceType, referenceID string) (domain.LedgerEntry, error)
	// DeleteEntry cascade-deletes the entry and its lines atomically.
	DeleteEntry(ctx context.Context, tenantID, entryID string) error

	// SumBefore returns per-account raw totals of lines dated strictly
	// before the cutoff, for accounts under codePrefix ("" = all).
	SumBefore(ctx context.Context, tenantID, codePrefix string, before time.Time) (map[string]AccountTotals, error)
	// SumBetween returns per-account raw totals of lines dated within
	// [from, to] inclusive.
	SumBetween(ctx context.Context, tenantID, codePrefix string, from, to time.Time) (map[string]AccountTotals, error)

	// ListOrphanEntries returns up to limit entries that have no lines,
	// the residue of interrupted writes predating the atomic path.
	ListOrphanEntries(ctx context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error)
}
