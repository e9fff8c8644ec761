package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[string]domain.LedgerEntry // entry ID -> entry (lines inline)
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{entries: make(map[string]domain.LedgerEntry)}
}

func (r *LedgerRepository) CreateEntry(_ context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	lines := make([]domain.LedgerLine, len(entry.Lines))
	copy(lines, entry.Lines)
	entry.Lines = lines

	r.entries[entry.ID] = entry
	return entry, nil
}

// InsertRawEntry stores an entry without any validation. Tests use it to
// simulate broken writes (orphans, lines on synthetic accounts).
func (r *LedgerRepository) InsertRawEntry(entry domain.LedgerEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
}

func (r *LedgerRepository) GetEntry(_ context.Context, tenantID, entryID string) (domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return domain.LedgerEntry{}, domain.ErrRecordNotFound
	}
	return entry, nil
}

func (r *LedgerRepository) FindByReference(_ context.Context, tenantID, referenceType, referenceID string) (domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		if entry.TenantID == tenantID && entry.ReferenceType == referenceType && entry.ReferenceID == referenceID {
			return entry, nil
		}
	}
	return domain.LedgerEntry{}, domain.ErrRecordNotFound
}

func (r *LedgerRepository) DeleteEntry(_ context.Context, tenantID, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return domain.ErrRecordNotFound
	}
	delete(r.entries, entryID)
	return nil
}

func (r *LedgerRepository) SumBefore(_ context.Context, tenantID, codePrefix string, before time.Time) (map[string]repo_interfaces.AccountTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sum(tenantID, codePrefix, func(date time.Time) bool {
		return date.Before(before)
	}), nil
}

func (r *LedgerRepository) SumBetween(_ context.Context, tenantID, codePrefix string, from, to time.Time) (map[string]repo_interfaces.AccountTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sum(tenantID, codePrefix, func(date time.Time) bool {
		return !date.Before(from) && !date.After(to)
	}), nil
}

func (r *LedgerRepository) sum(tenantID, codePrefix string, include func(time.Time) bool) map[string]repo_interfaces.AccountTotals {
	totals := make(map[string]repo_interfaces.AccountTotals)
	for _, entry := range r.entries {
		if entry.TenantID != tenantID || !include(entry.EntryDate) {
			continue
		}
		for _, line := range entry.Lines {
			if codePrefix != "" && !domain.IsDescendantOf(line.AccountCode, codePrefix) {
				continue
			}
			t := totals[line.AccountCode]
			t.Debit = t.Debit.Add(line.Debit)
			t.Credit = t.Credit.Add(line.Credit)
			totals[line.AccountCode] = t
		}
	}
	return totals
}

func (r *LedgerRepository) ListOrphanEntries(_ context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.LedgerEntry
	for _, entry := range r.entries {
		if entry.TenantID == tenantID && len(entry.Lines) == 0 {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EntryCount reports how many entries the store holds for a tenant.
func (r *LedgerRepository) EntryCount(tenantID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, entry := range r.entries {
		if entry.TenantID == tenantID {
			count++
		}
	}
	return count
}
