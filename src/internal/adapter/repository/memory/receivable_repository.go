package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type ReceivableRepository struct {
	mu          sync.RWMutex
	receivables map[string]domain.Receivable
}

func NewReceivableRepository() *ReceivableRepository {
	return &ReceivableRepository{receivables: make(map[string]domain.Receivable)}
}

func (r *ReceivableRepository) Create(_ context.Context, receivable domain.Receivable) (domain.Receivable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if receivable.Status == "" {
		receivable.Status = domain.ReceivableStatusPending
	}
	r.receivables[receivable.ID] = receivable
	return receivable, nil
}

func (r *ReceivableRepository) GetByID(_ context.Context, tenantID, receivableID string) (domain.Receivable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	receivable, ok := r.receivables[receivableID]
	if !ok || receivable.TenantID != tenantID {
		return domain.Receivable{}, domain.ErrRecordNotFound
	}
	return receivable, nil
}

func (r *ReceivableRepository) Update(_ context.Context, receivable domain.Receivable) (domain.Receivable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.receivables[receivable.ID]
	if !ok || current.TenantID != receivable.TenantID {
		return domain.Receivable{}, domain.ErrRecordNotFound
	}
	r.receivables[receivable.ID] = receivable
	return receivable, nil
}

func (r *ReceivableRepository) ListOpen(_ context.Context, tenantID string) ([]domain.Receivable, error) {
	return r.list(tenantID, func(rec domain.Receivable) bool {
		return rec.Status == domain.ReceivableStatusPending || rec.Status == domain.ReceivableStatusPartial
	}), nil
}

func (r *ReceivableRepository) ListOpenByDueDate(_ context.Context, tenantID string, day time.Time) ([]domain.Receivable, error) {
	y, m, d := day.Date()
	return r.list(tenantID, func(rec domain.Receivable) bool {
		if rec.Status != domain.ReceivableStatusPending && rec.Status != domain.ReceivableStatusPartial {
			return false
		}
		ry, rm, rd := rec.DueDate.Date()
		return ry == y && rm == m && rd == d
	}), nil
}

func (r *ReceivableRepository) list(tenantID string, keep func(domain.Receivable) bool) []domain.Receivable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Receivable
	for _, receivable := range r.receivables {
		if receivable.TenantID == tenantID && keep(receivable) {
			out = append(out, receivable)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
