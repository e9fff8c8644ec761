package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type AuditRepository struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Record(_ context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	r.events = append(r.events, event)
	return event, nil
}

func (r *AuditRepository) ListByEntry(_ context.Context, tenantID, entryID string) ([]domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.AuditEvent
	for _, event := range r.events {
		if event.TenantID == tenantID && event.EntryID == entryID {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListByAction returns every recorded event with the given action, used by
// tests to assert override and cleanup trails.
func (r *AuditRepository) ListByAction(tenantID string, action domain.AuditAction) []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.AuditEvent
	for _, event := range r.events {
		if event.TenantID == tenantID && event.Action == action {
			out = append(out, event)
		}
	}
	return out
}
