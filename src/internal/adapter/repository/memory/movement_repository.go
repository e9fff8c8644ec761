package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type MovementRepository struct {
	mu        sync.RWMutex
	movements map[string]domain.BankMovement
}

func NewMovementRepository() *MovementRepository {
	return &MovementRepository{movements: make(map[string]domain.BankMovement)}
}

func (r *MovementRepository) Create(_ context.Context, movement domain.BankMovement) (domain.BankMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if movement.Status == "" {
		movement.Status = domain.MovementStatusUnmatched
	}
	r.movements[movement.ID] = movement
	return movement, nil
}

func (r *MovementRepository) GetByID(_ context.Context, tenantID, movementID string) (domain.BankMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movement, ok := r.movements[movementID]
	if !ok || movement.TenantID != tenantID {
		return domain.BankMovement{}, domain.ErrRecordNotFound
	}
	return movement, nil
}

func (r *MovementRepository) Update(_ context.Context, movement domain.BankMovement) (domain.BankMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.movements[movement.ID]
	if !ok || current.TenantID != movement.TenantID {
		return domain.BankMovement{}, domain.ErrRecordNotFound
	}
	r.movements[movement.ID] = movement
	return movement, nil
}

func (r *MovementRepository) ListByStatus(_ context.Context, tenantID string, status domain.MovementStatus) ([]domain.BankMovement, error) {
	return r.list(tenantID, func(m domain.BankMovement) bool { return m.Status == status }), nil
}

func (r *MovementRepository) ListByValueDate(_ context.Context, tenantID string, day time.Time) ([]domain.BankMovement, error) {
	y, m, d := day.Date()
	return r.list(tenantID, func(mv domain.BankMovement) bool {
		my, mm, md := mv.ValueDate.Date()
		return my == y && mm == m && md == d
	}), nil
}

func (r *MovementRepository) ListBetween(_ context.Context, tenantID string, from, to time.Time) ([]domain.BankMovement, error) {
	return r.list(tenantID, func(m domain.BankMovement) bool {
		return !m.ValueDate.Before(from) && !m.ValueDate.After(to)
	}), nil
}

func (r *MovementRepository) list(tenantID string, keep func(domain.BankMovement) bool) []domain.BankMovement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.BankMovement
	for _, movement := range r.movements {
		if movement.TenantID == tenantID && keep(movement) {
			out = append(out, movement)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
