package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitService turns an operator-confirmed selection into a persisted
// allocation set. Validation is all-or-nothing: every rule passes or no
// allocation is written.
type SplitService struct {
	movementRepo   repo_interfaces.MovementRepository
	receivableRepo repo_interfaces.ReceivableRepository
	allocationRepo repo_interfaces.AllocationRepository
	tolerance      decimal.Decimal
	locks          *EntityLocks
}

func NewSplitService(
	movementRepo repo_interfaces.MovementRepository,
	receivableRepo repo_interfaces.ReceivableRepository,
	allocationRepo repo_interfaces.AllocationRepository,
	tolerance decimal.Decimal,
	locks *EntityLocks,
) *SplitService {
	return &SplitService{
		movementRepo:   movementRepo,
		receivableRepo: receivableRepo,
		allocationRepo: allocationRepo,
		tolerance:      tolerance,
		locks:          locks,
	}
}

func (s *SplitService) Resolve(ctx context.Context, tenantID, movementID string, selections []service_interfaces.Selection) (domain.AllocationSet, error) {
	if len(selections) == 0 {
		return domain.AllocationSet{}, domain.ValidationError{
			Rule:   domain.RuleEmptySelection,
			Detail: "a split needs at least one receivable selection",
		}
	}

	keys := make([]string, 0, len(selections)+1)
	keys = append(keys, "movement:"+movementID)
	for _, sel := range selections {
		keys = append(keys, "receivable:"+sel.ReceivableID)
	}
	release := s.locks.Acquire(keys...)
	defer release()

	movement, err := s.movementRepo.GetByID(ctx, tenantID, movementID)
	if err != nil {
		return domain.AllocationSet{}, fmt.Errorf("load movement %q: %w", movementID, err)
	}
	if !movement.CanTransition(domain.MovementStatusAllocated) {
		return domain.AllocationSet{}, domain.ValidationError{
			Rule:   domain.RuleInvalidState,
			Detail: fmt.Sprintf("movement %s is %s and cannot be allocated", movementID, movement.Status),
		}
	}

	set, receivables, err := s.buildSet(ctx, tenantID, movement, selections)
	if err != nil {
		return domain.AllocationSet{}, err
	}

	movement.Status = domain.MovementStatusAllocated
	movement.Matched = true
	movement.MultiMatch = len(set.Allocations) > 1

	if err := s.allocationRepo.Apply(ctx, set, movement, receivables); err != nil {
		return domain.AllocationSet{}, fmt.Errorf("apply allocation set for movement %q: %w", movementID, err)
	}

	logger.Info("split resolved", logger.Fields{
		"tenantId":    tenantID,
		"movementId":  movementID,
		"allocations": len(set.Allocations),
		"total":       set.Total().StringFixed(2),
	})
	return set, nil
}

// buildSet validates each selection against its receivable and the movement
// total, returning the allocation set and the updated receivable rows.
func (s *SplitService) buildSet(ctx context.Context, tenantID string, movement domain.BankMovement, selections []service_interfaces.Selection) (domain.AllocationSet, []domain.Receivable, error) {
	set := domain.AllocationSet{
		MovementID: movement.ID,
		TenantID:   tenantID,
	}

	seen := make(map[string]struct{}, len(selections))
	updated := make([]domain.Receivable, 0, len(selections))
	sum := decimal.Zero

	for _, sel := range selections {
		if !sel.Amount.IsPositive() {
			return domain.AllocationSet{}, nil, domain.ValidationError{
				Rule:         domain.RuleInvalidAmount,
				Detail:       fmt.Sprintf("allocation amount %s for receivable %s must be positive", sel.Amount.StringFixed(2), sel.ReceivableID),
				ReceivableID: sel.ReceivableID,
			}
		}
		if _, dup := seen[sel.ReceivableID]; dup {
			return domain.AllocationSet{}, nil, domain.ValidationError{
				Rule:         domain.RuleInvalidAmount,
				Detail:       fmt.Sprintf("receivable %s selected more than once", sel.ReceivableID),
				ReceivableID: sel.ReceivableID,
			}
		}
		seen[sel.ReceivableID] = struct{}{}

		receivable, err := s.receivableRepo.GetByID(ctx, tenantID, sel.ReceivableID)
		if err != nil {
			return domain.AllocationSet{}, nil, fmt.Errorf("load receivable %q: %w", sel.ReceivableID, err)
		}

		// Only live receivables can take money. Cancelled and settled ones
		// stay out even when a stale balance would otherwise admit them.
		if receivable.Status != domain.ReceivableStatusPending && receivable.Status != domain.ReceivableStatusPartial {
			return domain.AllocationSet{}, nil, domain.ValidationError{
				Rule:         domain.RuleInvalidState,
				Detail:       fmt.Sprintf("receivable %s is %s and cannot receive allocations", sel.ReceivableID, receivable.Status),
				ReceivableID: sel.ReceivableID,
			}
		}

		outstanding := receivable.Outstanding()
		if sel.Amount.GreaterThan(outstanding) {
			return domain.AllocationSet{}, nil, domain.ValidationError{
				Rule:         domain.RuleOverAllocation,
				Detail:       fmt.Sprintf("allocation %s exceeds outstanding %s on receivable %s", sel.Amount.StringFixed(2), outstanding.StringFixed(2), sel.ReceivableID),
				Difference:   sel.Amount.Sub(outstanding),
				ReceivableID: sel.ReceivableID,
			}
		}

		receivable.PaidAmount = receivable.PaidAmount.Add(sel.Amount)
		if receivable.Outstanding().IsZero() {
			receivable.Status = domain.ReceivableStatusPaid
			paidOn := movement.ValueDate
			receivable.PaymentDate = &paidOn
		} else {
			receivable.Status = domain.ReceivableStatusPartial
		}
		updated = append(updated, receivable)

		set.Allocations = append(set.Allocations, domain.Allocation{
			ID:           uuid.NewString(),
			TenantID:     tenantID,
			MovementID:   movement.ID,
			ReceivableID: sel.ReceivableID,
			Amount:       sel.Amount,
		})
		sum = sum.Add(sel.Amount)
	}

	difference := sum.Sub(movement.Amount.Abs())
	if difference.Abs().GreaterThan(s.tolerance) {
		return domain.AllocationSet{}, nil, domain.ValidationError{
			Rule:       domain.RuleSumMismatch,
			Detail:     fmt.Sprintf("selections sum to %s but movement amount is %s", sum.StringFixed(2), movement.Amount.Abs().StringFixed(2)),
			Difference: difference,
		}
	}

	return set, updated, nil
}

// ResolveSettlementDay resolves many movements against receivables that all
// settle on the same date, the boleto-lot scenario. Selections may only
// reference receivables due that day; movements resolve in ID order so a
// retry replays identically.
func (s *SplitService) ResolveSettlementDay(ctx context.Context, tenantID string, day time.Time, selections map[string][]service_interfaces.Selection) ([]domain.AllocationSet, error) {
	if len(selections) == 0 {
		return nil, domain.ValidationError{
			Rule:   domain.RuleEmptySelection,
			Detail: "a settlement batch needs at least one movement",
		}
	}

	dueThatDay, err := s.receivableRepo.ListOpenByDueDate(ctx, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("load receivables due on %s: %w", day.Format("2006-01-02"), err)
	}
	allowed := make(map[string]struct{}, len(dueThatDay))
	for _, r := range dueThatDay {
		allowed[r.ID] = struct{}{}
	}

	movementIDs := make([]string, 0, len(selections))
	for movementID := range selections {
		movementIDs = append(movementIDs, movementID)
	}
	sort.Strings(movementIDs)

	for _, movementID := range movementIDs {
		for _, sel := range selections[movementID] {
			if _, ok := allowed[sel.ReceivableID]; !ok {
				return nil, domain.ValidationError{
					Rule:         domain.RuleInvalidState,
					Detail:       fmt.Sprintf("receivable %s is not open with due date %s", sel.ReceivableID, day.Format("2006-01-02")),
					ReceivableID: sel.ReceivableID,
				}
			}
		}
	}

	sets := make([]domain.AllocationSet, 0, len(movementIDs))
	for _, movementID := range movementIDs {
		set, err := s.Resolve(ctx, tenantID, movementID, selections[movementID])
		if err != nil {
			return sets, fmt.Errorf("settlement day %s, movement %q: %w", day.Format("2006-01-02"), movementID, err)
		}
		sets = append(sets, set)
	}

	logger.Info("settlement day resolved", logger.Fields{
		"tenantId":  tenantID,
		"day":       day.Format("2006-01-02"),
		"movements": len(sets),
	})
	return sets, nil
}
