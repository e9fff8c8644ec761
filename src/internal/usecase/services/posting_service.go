package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Well-known analytical accounts of the default chart. Events that do not
// carry an explicit account fall back to these.
const (
	AccountBankDefault       = "1.1.1.01"
	AccountReceivableDefault = "1.1.2.01"
	AccountSuppliersPayable  = "2.1.1.01"
	AccountOpeningBalance    = "2.3.1.01"
	AccountFeeRevenue        = "3.1.1.01"
	AccountExpenseFallback   = "4.1.2.99"
)

// expenseCategoryAccounts maps an expense category label to its analytical
// account. Unknown categories land on the catch-all administrative account.
var expenseCategoryAccounts = map[string]string{
	"salaries":  "4.1.1.01",
	"rent":      "4.1.2.01",
	"bank_fees": "4.1.3.02",
}

const orphanCleanupMaxPasses = 10

// PostingService is the only writer of ledger entries. Every entry it emits
// is balanced, references analytical accounts only, and is keyed by its
// source event so replays are no-ops.
type PostingService struct {
	registry       service_interfaces.RegistryService
	ledgerRepo     repo_interfaces.LedgerRepository
	movementRepo   repo_interfaces.MovementRepository
	receivableRepo repo_interfaces.ReceivableRepository
	allocationRepo repo_interfaces.AllocationRepository
	auditRepo      repo_interfaces.AuditRepository
	locks          *EntityLocks
}

func NewPostingService(
	registry service_interfaces.RegistryService,
	ledgerRepo repo_interfaces.LedgerRepository,
	movementRepo repo_interfaces.MovementRepository,
	receivableRepo repo_interfaces.ReceivableRepository,
	allocationRepo repo_interfaces.AllocationRepository,
	auditRepo repo_interfaces.AuditRepository,
	locks *EntityLocks,
) *PostingService {
	return &PostingService{
		registry:       registry,
		ledgerRepo:     ledgerRepo,
		movementRepo:   movementRepo,
		receivableRepo: receivableRepo,
		allocationRepo: allocationRepo,
		auditRepo:      auditRepo,
		locks:          locks,
	}
}

// PostMovement rebuilds the payment event for an already-allocated movement
// from its persisted allocation set, then posts it through the normal path.
func (s *PostingService) PostMovement(ctx context.Context, tenantID, movementID string) (domain.LedgerEntry, error) {
	movement, err := s.movementRepo.GetByID(ctx, tenantID, movementID)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("load movement %q: %w", movementID, err)
	}
	if movement.Status != domain.MovementStatusAllocated && movement.Status != domain.MovementStatusPosted {
		return domain.LedgerEntry{}, domain.ValidationError{
			Rule:   domain.RuleInvalidState,
			Detail: fmt.Sprintf("movement %s is %s, only allocated movements can be posted", movementID, movement.Status),
		}
	}

	allocations, err := s.allocationRepo.ListForMovement(ctx, tenantID, movementID)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("load allocations for movement %q: %w", movementID, err)
	}
	if len(allocations) == 0 {
		return domain.LedgerEntry{}, domain.ValidationError{
			Rule:   domain.RuleEmptySelection,
			Detail: fmt.Sprintf("movement %s has no allocation set", movementID),
		}
	}

	set := domain.AllocationSet{MovementID: movementID, TenantID: tenantID, Allocations: allocations}
	receivables := make(map[string]domain.Receivable, len(allocations))
	for _, allocation := range allocations {
		receivable, err := s.receivableRepo.GetByID(ctx, tenantID, allocation.ReceivableID)
		if err != nil {
			return domain.LedgerEntry{}, fmt.Errorf("load receivable %q: %w", allocation.ReceivableID, err)
		}
		receivables[receivable.ID] = receivable
	}

	return s.Post(ctx, domain.ReceivablePaid{
		TenantID:        tenantID,
		Movement:        movement,
		Set:             set,
		Receivables:     receivables,
		PaymentDate:     movement.ValueDate,
		BankAccountCode: movement.BankAccountCode,
	})
}

func (s *PostingService) Post(ctx context.Context, event domain.SourceEvent) (domain.LedgerEntry, error) {
	refType, refID := event.Reference()
	tenantID := event.Tenant()

	release := s.locks.Acquire(refType + ":" + refID)
	defer release()

	if existing, err := s.ledgerRepo.FindByReference(ctx, tenantID, refType, refID); err == nil {
		logger.Info("posting skipped, reference already posted", logger.Fields{
			"tenantId":      tenantID,
			"referenceType": refType,
			"referenceId":   refID,
			"entryId":       existing.ID,
		})
		return existing, nil
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return domain.LedgerEntry{}, domain.PostingError{Stage: "idempotency lookup", Err: err}
	}

	entry, err := s.buildEntry(event)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if err := s.validateEntry(ctx, entry); err != nil {
		return domain.LedgerEntry{}, err
	}

	created, err := s.ledgerRepo.CreateEntry(ctx, entry)
	if err != nil {
		// A racing post may have landed first; the unique reference index
		// rejects the second write. Surface the winner instead of failing.
		if existing, lookupErr := s.ledgerRepo.FindByReference(ctx, tenantID, refType, refID); lookupErr == nil {
			return existing, nil
		}
		return domain.LedgerEntry{}, domain.PostingError{Stage: "entry write", Err: err}
	}

	// Movement-backed entries flip the movement to Posted only after the
	// entry is durable; a failed write leaves it Allocated.
	if paid, ok := event.(domain.ReceivablePaid); ok {
		movement := paid.Movement
		movement.Status = domain.MovementStatusPosted
		movement.Matched = true
		if _, err := s.movementRepo.Update(ctx, movement); err != nil {
			logger.Error("movement status update after post failed", err, logger.Fields{
				"tenantId":   tenantID,
				"movementId": movement.ID,
				"entryId":    created.ID,
			})
		}
	}

	logger.Info("ledger entry posted", logger.Fields{
		"tenantId":  tenantID,
		"entryId":   created.ID,
		"entryType": string(created.EntryType),
		"lines":     len(created.Lines),
		"total":     created.TotalDebit().StringFixed(2),
	})
	return created, nil
}

// buildEntry is the fixed event-to-lines mapping. Adding an event variant
// means adding a case here; the default branch guards against silent drops.
func (s *PostingService) buildEntry(event domain.SourceEvent) (domain.LedgerEntry, error) {
	refType, refID := event.Reference()
	entry := domain.LedgerEntry{
		ID:            uuid.NewString(),
		TenantID:      event.Tenant(),
		EntryType:     event.EntryType(),
		ReferenceType: refType,
		ReferenceID:   refID,
	}

	switch e := event.(type) {
	case domain.ReceivableIssued:
		receivableAccount := fallback(e.PayerAccountCode, AccountReceivableDefault)
		entry.EntryDate = e.DueDate
		entry.Description = fallback(e.Description, fmt.Sprintf("Honorários %s - %s", e.Competence, e.PayerName))
		entry.Lines = []domain.LedgerLine{
			debitLine(entry.ID, receivableAccount, e.Amount, e.PayerName),
			creditLine(entry.ID, AccountFeeRevenue, e.Amount, entry.Description),
		}

	case domain.ReceivablePaid:
		bankAccount := fallback(e.BankAccountCode, AccountBankDefault)
		entry.EntryDate = e.PaymentDate
		entry.Description = fmt.Sprintf("Recebimento %s", e.Movement.Description)
		entry.Lines = []domain.LedgerLine{
			debitLine(entry.ID, bankAccount, e.Set.Total(), entry.Description),
		}
		for _, allocation := range e.Set.Allocations {
			receivable, ok := e.Receivables[allocation.ReceivableID]
			if !ok {
				return domain.LedgerEntry{}, domain.PostingError{
					Stage: "line construction",
					Err:   fmt.Errorf("allocation references unknown receivable %q", allocation.ReceivableID),
				}
			}
			account := fallback(receivable.PayerAccountCode, AccountReceivableDefault)
			entry.Lines = append(entry.Lines, creditLine(entry.ID, account, allocation.Amount, "Baixa "+receivable.PayerName))
		}

	case domain.ExpenseIncurred:
		expenseAccount, ok := expenseCategoryAccounts[e.Category]
		if !ok {
			expenseAccount = AccountExpenseFallback
		}
		entry.EntryDate = e.ExpenseDate
		entry.Description = fallback(e.Description, "Despesa "+e.Category)
		entry.Lines = []domain.LedgerLine{
			debitLine(entry.ID, expenseAccount, e.Amount, entry.Description),
			creditLine(entry.ID, AccountSuppliersPayable, e.Amount, entry.Description),
		}

	case domain.OpeningBalanceEstablished:
		receivableAccount := fallback(e.PayerAccountCode, AccountReceivableDefault)
		entry.EntryDate = e.Date
		entry.Description = fmt.Sprintf("Saldo de abertura %s - %s", e.Competence, e.PayerName)
		entry.Lines = []domain.LedgerLine{
			debitLine(entry.ID, receivableAccount, e.Amount, entry.Description),
			creditLine(entry.ID, AccountOpeningBalance, e.Amount, entry.Description),
		}

	case domain.ManualAdjustment:
		entry.EntryDate = e.Date
		entry.Description = fallback(e.Description, "Ajuste manual")
		entry.Lines = []domain.LedgerLine{
			debitLine(entry.ID, e.DebitAccountCode, e.Amount, entry.Description),
			creditLine(entry.ID, e.CreditAccountCode, e.Amount, entry.Description),
		}

	default:
		return domain.LedgerEntry{}, domain.PostingError{
			Stage: "line construction",
			Err:   fmt.Errorf("unhandled source event type %T", event),
		}
	}

	return entry, nil
}

// validateEntry enforces the entry-level posting laws before anything is
// written: at least two lines, debit XOR credit per line, exact balance,
// and every account analytical.
func (s *PostingService) validateEntry(ctx context.Context, entry domain.LedgerEntry) error {
	if len(entry.Lines) < 2 {
		return domain.ValidationError{
			Rule:   domain.RuleInvalidAmount,
			Detail: fmt.Sprintf("entry has %d lines, need at least 2", len(entry.Lines)),
		}
	}

	for _, line := range entry.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return domain.ValidationError{
				Rule:   domain.RuleInvalidAmount,
				Detail: fmt.Sprintf("line on %s carries a negative amount", line.AccountCode),
			}
		}
		if line.Debit.IsZero() == line.Credit.IsZero() {
			return domain.ValidationError{
				Rule:   domain.RuleInvalidAmount,
				Detail: fmt.Sprintf("line on %s must have exactly one of debit/credit set", line.AccountCode),
			}
		}

		account, err := s.registry.Resolve(ctx, entry.TenantID, line.AccountCode)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.InvalidAccountError{Code: line.AccountCode, Reason: "account does not exist"}
			}
			return domain.PostingError{Stage: "account resolution", Err: err}
		}
		if !account.IsAnalytical {
			return domain.InvalidAccountError{Code: line.AccountCode, Reason: "synthetic accounts cannot receive postings"}
		}
	}

	if !entry.Balanced() {
		return domain.PostingError{
			Stage: "balance check",
			Err: fmt.Errorf("debits %s != credits %s",
				entry.TotalDebit().StringFixed(2), entry.TotalCredit().StringFixed(2)),
		}
	}
	return nil
}

// Reverse posts the mirror of an existing entry. The reversal references
// the original entry ID, so reversing twice returns the first reversal.
func (s *PostingService) Reverse(ctx context.Context, tenantID, entryID, actor string) (domain.LedgerEntry, error) {
	original, err := s.ledgerRepo.GetEntry(ctx, tenantID, entryID)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("load entry %q: %w", entryID, err)
	}

	release := s.locks.Acquire("reversal:" + entryID)
	defer release()

	if existing, err := s.ledgerRepo.FindByReference(ctx, tenantID, "reversal", entryID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return domain.LedgerEntry{}, domain.PostingError{Stage: "idempotency lookup", Err: err}
	}

	reversal := domain.LedgerEntry{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		EntryDate:     time.Now().UTC(),
		Description:   "Estorno: " + original.Description,
		EntryType:     domain.EntryTypeReversal,
		ReferenceType: "reversal",
		ReferenceID:   original.ID,
	}
	for _, line := range original.Lines {
		reversal.Lines = append(reversal.Lines, domain.LedgerLine{
			EntryID:     reversal.ID,
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: "Estorno: " + line.Description,
		})
	}

	if err := s.validateEntry(ctx, reversal); err != nil {
		return domain.LedgerEntry{}, err
	}

	created, err := s.ledgerRepo.CreateEntry(ctx, reversal)
	if err != nil {
		return domain.LedgerEntry{}, domain.PostingError{Stage: "entry write", Err: err}
	}

	s.recordAudit(ctx, tenantID, domain.AuditEntryReversed, original, actor)
	logger.Info("ledger entry reversed", logger.Fields{
		"tenantId":   tenantID,
		"entryId":    original.ID,
		"reversalId": created.ID,
		"actor":      actor,
	})
	return created, nil
}

// Delete removes the entry and its lines in one cascade, keeping a snapshot
// of the deleted entry in the audit trail.
func (s *PostingService) Delete(ctx context.Context, tenantID, entryID, actor string) error {
	entry, err := s.ledgerRepo.GetEntry(ctx, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("load entry %q: %w", entryID, err)
	}

	if err := s.ledgerRepo.DeleteEntry(ctx, tenantID, entryID); err != nil {
		return fmt.Errorf("delete entry %q: %w", entryID, err)
	}

	s.recordAudit(ctx, tenantID, domain.AuditEntryDeleted, entry, actor)
	logger.Info("ledger entry deleted", logger.Fields{
		"tenantId": tenantID,
		"entryId":  entryID,
		"actor":    actor,
	})
	return nil
}

// CleanupOrphans repeatedly scans for entries without lines and deletes
// them until a scan comes back empty, bounded so a persistent writer cannot
// keep the loop alive forever.
func (s *PostingService) CleanupOrphans(ctx context.Context, tenantID string) (int, error) {
	const batchSize = 100

	repaired := 0
	for pass := 0; pass < orphanCleanupMaxPasses; pass++ {
		orphans, err := s.ledgerRepo.ListOrphanEntries(ctx, tenantID, batchSize)
		if err != nil {
			return repaired, fmt.Errorf("scan orphan entries: %w", err)
		}
		if len(orphans) == 0 {
			return repaired, nil
		}

		for _, orphan := range orphans {
			logger.Info("orphan entry found", logger.Fields{
				"tenantId":  tenantID,
				"entryId":   orphan.ID,
				"entryType": string(orphan.EntryType),
			})
			if err := s.ledgerRepo.DeleteEntry(ctx, tenantID, orphan.ID); err != nil {
				return repaired, fmt.Errorf("delete orphan entry %q: %w", orphan.ID, err)
			}
			s.recordAudit(ctx, tenantID, domain.AuditOrphanRemoved, orphan, "system")
			repaired++
		}
	}

	logger.Info("orphan cleanup reached pass limit", logger.Fields{
		"tenantId": tenantID,
		"repaired": repaired,
	})
	return repaired, nil
}

func (s *PostingService) recordAudit(ctx context.Context, tenantID string, action domain.AuditAction, entry domain.LedgerEntry, actor string) {
	payload, err := json.Marshal(entry)
	if err != nil {
		payload = []byte(`{"error":"snapshot unavailable"}`)
	}

	if _, err := s.auditRepo.Record(ctx, domain.AuditEvent{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Action:   action,
		EntryID:  entry.ID,
		Actor:    actor,
		Payload:  string(payload),
	}); err != nil {
		logger.Error("audit record failed", err, logger.Fields{
			"tenantId": tenantID,
			"entryId":  entry.ID,
			"action":   string(action),
		})
	}
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func debitLine(entryID, accountCode string, amount decimal.Decimal, description string) domain.LedgerLine {
	return domain.LedgerLine{
		EntryID:     entryID,
		AccountCode: accountCode,
		Debit:       amount,
		Credit:      decimal.Zero,
		Description: description,
	}
}

func creditLine(entryID, accountCode string, amount decimal.Decimal, description string) domain.LedgerLine {
	return domain.LedgerLine{
		EntryID:     entryID,
		AccountCode: accountCode,
		Debit:       decimal.Zero,
		Credit:      amount,
		Description: description,
	}
}
