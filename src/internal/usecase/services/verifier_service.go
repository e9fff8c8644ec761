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
	"golang.org/x/sync/errgroup"
)

// VerifierService cross-checks the ledger against itself and against the
// movement flags. Findings come back as discrepancies with magnitudes; an
// error means a check could not run, never that the books are off.
type VerifierService struct {
	aggregator   service_interfaces.AggregatorService
	registry     service_interfaces.RegistryService
	ledgerRepo   repo_interfaces.LedgerRepository
	movementRepo repo_interfaces.MovementRepository
	auditRepo    repo_interfaces.AuditRepository
	tolerance    decimal.Decimal
}

func NewVerifierService(
	aggregator service_interfaces.AggregatorService,
	registry service_interfaces.RegistryService,
	ledgerRepo repo_interfaces.LedgerRepository,
	movementRepo repo_interfaces.MovementRepository,
	auditRepo repo_interfaces.AuditRepository,
	tolerance decimal.Decimal,
) *VerifierService {
	return &VerifierService{
		aggregator:   aggregator,
		registry:     registry,
		ledgerRepo:   ledgerRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		tolerance:    tolerance,
	}
}

func (s *VerifierService) Verify(ctx context.Context, tenantID string, from, to time.Time) (service_interfaces.VerificationReport, error) {
	checks := []func(context.Context, string, time.Time, time.Time) ([]domain.Discrepancy, error){
		s.checkTrialBalance,
		s.checkCashFlow,
		s.checkMovementLinkage,
		s.checkSyntheticPostings,
	}

	results := make([][]domain.Discrepancy, len(checks))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(2)
	for i, check := range checks {
		i, check := i, check
		group.Go(func() error {
			found, err := check(groupCtx, tenantID, from, to)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return service_interfaces.VerificationReport{}, fmt.Errorf("verification: %w", err)
	}

	var discrepancies []domain.Discrepancy
	for _, found := range results {
		discrepancies = append(discrepancies, found...)
	}

	report := service_interfaces.VerificationReport{
		Balanced:      len(discrepancies) == 0,
		Discrepancies: discrepancies,
	}
	logger.Info("verification finished", logger.Fields{
		"tenantId":      tenantID,
		"from":          from.Format("2006-01-02"),
		"to":            to.Format("2006-01-02"),
		"balanced":      report.Balanced,
		"discrepancies": len(discrepancies),
	})
	return report, nil
}

// checkTrialBalance asserts the debit and credit columns agree at opening,
// over the period, and at closing.
func (s *VerifierService) checkTrialBalance(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Discrepancy, error) {
	tb, err := s.aggregator.TrialBalance(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	var found []domain.Discrepancy
	columns := []struct {
		label  string
		debit  decimal.Decimal
		credit decimal.Decimal
	}{
		{"opening", tb.OpeningDebit, tb.OpeningCredit},
		{"movement", tb.MovementDebit, tb.MovementCredit},
		{"closing", tb.ClosingDebit, tb.ClosingCredit},
	}
	for _, col := range columns {
		diff := col.debit.Sub(col.credit)
		if diff.Abs().GreaterThan(s.tolerance) {
			found = append(found, domain.Discrepancy{
				Check:  domain.CheckTrialBalance,
				Amount: diff,
				Detail: fmt.Sprintf("%s debit column %s != credit column %s", col.label, col.debit.StringFixed(2), col.credit.StringFixed(2)),
			})
		}
	}
	return found, nil
}

// checkCashFlow asserts the indirect-method net change explains the cash
// accounts' balance movement.
func (s *VerifierService) checkCashFlow(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Discrepancy, error) {
	cf, err := s.aggregator.CashFlow(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	expected := cf.CashOpening.Add(cf.NetChange)
	diff := cf.CashClosing.Sub(expected)
	if diff.Abs().LessThanOrEqual(s.tolerance) {
		return nil, nil
	}
	return []domain.Discrepancy{{
		Check:  domain.CheckCashFlow,
		Amount: diff,
		Detail: fmt.Sprintf("cash closing %s != opening %s + net change %s", cf.CashClosing.StringFixed(2), cf.CashOpening.StringFixed(2), cf.NetChange.StringFixed(2)),
	}}, nil
}

// checkMovementLinkage cross-checks movement flags against posted entries
// in both directions: a posted movement must have its entry, and a movement
// whose entry exists must carry the matched flag.
func (s *VerifierService) checkMovementLinkage(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Discrepancy, error) {
	movements, err := s.movementRepo.ListBetween(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	var found []domain.Discrepancy
	for _, movement := range movements {
		_, err := s.ledgerRepo.FindByReference(ctx, tenantID, "bank_movement", movement.ID)
		entryExists := err == nil
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err
		}

		switch {
		case movement.Status == domain.MovementStatusPosted && !entryExists:
			found = append(found, domain.Discrepancy{
				Check:  domain.CheckMovementLinkage,
				Amount: movement.Amount,
				Detail: fmt.Sprintf("movement %s is posted but has no ledger entry", movement.ID),
			})
		case entryExists && !movement.Matched:
			found = append(found, domain.Discrepancy{
				Check:  domain.CheckMovementLinkage,
				Amount: movement.Amount,
				Detail: fmt.Sprintf("movement %s has a ledger entry but is not flagged matched", movement.ID),
			})
		}
	}
	return found, nil
}

// checkSyntheticPostings scans the period's posted accounts for lines that
// landed on synthetic or unknown accounts.
func (s *VerifierService) checkSyntheticPostings(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Discrepancy, error) {
	totals, err := s.ledgerRepo.SumBetween(ctx, tenantID, "", from, to)
	if err != nil {
		return nil, err
	}

	var found []domain.Discrepancy
	for code, sums := range totals {
		account, err := s.registry.Resolve(ctx, tenantID, code)
		if errors.Is(err, domain.ErrRecordNotFound) {
			found = append(found, domain.Discrepancy{
				Check:       domain.CheckSyntheticPosting,
				AccountCode: code,
				Amount:      sums.Debit.Add(sums.Credit),
				Detail:      "lines posted against an account missing from the chart",
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		if !account.IsAnalytical {
			found = append(found, domain.Discrepancy{
				Check:       domain.CheckSyntheticPosting,
				AccountCode: code,
				Amount:      sums.Debit.Add(sums.Credit),
				Detail:      "lines posted against a synthetic account",
			})
		}
	}
	return found, nil
}

// ClosePeriod verifies the period and refuses to close it while findings
// remain, unless forced. A forced close leaves an audit record carrying the
// overridden findings.
func (s *VerifierService) ClosePeriod(ctx context.Context, tenantID string, from, to time.Time, actor string, force bool) (service_interfaces.VerificationReport, error) {
	report, err := s.Verify(ctx, tenantID, from, to)
	if err != nil {
		return service_interfaces.VerificationReport{}, err
	}

	if report.Balanced {
		logger.Info("period closed", logger.Fields{
			"tenantId": tenantID,
			"from":     from.Format("2006-01-02"),
			"to":       to.Format("2006-01-02"),
			"actor":    actor,
		})
		return report, nil
	}

	if !force {
		return report, fmt.Errorf("period close refused: %d unresolved discrepancies", len(report.Discrepancies))
	}

	payload, err := json.Marshal(report.Discrepancies)
	if err != nil {
		payload = []byte(`{"error":"snapshot unavailable"}`)
	}
	if _, err := s.auditRepo.Record(ctx, domain.AuditEvent{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Action:   domain.AuditForcedClose,
		Actor:    actor,
		Payload:  string(payload),
	}); err != nil {
		return report, fmt.Errorf("record forced close: %w", err)
	}

	logger.Info("period closed with discrepancies", logger.Fields{
		"tenantId":      tenantID,
		"from":          from.Format("2006-01-02"),
		"to":            to.Format("2006-01-02"),
		"actor":         actor,
		"discrepancies": len(report.Discrepancies),
	})
	return report, nil
}
