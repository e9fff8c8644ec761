package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// cashAccountPrefix roots the analytical accounts treated as cash for the
// cash-flow statement.
const cashAccountPrefix = "1.1.1"

// AggregatorService derives balances from ledger lines. It never stores a
// balance: every figure is recomputed from the lines on demand, so the
// ledger stays the single source of truth.
type AggregatorService struct {
	registry   service_interfaces.RegistryService
	ledgerRepo repo_interfaces.LedgerRepository
}

func NewAggregatorService(registry service_interfaces.RegistryService, ledgerRepo repo_interfaces.LedgerRepository) *AggregatorService {
	return &AggregatorService{registry: registry, ledgerRepo: ledgerRepo}
}

// accountSweep pairs an account with its raw sums: openingRaw is
// Σ(debit−credit) strictly before the period, the period sums are within it.
type accountSweep struct {
	account      domain.Account
	openingRaw   decimal.Decimal
	periodDebit  decimal.Decimal
	periodCredit decimal.Decimal
}

func (s accountSweep) closingRaw() decimal.Decimal {
	return s.openingRaw.Add(s.periodDebit).Sub(s.periodCredit)
}

// natureAdjusted flips the sign of a raw (debit−credit) figure for
// credit-nature accounts, so a liability in credit shows positive.
func natureAdjusted(account domain.Account, raw decimal.Decimal) decimal.Decimal {
	if account.Nature == domain.NatureCredit {
		return raw.Neg()
	}
	return raw
}

// sweep loads the raw sums for every analytical account under prefix. The
// two window queries run concurrently.
func (s *AggregatorService) sweep(ctx context.Context, tenantID, prefix string, from, to time.Time) ([]accountSweep, error) {
	accounts, err := s.registry.ListAccounts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var before, between map[string]repo_interfaces.AccountTotals
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		before, err = s.ledgerRepo.SumBefore(groupCtx, tenantID, prefix, from)
		return err
	})
	group.Go(func() error {
		var err error
		between, err = s.ledgerRepo.SumBetween(groupCtx, tenantID, prefix, from, to)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("sum ledger lines: %w", err)
	}

	var sweeps []accountSweep
	for _, account := range accounts {
		if !account.IsAnalytical {
			continue
		}
		if prefix != "" && !domain.IsDescendantOf(account.Code, prefix) {
			continue
		}

		row := accountSweep{
			account:      account,
			openingRaw:   decimal.Zero,
			periodDebit:  decimal.Zero,
			periodCredit: decimal.Zero,
		}
		if totals, ok := before[account.Code]; ok {
			row.openingRaw = totals.Debit.Sub(totals.Credit)
		}
		if totals, ok := between[account.Code]; ok {
			row.periodDebit = totals.Debit
			row.periodCredit = totals.Credit
		}
		sweeps = append(sweeps, row)
	}

	sort.Slice(sweeps, func(i, j int) bool {
		return sweeps[i].account.Code < sweeps[j].account.Code
	})
	return sweeps, nil
}

func (s *AggregatorService) Balances(ctx context.Context, tenantID, codeOrPrefix string, from, to time.Time) ([]service_interfaces.AccountBalance, error) {
	sweeps, err := s.sweep(ctx, tenantID, codeOrPrefix, from, to)
	if err != nil {
		return nil, err
	}

	balances := make([]service_interfaces.AccountBalance, 0, len(sweeps))
	for _, row := range sweeps {
		balances = append(balances, service_interfaces.AccountBalance{
			Account:      row.account,
			Opening:      natureAdjusted(row.account, row.openingRaw),
			PeriodDebit:  row.periodDebit,
			PeriodCredit: row.periodCredit,
			Closing:      natureAdjusted(row.account, row.closingRaw()),
		})
	}
	return balances, nil
}

// RolledUp aggregates a synthetic account from its analytical descendants,
// through the same sweep the single-account path uses.
func (s *AggregatorService) RolledUp(ctx context.Context, tenantID, syntheticCode string, from, to time.Time) (service_interfaces.AccountBalance, error) {
	synthetic, err := s.registry.Resolve(ctx, tenantID, syntheticCode)
	if err != nil {
		return service_interfaces.AccountBalance{}, fmt.Errorf("resolve account %q: %w", syntheticCode, err)
	}

	sweeps, err := s.sweep(ctx, tenantID, syntheticCode, from, to)
	if err != nil {
		return service_interfaces.AccountBalance{}, err
	}

	total := service_interfaces.AccountBalance{
		Account:      synthetic,
		Opening:      decimal.Zero,
		PeriodDebit:  decimal.Zero,
		PeriodCredit: decimal.Zero,
		Closing:      decimal.Zero,
	}
	for _, row := range sweeps {
		total.Opening = total.Opening.Add(natureAdjusted(synthetic, row.openingRaw))
		total.PeriodDebit = total.PeriodDebit.Add(row.periodDebit)
		total.PeriodCredit = total.PeriodCredit.Add(row.periodCredit)
		total.Closing = total.Closing.Add(natureAdjusted(synthetic, row.closingRaw()))
	}
	return total, nil
}

// TrialBalance sweeps every analytical account and lays raw balances out in
// debit/credit columns. Column subtotals bucket each account by the sign of
// its raw balance, not its registered nature, so an account driven past zero
// reports in the opposite column. On balanced books each column pair is
// equal either way.
func (s *AggregatorService) TrialBalance(ctx context.Context, tenantID string, from, to time.Time) (service_interfaces.TrialBalance, error) {
	sweeps, err := s.sweep(ctx, tenantID, "", from, to)
	if err != nil {
		return service_interfaces.TrialBalance{}, err
	}

	tb := service_interfaces.TrialBalance{
		OpeningDebit:   decimal.Zero,
		OpeningCredit:  decimal.Zero,
		MovementDebit:  decimal.Zero,
		MovementCredit: decimal.Zero,
		ClosingDebit:   decimal.Zero,
		ClosingCredit:  decimal.Zero,
	}
	for _, row := range sweeps {
		tb.Rows = append(tb.Rows, service_interfaces.AccountBalance{
			Account:      row.account,
			Opening:      natureAdjusted(row.account, row.openingRaw),
			PeriodDebit:  row.periodDebit,
			PeriodCredit: row.periodCredit,
			Closing:      natureAdjusted(row.account, row.closingRaw()),
		})

		if row.openingRaw.IsPositive() {
			tb.OpeningDebit = tb.OpeningDebit.Add(row.openingRaw)
		} else {
			tb.OpeningCredit = tb.OpeningCredit.Add(row.openingRaw.Neg())
		}
		tb.MovementDebit = tb.MovementDebit.Add(row.periodDebit)
		tb.MovementCredit = tb.MovementCredit.Add(row.periodCredit)
		if closing := row.closingRaw(); closing.IsPositive() {
			tb.ClosingDebit = tb.ClosingDebit.Add(closing)
		} else {
			tb.ClosingCredit = tb.ClosingCredit.Add(closing.Neg())
		}
	}
	return tb, nil
}

// CashFlow derives the period's cash change by the indirect method: each
// non-cash account's net movement contributes the opposite sign to cash,
// bucketed by where the account sits in the chart.
func (s *AggregatorService) CashFlow(ctx context.Context, tenantID string, from, to time.Time) (service_interfaces.CashFlowStatement, error) {
	sweeps, err := s.sweep(ctx, tenantID, "", from, to)
	if err != nil {
		return service_interfaces.CashFlowStatement{}, err
	}

	statement := service_interfaces.CashFlowStatement{
		OperatingTotal: decimal.Zero,
		InvestingTotal: decimal.Zero,
		FinancingTotal: decimal.Zero,
		NetChange:      decimal.Zero,
		CashOpening:    decimal.Zero,
		CashClosing:    decimal.Zero,
	}

	for _, row := range sweeps {
		if domain.IsDescendantOf(row.account.Code, cashAccountPrefix) {
			statement.CashOpening = statement.CashOpening.Add(row.openingRaw)
			statement.CashClosing = statement.CashClosing.Add(row.closingRaw())
			continue
		}

		net := row.periodDebit.Sub(row.periodCredit)
		if net.IsZero() {
			continue
		}

		contribution := net.Neg()
		bucket := bucketFor(row.account.Code)
		statement.Items = append(statement.Items, service_interfaces.CashFlowItem{
			Bucket:      bucket,
			AccountCode: row.account.Code,
			AccountName: row.account.Name,
			Amount:      contribution,
		})

		switch bucket {
		case service_interfaces.BucketInvesting:
			statement.InvestingTotal = statement.InvestingTotal.Add(contribution)
		case service_interfaces.BucketFinancing:
			statement.FinancingTotal = statement.FinancingTotal.Add(contribution)
		default:
			statement.OperatingTotal = statement.OperatingTotal.Add(contribution)
		}
		statement.NetChange = statement.NetChange.Add(contribution)
	}

	return statement, nil
}

// bucketFor classifies a non-cash account into a cash-flow bucket by its
// position in the chart: long-term assets are investing, long-term
// liabilities and equity are financing, everything else is operating.
func bucketFor(code string) service_interfaces.CashFlowBucket {
	switch {
	case domain.IsDescendantOf(code, "1.2"):
		return service_interfaces.BucketInvesting
	case domain.IsDescendantOf(code, "2.2"), domain.IsDescendantOf(code, "2.3"):
		return service_interfaces.BucketFinancing
	default:
		return service_interfaces.BucketOperating
	}
}
