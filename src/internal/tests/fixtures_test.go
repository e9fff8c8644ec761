package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/memory"
	"github.com/ampla-fin/recon-ledger/src/internal/config"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testTenant = "tenant-1"

// fixture wires every service over the in-memory repositories with the
// default chart seeded.
type fixture struct {
	accounts    *memory.AccountRepository
	ledger      *memory.LedgerRepository
	movements   *memory.MovementRepository
	receivables *memory.ReceivableRepository
	allocations *memory.AllocationRepository
	audits      *memory.AuditRepository

	registry   *services.RegistryService
	matching   *services.MatchingService
	split      *services.SplitService
	posting    *services.PostingService
	aggregator *services.AggregatorService
	verifier   *services.VerifierService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		accounts:    memory.NewAccountRepository(),
		ledger:      memory.NewLedgerRepository(),
		movements:   memory.NewMovementRepository(),
		receivables: memory.NewReceivableRepository(),
		audits:      memory.NewAuditRepository(),
	}
	f.allocations = memory.NewAllocationRepository(f.movements, f.receivables)

	tolerance := decimal.New(1, -2)
	locks := services.NewEntityLocks()

	f.registry = services.NewRegistryService(f.accounts)
	f.matching = services.NewMatchingService(services.MatchingConfig{
		AcceptanceFloor: 70,
		CloseThreshold:  75,
		ExactThreshold:  90,
	}, f.movements, f.receivables)
	f.split = services.NewSplitService(f.movements, f.receivables, f.allocations, tolerance, locks)
	f.posting = services.NewPostingService(f.registry, f.ledger, f.movements, f.receivables, f.allocations, f.audits, locks)
	f.aggregator = services.NewAggregatorService(f.registry, f.ledger)
	f.verifier = services.NewVerifierService(f.aggregator, f.registry, f.ledger, f.movements, f.audits, tolerance)

	_, err := f.registry.Seed(context.Background(), testTenant)
	require.NoError(t, err)
	return f
}

func (f *fixture) createMovement(t *testing.T, id string, amount string, valueDate time.Time, description string) domain.BankMovement {
	t.Helper()

	movement, err := f.movements.Create(context.Background(), domain.BankMovement{
		ID:          id,
		TenantID:    testTenant,
		ValueDate:   valueDate,
		Amount:      mustDecimal(t, amount),
		Description: description,
		ExternalRef: "ext-" + id,
		Status:      domain.MovementStatusUnmatched,
	})
	require.NoError(t, err)
	return movement
}

func (f *fixture) createReceivable(t *testing.T, id, payerName, payerDocument, amount string, dueDate time.Time) domain.Receivable {
	t.Helper()

	receivable, err := f.receivables.Create(context.Background(), domain.Receivable{
		ID:            id,
		TenantID:      testTenant,
		PayerID:       "payer-" + id,
		PayerName:     payerName,
		PayerDocument: payerDocument,
		Amount:        mustDecimal(t, amount),
		PaidAmount:    decimal.Zero,
		DueDate:       dueDate,
		Competence:    "03/2026",
		Status:        domain.ReceivableStatusPending,
	})
	require.NoError(t, err)
	return receivable
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()

	value, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return value
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func defaultMatchingConfig() services.MatchingConfig {
	cfg, _ := config.Load()
	return services.MatchingConfig{
		AcceptanceFloor: cfg.MatchAcceptanceFloor,
		CloseThreshold:  cfg.MatchCloseThreshold,
		ExactThreshold:  cfg.MatchExactThreshold,
	}
}
