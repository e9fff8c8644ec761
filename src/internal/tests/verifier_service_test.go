package services_test

import (
	"context"
	"testing"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checksIn(discrepancies []domain.Discrepancy) map[string]int {
	out := make(map[string]int)
	for _, d := range discrepancies {
		out[d.Check]++
	}
	return out
}

func TestVerifyBalancedBooks(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)

	report, err := f.verifier.Verify(context.Background(), testTenant, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Empty(t, report.Discrepancies)
}

func TestVerifyFlagsSyntheticPosting(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)

	// A line written straight against a synthetic account, bypassing the
	// posting engine.
	entryID := uuid.NewString()
	f.ledger.InsertRawEntry(domain.LedgerEntry{
		ID:            entryID,
		TenantID:      testTenant,
		EntryDate:     date(2026, 2, 25),
		EntryType:     domain.EntryTypeManualAdjustment,
		ReferenceType: "manual_adjustment",
		ReferenceID:   uuid.NewString(),
		Lines: []domain.LedgerLine{
			{EntryID: entryID, AccountCode: "1.1", Debit: mustDecimal(t, "250.00"), Credit: decimal.Zero},
			{EntryID: entryID, AccountCode: services.AccountFeeRevenue, Debit: decimal.Zero, Credit: mustDecimal(t, "250.00")},
		},
	})

	report, err := f.verifier.Verify(context.Background(), testTenant, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)
	assert.False(t, report.Balanced)

	checks := checksIn(report.Discrepancies)
	assert.NotZero(t, checks[domain.CheckSyntheticPosting])
	// The synthetic side is invisible to the analytical sweep, so the
	// trial balance columns disagree too.
	assert.NotZero(t, checks[domain.CheckTrialBalance])
}

func TestVerifyFlagsPostedMovementWithoutEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "700.00", date(2026, 2, 10), "TED")
	movement.Status = domain.MovementStatusPosted
	movement.Matched = true
	_, err := f.movements.Update(ctx, movement)
	require.NoError(t, err)

	report, err := f.verifier.Verify(ctx, testTenant, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)

	checks := checksIn(report.Discrepancies)
	assert.Equal(t, 1, checks[domain.CheckMovementLinkage])
}

func TestVerifyFlagsEntryWithoutMatchedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "700.00", date(2026, 2, 10), "TED")
	entryID := uuid.NewString()
	f.ledger.InsertRawEntry(domain.LedgerEntry{
		ID:            entryID,
		TenantID:      testTenant,
		EntryDate:     date(2026, 2, 10),
		EntryType:     domain.EntryTypeReceivablePaid,
		ReferenceType: "bank_movement",
		ReferenceID:   movement.ID,
		Lines: []domain.LedgerLine{
			{EntryID: entryID, AccountCode: services.AccountBankDefault, Debit: mustDecimal(t, "700.00"), Credit: decimal.Zero},
			{EntryID: entryID, AccountCode: services.AccountReceivableDefault, Debit: decimal.Zero, Credit: mustDecimal(t, "700.00")},
		},
	})

	report, err := f.verifier.Verify(ctx, testTenant, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)

	checks := checksIn(report.Discrepancies)
	assert.Equal(t, 1, checks[domain.CheckMovementLinkage])
}

func TestClosePeriodRefusesUnresolvedDiscrepancies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "700.00", date(2026, 2, 10), "TED")
	movement.Status = domain.MovementStatusPosted
	_, err := f.movements.Update(ctx, movement)
	require.NoError(t, err)

	report, err := f.verifier.ClosePeriod(ctx, testTenant, date(2026, 2, 1), date(2026, 2, 28), "ana", false)
	require.Error(t, err)
	assert.False(t, report.Balanced)
	assert.Empty(t, f.audits.ListByAction(testTenant, domain.AuditForcedClose))
}

func TestClosePeriodForcedLeavesAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "700.00", date(2026, 2, 10), "TED")
	movement.Status = domain.MovementStatusPosted
	_, err := f.movements.Update(ctx, movement)
	require.NoError(t, err)

	report, err := f.verifier.ClosePeriod(ctx, testTenant, date(2026, 2, 1), date(2026, 2, 28), "ana", true)
	require.NoError(t, err)
	assert.False(t, report.Balanced)

	audits := f.audits.ListByAction(testTenant, domain.AuditForcedClose)
	require.Len(t, audits, 1)
	assert.Equal(t, "ana", audits[0].Actor)
	assert.Contains(t, audits[0].Payload, domain.CheckMovementLinkage)
}

func TestClosePeriodBalancedNeedsNoForce(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)

	report, err := f.verifier.ClosePeriod(context.Background(), testTenant, date(2026, 2, 1), date(2026, 2, 28), "ana", false)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Empty(t, f.audits.ListByAction(testTenant, domain.AuditForcedClose))
}

func TestVerifyEndToEndReconciliationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Issue, match, split, post, then verify the books balance.
	_, err := f.posting.Post(ctx, domain.ReceivableIssued{
		TenantID:     testTenant,
		ReceivableID: "rcv-1",
		PayerName:    "Acme Consultoria",
		Amount:       mustDecimal(t, "1500.00"),
		DueDate:      date(2026, 3, 10),
	})
	require.NoError(t, err)
	receivable := f.createReceivable(t, "rcv-1", "Acme Consultoria", "", "1500.00", date(2026, 3, 10))
	movement := f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 10), "PIX ACME CONSULTORIA")

	candidates, err := f.matching.ProposeForMovement(ctx, testTenant, movement.ID, false)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, receivable.ID, candidates[0].ReceivableID)

	_, err = f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "1500.00")},
	})
	require.NoError(t, err)

	_, err = f.posting.PostMovement(ctx, testTenant, movement.ID)
	require.NoError(t, err)

	report, err := f.verifier.Verify(ctx, testTenant, date(2026, 3, 1), date(2026, 3, 31))
	require.NoError(t, err)
	assert.True(t, report.Balanced, "discrepancies: %v", report.Discrepancies)
}
