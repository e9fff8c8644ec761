package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostReceivableIssued(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.posting.Post(ctx, domain.ReceivableIssued{
		TenantID:     testTenant,
		ReceivableID: "rcv-1",
		PayerName:    "Acme Consultoria",
		Amount:       mustDecimal(t, "1200.00"),
		DueDate:      date(2026, 3, 10),
		Competence:   "03/2026",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EntryTypeReceivableIssued, entry.EntryType)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, services.AccountReceivableDefault, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Debit.Equal(mustDecimal(t, "1200.00")))
	assert.Equal(t, services.AccountFeeRevenue, entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].Credit.Equal(mustDecimal(t, "1200.00")))
	assert.True(t, entry.Balanced())
}

func TestPostIsIdempotentPerReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event := domain.ReceivableIssued{
		TenantID:     testTenant,
		ReceivableID: "rcv-1",
		PayerName:    "Acme",
		Amount:       mustDecimal(t, "1200.00"),
		DueDate:      date(2026, 3, 10),
	}

	first, err := f.posting.Post(ctx, event)
	require.NoError(t, err)
	second, err := f.posting.Post(ctx, event)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.ledger.EntryCount(testTenant))
}

func TestPostExpenseCategoryMapping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mapped, err := f.posting.Post(ctx, domain.ExpenseIncurred{
		TenantID:    testTenant,
		ExpenseID:   "exp-1",
		Category:    "bank_fees",
		Amount:      mustDecimal(t, "45.90"),
		ExpenseDate: date(2026, 3, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, "4.1.3.02", mapped.Lines[0].AccountCode)
	assert.Equal(t, services.AccountSuppliersPayable, mapped.Lines[1].AccountCode)

	unknown, err := f.posting.Post(ctx, domain.ExpenseIncurred{
		TenantID:    testTenant,
		ExpenseID:   "exp-2",
		Category:    "catering",
		Amount:      mustDecimal(t, "300.00"),
		ExpenseDate: date(2026, 3, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, services.AccountExpenseFallback, unknown.Lines[0].AccountCode)
}

func TestPostOpeningBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.posting.Post(ctx, domain.OpeningBalanceEstablished{
		TenantID:   testTenant,
		BalanceID:  "ob-1",
		PayerName:  "Acme",
		Amount:     mustDecimal(t, "500.00"),
		Date:       date(2026, 1, 15),
		Competence: "01/2026",
	})
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, services.AccountOpeningBalance, entry.Lines[1].AccountCode)
	assert.True(t, entry.Balanced())
}

func TestPostRejectsSyntheticAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posting.Post(ctx, domain.ManualAdjustment{
		TenantID:          testTenant,
		AdjustmentID:      "adj-1",
		DebitAccountCode:  "1.1",
		CreditAccountCode: services.AccountFeeRevenue,
		Amount:            mustDecimal(t, "100.00"),
		Date:              date(2026, 3, 1),
	})

	var accountErr domain.InvalidAccountError
	require.ErrorAs(t, err, &accountErr)
	assert.Equal(t, "1.1", accountErr.Code)
	assert.Equal(t, 0, f.ledger.EntryCount(testTenant))
}

func TestPostRejectsUnknownAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posting.Post(ctx, domain.ManualAdjustment{
		TenantID:          testTenant,
		AdjustmentID:      "adj-1",
		DebitAccountCode:  "9.9.9.99",
		CreditAccountCode: services.AccountFeeRevenue,
		Amount:            mustDecimal(t, "100.00"),
		Date:              date(2026, 3, 1),
	})

	var accountErr domain.InvalidAccountError
	require.ErrorAs(t, err, &accountErr)
	assert.Equal(t, "9.9.9.99", accountErr.Code)
}

func TestPostMovementAfterSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 12), "TED LOTE")
	first := f.createReceivable(t, "rcv-1", "Acme", "", "1000.00", date(2026, 3, 10))
	second := f.createReceivable(t, "rcv-2", "Bravo", "", "500.00", date(2026, 3, 10))

	_, err := f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: first.ID, Amount: mustDecimal(t, "1000.00")},
		{ReceivableID: second.ID, Amount: mustDecimal(t, "500.00")},
	})
	require.NoError(t, err)

	entry, err := f.posting.PostMovement(ctx, testTenant, movement.ID)
	require.NoError(t, err)

	// One bank debit plus one receivable credit per allocation.
	require.Len(t, entry.Lines, 3)
	assert.Equal(t, services.AccountBankDefault, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Debit.Equal(mustDecimal(t, "1500.00")))
	assert.True(t, entry.Balanced())

	stored, err := f.movements.GetByID(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStatusPosted, stored.Status)

	// Replaying the post returns the same entry.
	again, err := f.posting.PostMovement(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, again.ID)
	assert.Equal(t, 1, f.ledger.EntryCount(testTenant))
}

func TestPostMovementRequiresAllocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 12), "TED")

	_, err := f.posting.PostMovement(ctx, testTenant, "mov-1")

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleInvalidState, validationErr.Rule)
}

func TestReverseMirrorsEntryAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	original, err := f.posting.Post(ctx, domain.ReceivableIssued{
		TenantID:     testTenant,
		ReceivableID: "rcv-1",
		PayerName:    "Acme",
		Amount:       mustDecimal(t, "1200.00"),
		DueDate:      date(2026, 3, 10),
	})
	require.NoError(t, err)

	reversal, err := f.posting.Reverse(ctx, testTenant, original.ID, "ana")
	require.NoError(t, err)

	assert.Equal(t, domain.EntryTypeReversal, reversal.EntryType)
	require.Len(t, reversal.Lines, 2)
	assert.True(t, reversal.Lines[0].Credit.Equal(original.Lines[0].Debit))
	assert.True(t, reversal.Lines[1].Debit.Equal(original.Lines[1].Credit))
	assert.True(t, reversal.Balanced())

	audits := f.audits.ListByAction(testTenant, domain.AuditEntryReversed)
	require.Len(t, audits, 1)
	assert.Equal(t, original.ID, audits[0].EntryID)
	assert.Equal(t, "ana", audits[0].Actor)

	// Reversing again returns the existing reversal.
	again, err := f.posting.Reverse(ctx, testTenant, original.ID, "ana")
	require.NoError(t, err)
	assert.Equal(t, reversal.ID, again.ID)
}

func TestDeleteEntryKeepsAuditSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.posting.Post(ctx, domain.ReceivableIssued{
		TenantID:     testTenant,
		ReceivableID: "rcv-1",
		PayerName:    "Acme",
		Amount:       mustDecimal(t, "1200.00"),
		DueDate:      date(2026, 3, 10),
	})
	require.NoError(t, err)

	require.NoError(t, f.posting.Delete(ctx, testTenant, entry.ID, "ana"))

	_, err = f.ledger.GetEntry(ctx, testTenant, entry.ID)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))

	audits := f.audits.ListByAction(testTenant, domain.AuditEntryDeleted)
	require.Len(t, audits, 1)
	assert.Contains(t, audits[0].Payload, entry.ID)
}

func TestCleanupOrphansReachesFixedPoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.ledger.InsertRawEntry(domain.LedgerEntry{
			ID:            uuid.NewString(),
			TenantID:      testTenant,
			EntryDate:     date(2026, 3, 1),
			EntryType:     domain.EntryTypeReceivableIssued,
			ReferenceType: "receivable",
			ReferenceID:   uuid.NewString(),
		})
	}
	healthy, err := f.posting.Post(ctx, domain.ReceivableIssued{
		TenantID:     testTenant,
		ReceivableID: "rcv-1",
		PayerName:    "Acme",
		Amount:       decimal.NewFromInt(100),
		DueDate:      date(2026, 3, 10),
	})
	require.NoError(t, err)

	repaired, err := f.posting.CleanupOrphans(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 3, repaired)
	assert.Len(t, f.audits.ListByAction(testTenant, domain.AuditOrphanRemoved), 3)

	// The healthy entry survives and a second sweep finds nothing.
	_, err = f.ledger.GetEntry(ctx, testTenant, healthy.ID)
	require.NoError(t, err)
	repaired, err = f.posting.CleanupOrphans(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}
