package services_test

import (
	"context"
	"testing"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitResolveSingleReceivable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1000.00", date(2026, 3, 12), "PIX ACME")
	receivable := f.createReceivable(t, "rcv-1", "Acme", "", "1000.00", date(2026, 3, 10))

	set, err := f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "1000.00")},
	})
	require.NoError(t, err)
	require.Len(t, set.Allocations, 1)
	assert.True(t, set.Total().Equal(mustDecimal(t, "1000.00")))

	storedMovement, err := f.movements.GetByID(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStatusAllocated, storedMovement.Status)
	assert.True(t, storedMovement.Matched)
	assert.False(t, storedMovement.MultiMatch)

	storedReceivable, err := f.receivables.GetByID(ctx, testTenant, receivable.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivableStatusPaid, storedReceivable.Status)
	assert.True(t, storedReceivable.Outstanding().IsZero())
	require.NotNil(t, storedReceivable.PaymentDate)
	assert.Equal(t, movement.ValueDate, *storedReceivable.PaymentDate)
}

func TestSplitResolveAcrossTwoReceivables(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 12), "TED LOTE")
	full := f.createReceivable(t, "rcv-1", "Acme", "", "1000.00", date(2026, 3, 10))
	partial := f.createReceivable(t, "rcv-2", "Bravo", "", "800.00", date(2026, 3, 10))

	set, err := f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: full.ID, Amount: mustDecimal(t, "1000.00")},
		{ReceivableID: partial.ID, Amount: mustDecimal(t, "500.00")},
	})
	require.NoError(t, err)
	require.Len(t, set.Allocations, 2)

	storedMovement, err := f.movements.GetByID(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.True(t, storedMovement.MultiMatch)

	storedFull, err := f.receivables.GetByID(ctx, testTenant, full.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivableStatusPaid, storedFull.Status)

	storedPartial, err := f.receivables.GetByID(ctx, testTenant, partial.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivableStatusPartial, storedPartial.Status)
	assert.True(t, storedPartial.Outstanding().Equal(mustDecimal(t, "300.00")))
}

func TestSplitResolveEmptySelection(t *testing.T) {
	f := newFixture(t)

	_, err := f.split.Resolve(context.Background(), testTenant, "mov-1", nil)

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleEmptySelection, validationErr.Rule)
}

func TestSplitResolveSumMismatchCarriesDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "500.00", date(2026, 3, 12), "PIX")
	receivable := f.createReceivable(t, "rcv-1", "Acme", "", "1000.00", date(2026, 3, 10))

	_, err := f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "450.00")},
	})

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleSumMismatch, validationErr.Rule)
	assert.True(t, validationErr.Difference.Equal(mustDecimal(t, "-50.00")))

	// Nothing was applied.
	stored, err := f.receivables.GetByID(ctx, testTenant, receivable.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
	storedMovement, err := f.movements.GetByID(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStatusUnmatched, storedMovement.Status)
}

func TestSplitResolveWithinTolerance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1000.00", date(2026, 3, 12), "PIX")
	receivable := f.createReceivable(t, "rcv-1", "Acme", "", "999.99", date(2026, 3, 10))

	_, err := f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "999.99")},
	})
	require.NoError(t, err)
}

func TestSplitResolveOverAllocationNamesReceivable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 12), "PIX")
	receivable := f.createReceivable(t, "rcv-1", "Acme", "", "1000.00", date(2026, 3, 10))

	_, err := f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "1500.00")},
	})

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleOverAllocation, validationErr.Rule)
	assert.Equal(t, receivable.ID, validationErr.ReceivableID)
}

func TestSplitResolveRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1000.00", date(2026, 3, 12), "PIX")
	receivable := f.createReceivable(t, "rcv-1", "Acme", "", "1000.00", date(2026, 3, 10))

	_, err := f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "0")},
	})

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleInvalidAmount, validationErr.Rule)
}

func TestSplitResolveRejectsCancelledReceivable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "500.00", date(2026, 3, 12), "PIX")
	receivable := f.createReceivable(t, "rcv-1", "Acme", "", "500.00", date(2026, 3, 10))
	receivable.Status = domain.ReceivableStatusCancelled
	_, err := f.receivables.Update(ctx, receivable)
	require.NoError(t, err)

	_, err = f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "500.00")},
	})

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleInvalidState, validationErr.Rule)
	assert.Equal(t, receivable.ID, validationErr.ReceivableID)

	// Nothing was applied: the cancelled row keeps its balance and the
	// movement stays unmatched.
	stored, err := f.receivables.GetByID(ctx, testTenant, receivable.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivableStatusCancelled, stored.Status)
	assert.True(t, stored.PaidAmount.IsZero())
	storedMovement, err := f.movements.GetByID(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStatusUnmatched, storedMovement.Status)
}

func TestSplitResolveRejectsTerminalMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1000.00", date(2026, 3, 12), "PIX")
	movement.Status = domain.MovementStatusRejected
	_, err := f.movements.Update(ctx, movement)
	require.NoError(t, err)
	receivable := f.createReceivable(t, "rcv-1", "Acme", "", "1000.00", date(2026, 3, 10))

	_, err = f.split.Resolve(ctx, testTenant, movement.ID, []service_interfaces.Selection{
		{ReceivableID: receivable.ID, Amount: mustDecimal(t, "1000.00")},
	})

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleInvalidState, validationErr.Rule)
}

func TestSplitResolveSettlementDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := date(2026, 3, 15)

	first := f.createMovement(t, "mov-1", "700.00", day, "BOLETO LOTE 1")
	second := f.createMovement(t, "mov-2", "300.00", day, "BOLETO LOTE 2")
	a := f.createReceivable(t, "rcv-a", "Acme", "", "700.00", day)
	b := f.createReceivable(t, "rcv-b", "Bravo", "", "300.00", day)

	sets, err := f.split.ResolveSettlementDay(ctx, testTenant, day, map[string][]service_interfaces.Selection{
		first.ID:  {{ReceivableID: a.ID, Amount: mustDecimal(t, "700.00")}},
		second.ID: {{ReceivableID: b.ID, Amount: mustDecimal(t, "300.00")}},
	})
	require.NoError(t, err)
	require.Len(t, sets, 2)

	for _, id := range []string{first.ID, second.ID} {
		stored, err := f.movements.GetByID(ctx, testTenant, id)
		require.NoError(t, err)
		assert.Equal(t, domain.MovementStatusAllocated, stored.Status)
	}
}

func TestSplitResolveSettlementDayRejectsForeignDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := date(2026, 3, 15)

	movement := f.createMovement(t, "mov-1", "700.00", day, "BOLETO")
	other := f.createReceivable(t, "rcv-1", "Acme", "", "700.00", date(2026, 3, 20))

	_, err := f.split.ResolveSettlementDay(ctx, testTenant, day, map[string][]service_interfaces.Selection{
		movement.ID: {{ReceivableID: other.ID, Amount: mustDecimal(t, "700.00")}},
	})

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleInvalidState, validationErr.Rule)
}
