package services_test

import (
	"context"
	"testing"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchingExactAmountAndDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 10), "PIX ACME CONSULTORIA LTDA")
	receivable := f.createReceivable(t, "rcv-1", "Acme Consultoria Ltda", "", "1500.00", date(2026, 3, 10))

	candidates := f.matching.ProposeMatches(ctx, movement, []domain.Receivable{receivable})
	require.Len(t, candidates, 1)

	candidate := candidates[0]
	assert.Equal(t, 100, candidate.Confidence)
	assert.Equal(t, domain.MatchExact, candidate.Classification)
	assert.Equal(t, 50, candidate.AmountPoints)
	assert.Equal(t, 30, candidate.DatePoints)
	assert.Equal(t, 20, candidate.IdentityPoints)
}

func TestMatchingCloseBandWithNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 980 against 1000 is a 2% difference, three days late.
	movement := f.createMovement(t, "mov-1", "980.00", date(2026, 3, 13), "TED BRAVO SERVICOS DIGITAIS")
	receivable := f.createReceivable(t, "rcv-1", "Bravo Servicos Digitais", "", "1000.00", date(2026, 3, 10))

	candidates := f.matching.ProposeMatches(ctx, movement, []domain.Receivable{receivable})
	require.Len(t, candidates, 1)

	candidate := candidates[0]
	assert.Equal(t, 85, candidate.Confidence)
	assert.Equal(t, domain.MatchClose, candidate.Classification)
	assert.Equal(t, 45, candidate.AmountPoints)
	assert.Equal(t, 20, candidate.DatePoints)
	assert.Equal(t, 20, candidate.IdentityPoints)
	assert.NotEmpty(t, candidate.Notes)
}

func TestMatchingExactRequiresMaxedAmountSignal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// High confidence but a 2% amount difference: never "exact".
	movement := f.createMovement(t, "mov-1", "980.00", date(2026, 3, 10), "PIX BRAVO SERVICOS DIGITAIS")
	receivable := f.createReceivable(t, "rcv-1", "Bravo Servicos Digitais", "", "1000.00", date(2026, 3, 10))

	candidates := f.matching.ProposeMatches(ctx, movement, []domain.Receivable{receivable})
	require.Len(t, candidates, 1)
	assert.Equal(t, 95, candidates[0].Confidence)
	assert.Equal(t, domain.MatchClose, candidates[0].Classification)
}

func TestMatchingFloorFiltersButDebugPathShowsAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 40% amount divergence, 45 days apart, no name overlap: scores zero.
	movement := f.createMovement(t, "mov-1", "600.00", date(2026, 4, 24), "DEPOSITO AVULSO")
	weak := f.createReceivable(t, "rcv-1", "Zeta Industria", "", "1000.00", date(2026, 3, 10))

	accepted := f.matching.ProposeMatches(ctx, movement, []domain.Receivable{weak})
	assert.Empty(t, accepted)

	all := f.matching.ProposeAll(ctx, movement, []domain.Receivable{weak})
	require.Len(t, all, 1)
	assert.Equal(t, domain.MatchSuspicious, all[0].Classification)
	assert.NotEmpty(t, all[0].Notes)
}

func TestMatchingDocumentFastPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Amount and date are both off, but the payer tax id is embedded in the
	// movement description.
	movement := f.createMovement(t, "mov-1", "870.00", date(2026, 3, 25), "BOLETO CPF 123.456.789-01")
	receivable := f.createReceivable(t, "rcv-1", "Carla Nogueira", "12345678901", "1000.00", date(2026, 3, 10))

	candidates := f.matching.ProposeMatches(ctx, movement, []domain.Receivable{receivable})
	require.Len(t, candidates, 1)
	assert.Equal(t, 100, candidates[0].Confidence)
	assert.Equal(t, domain.MatchExact, candidates[0].Classification)
	assert.NotEmpty(t, candidates[0].Notes)
}

func TestMatchingDeterministicOrdering(t *testing.T) {
	cfg := defaultMatchingConfig()
	svc := services.NewMatchingService(cfg, nil, nil)
	ctx := context.Background()

	movement := domain.BankMovement{
		ID:          "mov-1",
		TenantID:    testTenant,
		ValueDate:   date(2026, 3, 10),
		Amount:      mustDecimal(t, "1000.00"),
		Description: "PIX DELTA COMERCIO",
		Status:      domain.MovementStatusUnmatched,
	}
	twin := func(id string) domain.Receivable {
		return domain.Receivable{
			ID:        id,
			TenantID:  testTenant,
			PayerName: "Delta Comercio",
			Amount:    mustDecimal(t, "1000.00"),
			DueDate:   date(2026, 3, 10),
			Status:    domain.ReceivableStatusPending,
		}
	}

	first := svc.ProposeMatches(ctx, movement, []domain.Receivable{twin("rcv-b"), twin("rcv-a")})
	second := svc.ProposeMatches(ctx, movement, []domain.Receivable{twin("rcv-a"), twin("rcv-b")})

	require.Len(t, first, 2)
	assert.Equal(t, "rcv-a", first[0].ReceivableID)
	assert.Equal(t, first[0].ReceivableID, second[0].ReceivableID)
	assert.Equal(t, first[1].ReceivableID, second[1].ReceivableID)
}

func TestMatchingSkipsSettledReceivables(t *testing.T) {
	cfg := defaultMatchingConfig()
	svc := services.NewMatchingService(cfg, nil, nil)
	ctx := context.Background()

	movement := domain.BankMovement{
		ID:        "mov-1",
		TenantID:  testTenant,
		ValueDate: date(2026, 3, 10),
		Amount:    mustDecimal(t, "1000.00"),
		Status:    domain.MovementStatusUnmatched,
	}
	settled := domain.Receivable{
		ID:         "rcv-1",
		TenantID:   testTenant,
		PayerName:  "Delta Comercio",
		Amount:     mustDecimal(t, "1000.00"),
		PaidAmount: mustDecimal(t, "1000.00"),
		DueDate:    date(2026, 3, 10),
		Status:     domain.ReceivableStatusPaid,
	}

	assert.Empty(t, svc.ProposeAll(ctx, movement, []domain.Receivable{settled}))
}

func TestMatchingDateNoteFollowsNearestReference(t *testing.T) {
	cfg := defaultMatchingConfig()
	svc := services.NewMatchingService(cfg, nil, nil)
	ctx := context.Background()

	// Movement lands four days after the recorded payment and five days
	// before the due date; distance and direction must both come from the
	// payment date.
	paidOn := date(2026, 3, 10)
	movement := domain.BankMovement{
		ID:          "mov-1",
		TenantID:    testTenant,
		ValueDate:   date(2026, 3, 14),
		Amount:      mustDecimal(t, "1000.00"),
		Description: "PIX DELTA COMERCIO",
		Status:      domain.MovementStatusUnmatched,
	}
	receivable := domain.Receivable{
		ID:          "rcv-1",
		TenantID:    testTenant,
		PayerName:   "Delta Comercio",
		Amount:      mustDecimal(t, "1000.00"),
		DueDate:     date(2026, 3, 19),
		PaymentDate: &paidOn,
		Status:      domain.ReceivableStatusPartial,
		PaidAmount:  mustDecimal(t, "100.00"),
	}

	candidates := svc.ProposeAll(ctx, movement, []domain.Receivable{receivable})
	require.Len(t, candidates, 1)
	assert.Equal(t, 4, candidates[0].DateDistance)
	assert.Contains(t, candidates[0].Notes, "movement dated 4 days after the recorded payment date")
}

func TestMatchingRejectMarksReviewed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 10), "PIX ACME CONSULTORIA LTDA")
	f.createReceivable(t, "rcv-1", "Acme Consultoria Ltda", "", "1500.00", date(2026, 3, 10))

	_, err := f.matching.ProposeForMovement(ctx, testTenant, movement.ID, false)
	require.NoError(t, err)

	rejected, err := f.matching.Reject(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStatusRejected, rejected.Status)
	assert.True(t, rejected.Reviewed)

	stored, err := f.movements.GetByID(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStatusRejected, stored.Status)
	assert.True(t, stored.Reviewed)

	// Rejected is terminal.
	_, err = f.matching.Reject(ctx, testTenant, movement.ID)
	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleInvalidState, validationErr.Rule)
}

func TestMatchingRejectRefusesAllocatedMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1000.00", date(2026, 3, 12), "PIX")
	movement.Status = domain.MovementStatusAllocated
	_, err := f.movements.Update(ctx, movement)
	require.NoError(t, err)

	_, err = f.matching.Reject(ctx, testTenant, movement.ID)

	var validationErr domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.RuleInvalidState, validationErr.Rule)
}

func TestMatchingProposeForMovementAdvancesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movement := f.createMovement(t, "mov-1", "1500.00", date(2026, 3, 10), "PIX ACME CONSULTORIA LTDA")
	f.createReceivable(t, "rcv-1", "Acme Consultoria Ltda", "", "1500.00", date(2026, 3, 10))

	candidates, err := f.matching.ProposeForMovement(ctx, testTenant, movement.ID, false)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	stored, err := f.movements.GetByID(ctx, testTenant, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStatusProposed, stored.Status)
}
