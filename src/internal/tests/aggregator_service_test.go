package services_test

import (
	"context"
	"testing"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postSampleLedger posts a small book: a 500 opening balance in January, a
// 1000 receivable issued in February, and a 600 bank receipt in February.
func postSampleLedger(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	_, err := f.posting.Post(ctx, domain.OpeningBalanceEstablished{
		TenantID:   testTenant,
		BalanceID:  "ob-1",
		PayerName:  "Acme",
		Amount:     mustDecimal(t, "500.00"),
		Date:       date(2026, 1, 15),
		Competence: "01/2026",
	})
	require.NoError(t, err)

	_, err = f.posting.Post(ctx, domain.ReceivableIssued{
		TenantID:     testTenant,
		ReceivableID: "rcv-1",
		PayerName:    "Acme",
		Amount:       mustDecimal(t, "1000.00"),
		DueDate:      date(2026, 2, 10),
		Competence:   "02/2026",
	})
	require.NoError(t, err)

	_, err = f.posting.Post(ctx, domain.ManualAdjustment{
		TenantID:          testTenant,
		AdjustmentID:      "adj-1",
		DebitAccountCode:  services.AccountBankDefault,
		CreditAccountCode: services.AccountReceivableDefault,
		Amount:            mustDecimal(t, "600.00"),
		Date:              date(2026, 2, 20),
		Description:       "Recebimento em conta",
	})
	require.NoError(t, err)
}

func TestAggregatorBalances(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)

	balances, err := f.aggregator.Balances(context.Background(), testTenant, services.AccountReceivableDefault, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)
	require.Len(t, balances, 1)

	row := balances[0]
	assert.True(t, row.Opening.Equal(mustDecimal(t, "500.00")), "opening was %s", row.Opening)
	assert.True(t, row.PeriodDebit.Equal(mustDecimal(t, "1000.00")))
	assert.True(t, row.PeriodCredit.Equal(mustDecimal(t, "600.00")))
	assert.True(t, row.Closing.Equal(mustDecimal(t, "900.00")), "closing was %s", row.Closing)
}

func TestAggregatorCreditNatureSign(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)

	balances, err := f.aggregator.Balances(context.Background(), testTenant, services.AccountFeeRevenue, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)
	require.Len(t, balances, 1)

	// Revenue grows by credit, so its closing balance reads positive.
	assert.True(t, balances[0].Closing.Equal(mustDecimal(t, "1000.00")))
}

func TestAggregatorRollupEqualsAnalyticalSum(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)
	ctx := context.Background()

	rolled, err := f.aggregator.RolledUp(ctx, testTenant, "1.1", date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)

	analytical, err := f.aggregator.Balances(ctx, testTenant, "1.1", date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, row := range analytical {
		sum = sum.Add(row.Closing)
	}
	assert.True(t, rolled.Closing.Equal(sum), "rolled %s, sum %s", rolled.Closing, sum)
	// Bank 600 + receivables 900.
	assert.True(t, rolled.Closing.Equal(mustDecimal(t, "1500.00")))
}

func TestAggregatorTrialBalanceColumnsAgree(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)

	tb, err := f.aggregator.TrialBalance(context.Background(), testTenant, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)

	assert.True(t, tb.OpeningDebit.Equal(tb.OpeningCredit), "opening %s vs %s", tb.OpeningDebit, tb.OpeningCredit)
	assert.True(t, tb.MovementDebit.Equal(tb.MovementCredit), "movement %s vs %s", tb.MovementDebit, tb.MovementCredit)
	assert.True(t, tb.ClosingDebit.Equal(tb.ClosingCredit), "closing %s vs %s", tb.ClosingDebit, tb.ClosingCredit)
	assert.True(t, tb.MovementDebit.Equal(mustDecimal(t, "1600.00")))
}

func TestAggregatorCashFlowExplainsCashChange(t *testing.T) {
	f := newFixture(t)
	postSampleLedger(t, f)

	cf, err := f.aggregator.CashFlow(context.Background(), testTenant, date(2026, 2, 1), date(2026, 2, 28))
	require.NoError(t, err)

	// Cash moved by the 600 receipt; receivable growth consumed 400 of the
	// 1000 revenue.
	assert.True(t, cf.NetChange.Equal(mustDecimal(t, "600.00")), "net change %s", cf.NetChange)
	assert.True(t, cf.CashClosing.Sub(cf.CashOpening).Equal(cf.NetChange))
	assert.True(t, cf.OperatingTotal.Equal(cf.NetChange))
	assert.NotEmpty(t, cf.Items)
}
