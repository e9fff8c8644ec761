package service_interfaces

import (
	"context"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountBalance is the aggregator output for one account and period.
// Opening and Closing are nature-adjusted; PeriodDebit/PeriodCredit are the
// raw sums of the account's lines inside the period.
type AccountBalance struct {
	Account      domain.Account
	Opening      decimal.Decimal
	PeriodDebit  decimal.Decimal
	PeriodCredit decimal.Decimal
	Closing      decimal.Decimal
}

// TrialBalance is the full sweep over every analytical account, with the
// per-nature column totals that must reconcile.
type TrialBalance struct {
	Rows []AccountBalance

	OpeningDebit   decimal.Decimal
	OpeningCredit  decimal.Decimal
	MovementDebit  decimal.Decimal
	MovementCredit decimal.Decimal
	ClosingDebit   decimal.Decimal
	ClosingCredit  decimal.Decimal
}

type CashFlowBucket string

const (
	BucketOperating CashFlowBucket = "OPERATING"
	BucketInvesting CashFlowBucket = "INVESTING"
	BucketFinancing CashFlowBucket = "FINANCING"
)

type CashFlowItem struct {
	Bucket      CashFlowBucket
	AccountCode string
	AccountName string
	Amount      decimal.Decimal // contribution to cash, signed
}

// CashFlowStatement is the indirect-method derivation of the period's cash
// change from non-cash account movements.
type CashFlowStatement struct {
	Items          []CashFlowItem
	OperatingTotal decimal.Decimal
	InvestingTotal decimal.Decimal
	FinancingTotal decimal.Decimal
	NetChange      decimal.Decimal
	CashOpening    decimal.Decimal
	CashClosing    decimal.Decimal
}

type AggregatorService interface {
	Balances(ctx context.Context, tenantID, codeOrPrefix string, from, to time.Time) ([]AccountBalance, error)
	RolledUp(ctx context.Context, tenantID, syntheticCode string, from, to time.Time) (AccountBalance, error)
	TrialBalance(ctx context.Context, tenantID string, from, to time.Time) (TrialBalance, error)
	CashFlow(ctx context.Context, tenantID string, from, to time.Time) (CashFlowStatement, error)
}
