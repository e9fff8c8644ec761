package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceEvent is the closed set of financial facts the posting engine turns
// into ledger entries. Each variant carries the reference pair that makes
// posting idempotent.
type SourceEvent interface {
	EntryType() EntryType
	Reference() (refType, refID string)
	Tenant() string
}

// ReceivableIssued provisions revenue when an invoice/boleto is created.
// D accounts receivable (payer), C service fee revenue.
type ReceivableIssued struct {
	TenantID         string
	ReceivableID     string
	PayerName        string
	PayerAccountCode string
	Amount           decimal.Decimal
	DueDate          time.Time
	Competence       string
	Description      string
}

func (e ReceivableIssued) EntryType() EntryType { return EntryTypeReceivableIssued }
func (e ReceivableIssued) Reference() (string, string) {
	return "receivable", e.ReceivableID
}
func (e ReceivableIssued) Tenant() string { return e.TenantID }

// ReceivablePaid records the cash entry for a resolved allocation set.
// D bank analytical account, C accounts receivable per allocation.
type ReceivablePaid struct {
	TenantID        string
	Movement        BankMovement
	Set             AllocationSet
	Receivables     map[string]Receivable // keyed by receivable ID
	PaymentDate     time.Time
	BankAccountCode string
}

func (e ReceivablePaid) EntryType() EntryType { return EntryTypeReceivablePaid }
func (e ReceivablePaid) Reference() (string, string) {
	return "bank_movement", e.Movement.ID
}
func (e ReceivablePaid) Tenant() string { return e.TenantID }

// ExpenseIncurred provisions an expense.
// D expense account by category, C suppliers payable.
type ExpenseIncurred struct {
	TenantID    string
	ExpenseID   string
	Category    string
	Amount      decimal.Decimal
	ExpenseDate time.Time
	Description string
}

func (e ExpenseIncurred) EntryType() EntryType { return EntryTypeExpenseIncurred }
func (e ExpenseIncurred) Reference() (string, string) {
	return "expense", e.ExpenseID
}
func (e ExpenseIncurred) Tenant() string { return e.TenantID }

// OpeningBalanceEstablished seeds a payer balance carried in from before the
// ledger started. D accounts receivable, C opening balance equity.
type OpeningBalanceEstablished struct {
	TenantID         string
	BalanceID        string
	PayerName        string
	PayerAccountCode string
	Amount           decimal.Decimal
	Date             time.Time
	Competence       string
}

func (e OpeningBalanceEstablished) EntryType() EntryType { return EntryTypeOpeningBalance }
func (e OpeningBalanceEstablished) Reference() (string, string) {
	return "opening_balance", e.BalanceID
}
func (e OpeningBalanceEstablished) Tenant() string { return e.TenantID }

// ManualAdjustment posts an operator-supplied debit/credit pair.
type ManualAdjustment struct {
	TenantID          string
	AdjustmentID      string
	DebitAccountCode  string
	CreditAccountCode string
	Amount            decimal.Decimal
	Date              time.Time
	Description       string
}

func (e ManualAdjustment) EntryType() EntryType { return EntryTypeManualAdjustment }
func (e ManualAdjustment) Reference() (string, string) {
	return "manual_adjustment", e.AdjustmentID
}
func (e ManualAdjustment) Tenant() string { return e.TenantID }
