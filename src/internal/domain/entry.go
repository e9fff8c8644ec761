package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeReceivableIssued EntryType = "RECEIVABLE_ISSUED"
	EntryTypeReceivablePaid   EntryType = "RECEIVABLE_PAID"
	EntryTypeExpenseIncurred  EntryType = "EXPENSE_INCURRED"
	EntryTypeOpeningBalance   EntryType = "OPENING_BALANCE"
	EntryTypeManualAdjustment EntryType = "MANUAL_ADJUSTMENT"
	EntryTypeReversal         EntryType = "REVERSAL"
)

// LedgerLine is one side of a double-entry. Exactly one of Debit/Credit is
// non-zero and both are non-negative.
type LedgerLine struct {
	EntryID     string
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// LedgerEntry is immutable once posted. Corrections happen through reversal
// entries or an audited cascade delete, never by editing lines in place.
type LedgerEntry struct {
	ID            string
	TenantID      string
	EntryDate     time.Time
	Description   string
	EntryType     EntryType
	ReferenceType string
	ReferenceID   string
	Lines         []LedgerLine
	CreatedAt     time.Time
}

func (e LedgerEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

func (e LedgerEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Credit)
	}
	return total
}

// Balanced reports the fundamental double-entry law: debits equal credits
// exactly, with no tolerance at the entry level.
func (e LedgerEntry) Balanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}
