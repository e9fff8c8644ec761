package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReceivableStatus string

const (
	ReceivableStatusPending   ReceivableStatus = "PENDING"
	ReceivableStatusPartial   ReceivableStatus = "PARTIAL"
	ReceivableStatusPaid      ReceivableStatus = "PAID"
	ReceivableStatusCancelled ReceivableStatus = "CANCELLED"
)

// Receivable is an invoice, boleto, or opening-balance item owed by a payer.
// PaidAmount accumulates in place on partial settlement; no remainder record
// is spawned.
type Receivable struct {
	ID               string
	TenantID         string
	PayerID          string
	PayerName        string
	PayerDocument    string // registered tax identifier, digits only
	PayerAccountCode string // analytical accounts-receivable account
	Amount           decimal.Decimal
	PaidAmount       decimal.Decimal
	DueDate          time.Time
	PaymentDate      *time.Time
	Competence       string // MM/YYYY
	Status           ReceivableStatus
}

// Outstanding is the amount still allocatable against this receivable.
func (r Receivable) Outstanding() decimal.Decimal {
	return r.Amount.Sub(r.PaidAmount)
}
