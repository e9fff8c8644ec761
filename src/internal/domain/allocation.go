package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation links one bank movement to one receivable for a concrete amount.
type Allocation struct {
	ID           string
	TenantID     string
	MovementID   string
	ReceivableID string
	Amount       decimal.Decimal
	CreatedAt    time.Time
}

// AllocationSet is the output of one resolve call: every allocation shares
// the same movement and their amounts sum to the movement amount within the
// configured tolerance.
type AllocationSet struct {
	MovementID  string
	TenantID    string
	Allocations []Allocation
}

func (s AllocationSet) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}
