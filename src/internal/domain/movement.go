package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementStatus string

const (
	MovementStatusUnmatched MovementStatus = "UNMATCHED"
	MovementStatusProposed  MovementStatus = "PROPOSED"
	MovementStatusAllocated MovementStatus = "ALLOCATED"
	MovementStatusPosted    MovementStatus = "POSTED"
	MovementStatusRejected  MovementStatus = "REJECTED"
)

// BankMovement is an imported cash event. Ingestion creates it already
// de-duplicated by ExternalRef; the reconciliation flow only mutates its
// status and flags, never deletes it.
type BankMovement struct {
	ID              string
	TenantID        string
	ValueDate       time.Time
	Amount          decimal.Decimal // signed: credits positive, debits negative
	Description     string
	ExternalRef     string
	BankAccountCode string
	Status          MovementStatus
	Matched         bool
	MultiMatch      bool
	Reviewed        bool
	Category        string
}

// CanTransition encodes the movement state machine. Posted and Rejected are
// terminal; a failed post returns to Allocated so the allocation survives.
func (m BankMovement) CanTransition(next MovementStatus) bool {
	switch m.Status {
	case MovementStatusUnmatched:
		return next == MovementStatusProposed || next == MovementStatusAllocated || next == MovementStatusRejected
	case MovementStatusProposed:
		return next == MovementStatusAllocated || next == MovementStatusRejected
	case MovementStatusAllocated:
		return next == MovementStatusPosted || next == MovementStatusAllocated
	default:
		return false
	}
}
