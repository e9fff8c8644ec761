package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrRecordNotFound = errors.New("Record not found")

const (
	RuleEmptySelection = "empty_selection"
	RuleSumMismatch    = "sum_mismatch"
	RuleOverAllocation = "over_allocation"
	RuleInvalidAmount  = "invalid_amount"
	RuleInvalidState   = "invalid_state"
)

// ValidationError names the exact rule a split or posting request violated,
// with the numeric values involved. Always locally recoverable: the caller
// re-prompts instead of partially applying.
type ValidationError struct {
	Rule         string
	Detail       string
	Difference   decimal.Decimal // signed, for sum_mismatch
	ReceivableID string          // offending receivable, for over_allocation
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Detail)
}

// InvalidAccountError is fatal to a posting attempt: the target account is
// synthetic or unknown, and is never silently swapped for another account.
type InvalidAccountError struct {
	Code   string
	Reason string
}

func (e InvalidAccountError) Error() string {
	return fmt.Sprintf("invalid account %q: %s", e.Code, e.Reason)
}

// PostingError wraps a transactional write failure. The caller may retry;
// the idempotency check guarantees no duplicate entry results.
type PostingError struct {
	Stage string
	Err   error
}

func (e PostingError) Error() string {
	return fmt.Sprintf("posting failed at %s: %v", e.Stage, e.Err)
}

func (e PostingError) Unwrap() error { return e.Err }

const (
	CheckTrialBalance     = "trial_balance"
	CheckCashFlow         = "cash_flow"
	CheckMovementLinkage  = "movement_linkage"
	CheckSyntheticPosting = "synthetic_posting"
)

// Discrepancy is a reconciliation finding, not an error. It always carries
// its numeric magnitude so the operator sees how far off the books are.
type Discrepancy struct {
	Check       string
	AccountCode string
	Amount      decimal.Decimal
	Detail      string
}

func (d Discrepancy) String() string {
	if d.AccountCode != "" {
		return fmt.Sprintf("[%s] account %s: %s (%s)", d.Check, d.AccountCode, d.Detail, d.Amount.StringFixed(2))
	}
	return fmt.Sprintf("[%s] %s (%s)", d.Check, d.Detail, d.Amount.StringFixed(2))
}
