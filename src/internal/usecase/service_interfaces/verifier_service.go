package service_interfaces

import (
	"context"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

// VerificationReport is the verifier outcome. Findings are data, not
// errors: an unbalanced period still produces a nil-error report.
type VerificationReport struct {
	Balanced      bool
	Discrepancies []domain.Discrepancy
}

type VerifierService interface {
	Verify(ctx context.Context, tenantID string, from, to time.Time) (VerificationReport, error)
	// ClosePeriod refuses to close an unbalanced period unless force is
	// set; a forced close with findings is recorded as an audit event.
	ClosePeriod(ctx context.Context, tenantID string, from, to time.Time, actor string, force bool) (VerificationReport, error)
}
