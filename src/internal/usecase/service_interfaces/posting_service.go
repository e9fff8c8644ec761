package service_interfaces

import (
	"context"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type PostingService interface {
	// Post turns a source event into a balanced ledger entry. Posting the
	// same event twice returns the first entry unchanged.
	Post(ctx context.Context, event domain.SourceEvent) (domain.LedgerEntry, error)
	// PostMovement assembles the payment event for an allocated movement
	// from its stored allocation set and posts it.
	PostMovement(ctx context.Context, tenantID, movementID string) (domain.LedgerEntry, error)
	// Reverse posts a mirrored entry against entryID and records the
	// reversal in the audit trail.
	Reverse(ctx context.Context, tenantID, entryID, actor string) (domain.LedgerEntry, error)
	// Delete cascade-removes the entry and its lines, keeping a JSON
	// snapshot of the deleted entry in the audit trail.
	Delete(ctx context.Context, tenantID, entryID, actor string) error
	// CleanupOrphans removes line-less entries until none remain, bounded,
	// and returns how many it repaired.
	CleanupOrphans(ctx context.Context, tenantID string) (int, error)
}
