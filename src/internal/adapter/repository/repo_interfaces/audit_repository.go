package repo_interfaces

import (
	"context"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type AuditRepository interface {
	Record(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	ListByEntry(ctx context.Context, tenantID, entryID string) ([]domain.AuditEvent, error)
}
