package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	logger.Info("audit repository record", logger.Fields{
		"action":  event.Action,
		"entryId": event.EntryID,
		"actor":   event.Actor,
	})

	const query = `
INSERT INTO audit_events (id, tenant_id, action, entry_id, actor, payload)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

	var createdAt time.Time
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.ID,
		event.TenantID,
		event.Action,
		event.EntryID,
		event.Actor,
		event.Payload,
	).Scan(&createdAt); err != nil {
		logger.Error("audit repository record failed", err, logger.Fields{"action": event.Action})
		return domain.AuditEvent{}, fmt.Errorf("record audit event: %w", err)
	}

	event.CreatedAt = createdAt
	return event, nil
}

func (r *AuditRepository) ListByEntry(ctx context.Context, tenantID, entryID string) ([]domain.AuditEvent, error) {
	const query = `
SELECT id, tenant_id, action, entry_id, actor, payload, created_at
FROM audit_events
WHERE tenant_id = $1 AND entry_id = $2
ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, tenantID, entryID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		if err := rows.Scan(
			&event.ID,
			&event.TenantID,
			&event.Action,
			&event.EntryID,
			&event.Actor,
			&event.Payload,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
